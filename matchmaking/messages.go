package matchmaking

import (
	"encoding/json"
	"errors"

	"skyjo-server/game"
	"skyjo-server/matcherrors"
	"skyjo-server/ws"
)

func marshal(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}

func errorMsg(err error) []byte {
	code := game.ErrorCode(err)
	if errors.Is(err, matcherrors.ErrAlreadyQueued) {
		code = "already_queued"
	}
	return marshal(ws.ErrorMsg{Type: "error", Code: code, Message: err.Error()})
}
