package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"skyjo-server/game"
	"skyjo-server/wsutil"
)

// StateSource is what WatchGame needs to render a player's view.
type StateSource interface {
	View(ctx context.Context, gameID, viewerID string) (game.GameStateMsg, error)
}

// WatchGame pushes playerID's game_state to send now and after every committed
// change to the game. It returns once the complete game has been pushed, when
// the game disappears, or when ctx is done.
func WatchGame(ctx context.Context, views StateSource, changes game.Subscriber, gameID, playerID string, send chan<- []byte) {
	ch, err := changes.Subscribe(ctx, gameID)
	if err != nil {
		slog.Warn("subscribe failed", "tag", "ws", "game", gameID, "player", playerID, "error", err)
		return
	}

	push := func() bool {
		view, err := views.View(ctx, gameID, playerID)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("failed to build view", "tag", "ws", "game", gameID, "player", playerID, "error", err)
			}
			return !errors.Is(err, game.ErrNotFound) && ctx.Err() == nil
		}
		data, err := json.Marshal(view)
		if err != nil {
			slog.Error("failed to encode view", "tag", "ws", "game", gameID, "error", err)
			return true
		}
		wsutil.SafeSend(send, data)
		return view.Status != game.StatusGameComplete
	}

	if !push() {
		return
	}
	for range ch {
		if !push() {
			return
		}
	}
}
