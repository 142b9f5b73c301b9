package storage

import (
	"encoding/json"
	"fmt"

	"skyjo-server/game"
)

// docTx is the game.Tx shared by every backend. Documents are loaded lazily
// through the load callbacks, decoded once and cached, so repeated Player(id)
// calls return the same pointer. Writes stay buffered until the backend
// commits them.
type docTx struct {
	gameID     string
	loadGame   func() ([]byte, error)
	loadPlayer func(playerID string) ([]byte, error)

	game      *game.GameState
	gameDirty bool
	players   map[string]*game.PlayerState
	dirty     map[string]bool
}

func newDocTx(gameID string, loadGame func() ([]byte, error), loadPlayer func(string) ([]byte, error)) *docTx {
	return &docTx{
		gameID:     gameID,
		loadGame:   loadGame,
		loadPlayer: loadPlayer,
		players:    make(map[string]*game.PlayerState),
		dirty:      make(map[string]bool),
	}
}

func (t *docTx) Game() (*game.GameState, error) {
	if t.game != nil {
		return t.game, nil
	}
	raw, err := t.loadGame()
	if err != nil {
		return nil, err
	}
	g, err := decodeGame(t.gameID, raw)
	if err != nil {
		return nil, err
	}
	t.game = g
	return g, nil
}

func (t *docTx) Player(playerID string) (*game.PlayerState, error) {
	if p, ok := t.players[playerID]; ok {
		return p, nil
	}
	raw, err := t.loadPlayer(playerID)
	if err != nil {
		return nil, err
	}
	p, err := decodePlayer(t.gameID, playerID, raw)
	if err != nil {
		return nil, err
	}
	t.players[playerID] = p
	return p, nil
}

func (t *docTx) SetGame(g *game.GameState) {
	t.game = g
	t.gameDirty = true
}

func (t *docTx) SetPlayer(p *game.PlayerState) {
	t.players[p.ID] = p
	t.dirty[p.ID] = true
}

// empty reports whether the transaction wrote nothing.
func (t *docTx) empty() bool {
	return !t.gameDirty && len(t.dirty) == 0
}

// encoded returns the buffered writes as JSON: the game document (nil when
// untouched) and the player documents by id.
func (t *docTx) encoded() ([]byte, map[string][]byte, error) {
	var gameRaw []byte
	if t.gameDirty {
		raw, err := json.Marshal(t.game)
		if err != nil {
			return nil, nil, fmt.Errorf("encode game %s: %w", t.gameID, err)
		}
		gameRaw = raw
	}
	players := make(map[string][]byte, len(t.dirty))
	for id := range t.dirty {
		raw, err := json.Marshal(t.players[id])
		if err != nil {
			return nil, nil, fmt.Errorf("encode player %s: %w", id, err)
		}
		players[id] = raw
	}
	return gameRaw, players, nil
}

// decodeGame turns a stored document into a GameState; nil raw means missing.
func decodeGame(gameID string, raw []byte) (*game.GameState, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: game %s", game.ErrNotFound, gameID)
	}
	var g game.GameState
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return &g, nil
}

func decodePlayer(gameID, playerID string, raw []byte) (*game.PlayerState, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: player %s in game %s", game.ErrNotFound, playerID, gameID)
	}
	var p game.PlayerState
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode player %s: %w", playerID, err)
	}
	return &p, nil
}
