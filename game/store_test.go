package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// testStore is a minimal Store that serializes transactions with a mutex and
// keeps documents as JSON, so every read hands out a private copy.
type testStore struct {
	mu      sync.Mutex
	games   map[string][]byte
	players map[string]map[string][]byte
}

func newTestStore() *testStore {
	return &testStore{
		games:   make(map[string][]byte),
		players: make(map[string]map[string][]byte),
	}
}

func (s *testStore) ReadGame(ctx context.Context, gameID string) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	var g GameState
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *testStore) ReadPlayer(ctx context.Context, gameID, playerID string) (*PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.players[gameID][playerID]
	if !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	var p PlayerState
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *testStore) Atomically(ctx context.Context, gameID string, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &testTx{store: s, gameID: gameID, players: map[string]*PlayerState{}, dirty: map[string]bool{}}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.gameDirty {
		raw, err := json.Marshal(tx.game)
		if err != nil {
			return err
		}
		s.games[gameID] = raw
	}
	for id := range tx.dirty {
		raw, err := json.Marshal(tx.players[id])
		if err != nil {
			return err
		}
		if s.players[gameID] == nil {
			s.players[gameID] = map[string][]byte{}
		}
		s.players[gameID][id] = raw
	}
	return nil
}

type testTx struct {
	store     *testStore
	gameID    string
	game      *GameState
	gameDirty bool
	players   map[string]*PlayerState
	dirty     map[string]bool
}

func (tx *testTx) Game() (*GameState, error) {
	if tx.game != nil {
		return tx.game, nil
	}
	raw, ok := tx.store.games[tx.gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %s", ErrNotFound, tx.gameID)
	}
	var g GameState
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	tx.game = &g
	return tx.game, nil
}

func (tx *testTx) Player(playerID string) (*PlayerState, error) {
	if p, ok := tx.players[playerID]; ok {
		return p, nil
	}
	raw, ok := tx.store.players[tx.gameID][playerID]
	if !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	var p PlayerState
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	tx.players[playerID] = &p
	return &p, nil
}

func (tx *testTx) SetGame(g *GameState) {
	tx.game = g
	tx.gameDirty = true
}

func (tx *testTx) SetPlayer(p *PlayerState) {
	tx.players[p.ID] = p
	tx.dirty[p.ID] = true
}
