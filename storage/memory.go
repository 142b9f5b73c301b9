package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"skyjo-server/game"
)

// DefaultMaxRetries bounds optimistic transaction attempts.
const DefaultMaxRetries = 10

type memGame struct {
	version uint64
	game    []byte
	players map[string][]byte
}

// MemoryStore is an in-process game.Store. Documents are kept as JSON and
// every game carries a version; a transaction commits only if the version it
// started from is still current, otherwise it is retried.
type MemoryStore struct {
	mu         sync.Mutex
	games      map[string]*memGame
	maxRetries int
	broker     *Broker
}

// NewMemoryStore creates an empty MemoryStore. maxRetries <= 0 uses DefaultMaxRetries.
func NewMemoryStore(maxRetries int) *MemoryStore {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &MemoryStore{
		games:      make(map[string]*memGame),
		maxRetries: maxRetries,
		broker:     NewBroker(),
	}
}

// ReadGame returns a copy of the committed game document.
func (s *MemoryStore) ReadGame(ctx context.Context, gameID string) (*game.GameState, error) {
	return decodeGame(gameID, s.snapshot(gameID).game)
}

// ReadPlayer returns a copy of the committed player document.
func (s *MemoryStore) ReadPlayer(ctx context.Context, gameID, playerID string) (*game.PlayerState, error) {
	return decodePlayer(gameID, playerID, s.snapshot(gameID).players[playerID])
}

// snapshot copies a game's committed documents and version under one lock.
// Commits replace byte slices rather than mutate them, so sharing them is safe.
func (s *MemoryStore) snapshot(gameID string) memGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		return memGame{}
	}
	players := make(map[string][]byte, len(mg.players))
	for id, raw := range mg.players {
		players[id] = raw
	}
	return memGame{version: mg.version, game: mg.game, players: players}
}

// Atomically runs fn with optimistic concurrency control.
func (s *MemoryStore) Atomically(ctx context.Context, gameID string, fn func(tx game.Tx) error) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := s.snapshot(gameID)
		start := snap.version
		tx := newDocTx(gameID,
			func() ([]byte, error) { return snap.game, nil },
			func(playerID string) ([]byte, error) { return snap.players[playerID], nil },
		)
		if err := fn(tx); err != nil {
			return err
		}
		if tx.empty() {
			return nil
		}
		gameRaw, players, err := tx.encoded()
		if err != nil {
			return err
		}
		if s.commit(gameID, start, gameRaw, players) {
			s.broker.Publish(gameID)
			return nil
		}
		slog.Debug("memory transaction conflict, retrying", "tag", "storage", "game", gameID, "attempt", attempt+1)
	}
	return fmt.Errorf("%w: game %s after %d attempts", game.ErrConflict, gameID, s.maxRetries)
}

func (s *MemoryStore) commit(gameID string, start uint64, gameRaw []byte, players map[string][]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	mg, ok := s.games[gameID]
	if !ok {
		if start != 0 {
			return false
		}
		mg = &memGame{players: make(map[string][]byte)}
		s.games[gameID] = mg
	}
	if mg.version != start {
		return false
	}
	if gameRaw != nil {
		mg.game = gameRaw
	}
	for id, raw := range players {
		mg.players[id] = raw
	}
	mg.version++
	return true
}

// Subscribe implements game.Subscriber.
func (s *MemoryStore) Subscribe(ctx context.Context, gameID string) (<-chan game.Change, error) {
	return s.broker.Subscribe(ctx, gameID)
}

// DeleteGame drops a finished game's documents.
func (s *MemoryStore) DeleteGame(ctx context.Context, gameID string) error {
	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()
	return nil
}
