package game

import "context"

// Store is the transactional document store holding game and player documents.
//
// Atomically runs fn against a consistent snapshot of one game's documents and
// commits every write fn made, or none of them. fn may be invoked more than once
// when a concurrent commit invalidates the snapshot, so it must not have side
// effects outside the Tx.
type Store interface {
	ReadGame(ctx context.Context, gameID string) (*GameState, error)
	ReadPlayer(ctx context.Context, gameID, playerID string) (*PlayerState, error)
	Atomically(ctx context.Context, gameID string, fn func(tx Tx) error) error
}

// Tx is the view of one game's documents inside Store.Atomically.
// Getters return ErrNotFound for missing documents and hand out private copies;
// changes become visible only through SetGame/SetPlayer and a successful commit.
type Tx interface {
	Game() (*GameState, error)
	Player(playerID string) (*PlayerState, error)
	SetGame(g *GameState)
	SetPlayer(p *PlayerState)
}

// Change announces a committed write to a game's documents.
type Change struct {
	GameID string
}

// Subscriber is the push read channel used by presentation layers.
// The returned channel is closed when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, gameID string) (<-chan Change, error)
}
