package storage

import (
	"context"

	"skyjo-server/game"
)

// GameStore is a game.Store whose commits can be observed.
type GameStore interface {
	game.Store
	game.Subscriber
	DeleteGame(ctx context.Context, gameID string) error
}

// HistoryStore abstracts persistence for finished games and the leaderboard.
// Implementations can be swapped for testing (mocks) or different backends.
type HistoryStore interface {
	// Read
	ListByUserID(ctx context.Context, userID string) ([]GameRecord, error)
	ListLeaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error)
	GetLeaderboardEntryByUserID(ctx context.Context, userID string) (*LeaderboardEntry, error)

	// Write
	RecordGameResult(ctx context.Context, res game.GameResult) error

	// Lifecycle
	Close()
}

// Compile-time checks.
var (
	_ GameStore    = (*MemoryStore)(nil)
	_ GameStore    = (*RedisStore)(nil)
	_ GameStore    = (*PostgresStore)(nil)
	_ HistoryStore = (*PostgresStore)(nil)
)
