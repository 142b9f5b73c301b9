package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"skyjo-server/game"
)

// BotUserIDPrefix marks seats played by the server's bots.
const BotUserIDPrefix = "ai:"

// PlayerResult is one seat of a finished game.
type PlayerResult struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	TotalScore  int    `json:"total_score"`
	Rank        int    `json:"rank"`
	IsBot       bool   `json:"is_bot"`
}

// GameRecord is a single finished game returned for the history API.
type GameRecord struct {
	ID       string         `json:"id"`
	GameID   string         `json:"game_id"`
	PlayedAt string         `json:"played_at"` // ISO8601
	Rounds   int            `json:"rounds"`
	Players  []PlayerResult `json:"players"`
	YourRank *int           `json:"your_rank,omitempty"` // set by ListByUserID
}

// LeaderboardEntry is a single row for the leaderboard API.
type LeaderboardEntry struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Games       int     `json:"games"`
	Wins        int     `json:"wins"`
	BestScore   *int    `json:"best_score"`
	AvgScore    float64 `json:"avg_score"`
	IsBot       bool    `json:"is_bot"`

	// IsCurrentUser is set by the API for the caller's own row.
	IsCurrentUser bool `json:"is_current_user,omitempty"`
}

// RecordGameResult stores a finished game and updates every human player's stats.
// It satisfies game.ResultSink.
func (s *PostgresStore) RecordGameResult(ctx context.Context, res game.GameResult) error {
	if s == nil || s.pool == nil {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	historyID := uuid.NewString()
	finished := res.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	if _, err := tx.Exec(ctx, `INSERT INTO game_history (id, game_id, played_at, rounds) VALUES ($1, $2, $3, $4)`,
		historyID, res.GameID, finished, res.Rounds); err != nil {
		return err
	}
	for _, st := range res.Standings {
		if _, err := tx.Exec(ctx, `
			INSERT INTO game_history_player (history_id, user_id, display_name, total_score, rank)
			VALUES ($1, $2, $3, $4, $5)`,
			historyID, st.PlayerID, st.Name, st.TotalScore, st.Rank); err != nil {
			return err
		}
		win := 0
		if st.Rank == 1 {
			win = 1
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO player_stats (user_id, display_name, games, wins, best_score, total_points)
			VALUES ($1, $2, 1, $3, $4, $4)
			ON CONFLICT (user_id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				games = player_stats.games + 1,
				wins = player_stats.wins + EXCLUDED.wins,
				best_score = LEAST(COALESCE(player_stats.best_score, EXCLUDED.best_score), EXCLUDED.best_score),
				total_points = player_stats.total_points + EXCLUDED.total_points,
				updated_at = now()`,
			st.PlayerID, st.Name, win, st.TotalScore); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListByUserID returns all games where the user played, newest first.
// Each record has your_rank set so the client can highlight the user's row.
func (s *PostgresStore) ListByUserID(ctx context.Context, userID string) ([]GameRecord, error) {
	if s == nil || s.pool == nil {
		return []GameRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT h.id, h.game_id, h.played_at, h.rounds, p.user_id, p.display_name, p.total_score, p.rank
		FROM game_history h
		JOIN game_history_player p ON p.history_id = h.id
		WHERE h.id IN (SELECT history_id FROM game_history_player WHERE user_id = $1)
		ORDER BY h.played_at DESC, h.id, p.rank, p.display_name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRecord{}
	for rows.Next() {
		var (
			id, gameID string
			playedAt   time.Time
			rounds     int
			pr         PlayerResult
		)
		if err := rows.Scan(&id, &gameID, &playedAt, &rounds, &pr.UserID, &pr.DisplayName, &pr.TotalScore, &pr.Rank); err != nil {
			return nil, err
		}
		pr.IsBot = strings.HasPrefix(pr.UserID, BotUserIDPrefix)
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, GameRecord{
				ID:       id,
				GameID:   gameID,
				PlayedAt: playedAt.UTC().Format(time.RFC3339),
				Rounds:   rounds,
			})
		}
		rec := &out[len(out)-1]
		rec.Players = append(rec.Players, pr)
		if pr.UserID == userID {
			rank := pr.Rank
			rec.YourRank = &rank
		}
	}
	return out, rows.Err()
}

// ListLeaderboard returns entries ordered by wins, then average score, with optional limit and offset.
func (s *PostgresStore) ListLeaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error) {
	if s == nil || s.pool == nil {
		return []LeaderboardEntry{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, display_name, games, wins, best_score,
			CASE WHEN games > 0 THEN total_points::float8 / games ELSE 0 END AS avg_score
		FROM player_stats
		ORDER BY wins DESC, avg_score ASC, user_id
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Games, &e.Wins, &e.BestScore, &e.AvgScore); err != nil {
			return nil, err
		}
		e.IsBot = strings.HasPrefix(e.UserID, BotUserIDPrefix)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetLeaderboardEntryByUserID returns one player's entry, or (nil, nil) if not found.
func (s *PostgresStore) GetLeaderboardEntryByUserID(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	if s == nil || s.pool == nil || userID == "" {
		return nil, nil
	}
	var e LeaderboardEntry
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, display_name, games, wins, best_score,
			CASE WHEN games > 0 THEN total_points::float8 / games ELSE 0 END
		FROM player_stats
		WHERE user_id = $1`,
		userID).Scan(&e.UserID, &e.DisplayName, &e.Games, &e.Wins, &e.BestScore, &e.AvgScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.IsBot = strings.HasPrefix(e.UserID, BotUserIDPrefix)
	return &e, nil
}
