package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"skyjo-server/game"
)

const notifyChannel = "skyjo_changes"

const createTableSQL = `
CREATE TABLE IF NOT EXISTS skyjo_game (
	id         TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS skyjo_player (
	game_id   TEXT NOT NULL,
	player_id TEXT NOT NULL,
	doc       JSONB NOT NULL,
	PRIMARY KEY (game_id, player_id)
);
CREATE TABLE IF NOT EXISTS game_history (
	id        TEXT PRIMARY KEY,
	game_id   TEXT NOT NULL,
	played_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	rounds    INT NOT NULL
);
CREATE TABLE IF NOT EXISTS game_history_player (
	history_id   TEXT NOT NULL REFERENCES game_history(id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL,
	display_name TEXT NOT NULL,
	total_score  INT NOT NULL,
	rank         INT NOT NULL,
	PRIMARY KEY (history_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_game_history_player_user ON game_history_player(user_id);
CREATE TABLE IF NOT EXISTS player_stats (
	user_id      TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	games        INT NOT NULL DEFAULT 0,
	wins         INT NOT NULL DEFAULT 0,
	best_score   INT,
	total_points BIGINT NOT NULL DEFAULT 0,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_player_stats_wins ON player_stats(wins DESC);
`

// PostgresStore keeps game and player documents as JSONB rows and records
// finished games. Writers serialize on the game row (SELECT ... FOR UPDATE)
// inside serializable transactions; serialization failures are retried.
// Commits NOTIFY skyjo_changes and a LISTEN loop feeds the local Broker.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxRetries int
	broker     *Broker
	cancel     context.CancelFunc
}

// NewPostgresStore connects to Postgres, creates the tables and starts listening for changes.
// If databaseURL is empty, NewPostgresStore returns (nil, nil) and no persistence occurs.
func NewPostgresStore(ctx context.Context, databaseURL string, maxRetries int) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	for _, q := range strings.Split(createTableSQL, ";") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, err := pool.Exec(ctx, q); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	lctx, cancel := context.WithCancel(context.Background())
	s := &PostgresStore{pool: pool, maxRetries: maxRetries, broker: NewBroker(), cancel: cancel}
	go s.listen(lctx)
	slog.Info("connected to Postgres", "tag", "storage")
	return s, nil
}

// Close stops the listener and closes the connection pool.
func (s *PostgresStore) Close() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func scanDoc(row pgx.Row) ([]byte, error) {
	var raw []byte
	err := row.Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return raw, err
}

// ReadGame returns the committed game document.
func (s *PostgresStore) ReadGame(ctx context.Context, gameID string) (*game.GameState, error) {
	raw, err := scanDoc(s.pool.QueryRow(ctx, `SELECT doc FROM skyjo_game WHERE id = $1`, gameID))
	if err != nil {
		return nil, err
	}
	return decodeGame(gameID, raw)
}

// ReadPlayer returns the committed player document.
func (s *PostgresStore) ReadPlayer(ctx context.Context, gameID, playerID string) (*game.PlayerState, error) {
	raw, err := scanDoc(s.pool.QueryRow(ctx, `SELECT doc FROM skyjo_player WHERE game_id = $1 AND player_id = $2`, gameID, playerID))
	if err != nil {
		return nil, err
	}
	return decodePlayer(gameID, playerID, raw)
}

// retryable reports whether err is a serialization failure, deadlock or a
// lost race on inserting the same row.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505":
		return true
	default:
		return false
	}
}

// Atomically runs fn inside a serializable transaction holding the game row lock.
func (s *PostgresStore) Atomically(ctx context.Context, gameID string, fn func(tx game.Tx) error) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.attempt(ctx, gameID, fn)
		if err == nil || !retryable(err) {
			return err
		}
		slog.Debug("postgres transaction conflict, retrying", "tag", "storage", "game", gameID, "attempt", attempt+1, "err", err)
		time.Sleep(time.Duration(attempt+1) * 5 * time.Millisecond)
	}
	return fmt.Errorf("%w: game %s after %d attempts", game.ErrConflict, gameID, s.maxRetries)
}

func (s *PostgresStore) attempt(ctx context.Context, gameID string, fn func(tx game.Tx) error) error {
	ptx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer ptx.Rollback(ctx)

	tx := newDocTx(gameID,
		func() ([]byte, error) {
			return scanDoc(ptx.QueryRow(ctx, `SELECT doc FROM skyjo_game WHERE id = $1 FOR UPDATE`, gameID))
		},
		func(playerID string) ([]byte, error) {
			return scanDoc(ptx.QueryRow(ctx, `SELECT doc FROM skyjo_player WHERE game_id = $1 AND player_id = $2`, gameID, playerID))
		},
	)
	if err := fn(tx); err != nil {
		return err
	}
	if tx.empty() {
		return ptx.Commit(ctx)
	}
	gameRaw, players, err := tx.encoded()
	if err != nil {
		return err
	}
	if gameRaw != nil {
		_, err := ptx.Exec(ctx, `
			INSERT INTO skyjo_game (id, doc) VALUES ($1, $2::jsonb)
			ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
			gameID, string(gameRaw))
		if err != nil {
			return err
		}
	}
	for id, raw := range players {
		_, err := ptx.Exec(ctx, `
			INSERT INTO skyjo_player (game_id, player_id, doc) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (game_id, player_id) DO UPDATE SET doc = EXCLUDED.doc`,
			gameID, id, string(raw))
		if err != nil {
			return err
		}
	}
	if _, err := ptx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, gameID); err != nil {
		return err
	}
	return ptx.Commit(ctx)
}

// Subscribe implements game.Subscriber; notifications arrive through LISTEN.
func (s *PostgresStore) Subscribe(ctx context.Context, gameID string) (<-chan game.Change, error) {
	return s.broker.Subscribe(ctx, gameID)
}

// listen holds one pooled connection on LISTEN skyjo_changes and republishes
// every notification on the broker, reconnecting after errors.
func (s *PostgresStore) listen(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.listenOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("postgres listener failed, reconnecting", "tag", "storage", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *PostgresStore) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.broker.Publish(n.Payload)
	}
}

// DeleteGame removes a game's documents.
func (s *PostgresStore) DeleteGame(ctx context.Context, gameID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM skyjo_player WHERE game_id = $1`, gameID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM skyjo_game WHERE id = $1`, gameID)
	return err
}
