package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"skyjo-server/game"
)

const (
	redisKeyPrefix     = "skyjo:game:"
	redisChannelPrefix = "skyjo:changes:"
	redisGameField     = "game"
	redisPlayerPrefix  = "player:"

	// DefaultRedisTTL is how long an untouched game survives in Redis.
	DefaultRedisTTL = 24 * time.Hour
)

func redisKey(gameID string) string     { return redisKeyPrefix + gameID }
func redisChannel(gameID string) string { return redisChannelPrefix + gameID }

// RedisStore keeps each game in one Redis hash: the game document under
// "game" and every player document under "player:{id}". Transactions use
// WATCH on the hash and commit with MULTI/EXEC; a concurrent write aborts the
// EXEC and the transaction is retried. Every commit publishes on
// skyjo:changes:{id}.
type RedisStore struct {
	rdb        *redis.Client
	maxRetries int
	ttl        time.Duration
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("connected to Redis", "tag", "storage", "addr", opts.Addr)
	return rdb, nil
}

// NewRedisStore wraps rdb. maxRetries <= 0 uses DefaultMaxRetries; ttl <= 0 uses DefaultRedisTTL.
func NewRedisStore(rdb *redis.Client, maxRetries int, ttl time.Duration) *RedisStore {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStore{rdb: rdb, maxRetries: maxRetries, ttl: ttl}
}

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// hget reads one hash field; a missing field yields nil, nil.
func hget(ctx context.Context, c hashGetter, key, field string) ([]byte, error) {
	raw, err := c.HGet(ctx, key, field).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget %s %s: %w", key, field, err)
	}
	return raw, nil
}

// ReadGame returns the committed game document.
func (s *RedisStore) ReadGame(ctx context.Context, gameID string) (*game.GameState, error) {
	raw, err := hget(ctx, s.rdb, redisKey(gameID), redisGameField)
	if err != nil {
		return nil, err
	}
	return decodeGame(gameID, raw)
}

// ReadPlayer returns the committed player document.
func (s *RedisStore) ReadPlayer(ctx context.Context, gameID, playerID string) (*game.PlayerState, error) {
	raw, err := hget(ctx, s.rdb, redisKey(gameID), redisPlayerPrefix+playerID)
	if err != nil {
		return nil, err
	}
	return decodePlayer(gameID, playerID, raw)
}

// Atomically runs fn under WATCH and commits its writes with MULTI/EXEC.
func (s *RedisStore) Atomically(ctx context.Context, gameID string, fn func(tx game.Tx) error) error {
	key := redisKey(gameID)
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.rdb.Watch(ctx, func(rtx *redis.Tx) error {
			tx := newDocTx(gameID,
				func() ([]byte, error) { return hget(ctx, rtx, key, redisGameField) },
				func(playerID string) ([]byte, error) { return hget(ctx, rtx, key, redisPlayerPrefix+playerID) },
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
			_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if gameRaw != nil {
					pipe.HSet(ctx, key, redisGameField, gameRaw)
				}
				for id, raw := range players {
					pipe.HSet(ctx, key, redisPlayerPrefix+id, raw)
				}
				pipe.Expire(ctx, key, s.ttl)
				pipe.Publish(ctx, redisChannel(gameID), gameID)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			slog.Debug("redis transaction conflict, retrying", "tag", "storage", "game", gameID, "attempt", attempt+1)
			continue
		}
		return err
	}
	return fmt.Errorf("%w: game %s after %d attempts", game.ErrConflict, gameID, s.maxRetries)
}

// Subscribe implements game.Subscriber over Redis pub/sub.
func (s *RedisStore) Subscribe(ctx context.Context, gameID string) (<-chan game.Change, error) {
	sub := s.rdb.Subscribe(ctx, redisChannel(gameID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", gameID, err)
	}
	out := make(chan game.Change, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				id := strings.TrimPrefix(msg.Channel, redisChannelPrefix)
				select {
				case out <- game.Change{GameID: id}:
				default:
				}
			}
		}
	}()
	return out, nil
}

// DeleteGame removes a game's hash.
func (s *RedisStore) DeleteGame(ctx context.Context, gameID string) error {
	return s.rdb.Del(ctx, redisKey(gameID)).Err()
}
