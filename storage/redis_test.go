package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyjo-server/game"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb, 0, 0), mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	storeSuite(t, s)
}

func TestRedisStore_Layout(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Atomically(ctx, "g7", func(tx game.Tx) error {
		tx.SetGame(&game.GameState{ID: "g7"})
		tx.SetPlayer(&game.PlayerState{GameID: "g7", ID: "p1"})
		return nil
	}))

	assert.True(t, mr.Exists("skyjo:game:g7"))
	fields, err := mr.HKeys("skyjo:game:g7")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"game", "player:p1"}, fields)
	assert.Greater(t, mr.TTL("skyjo:game:g7").Seconds(), 0.0)
}

func TestRedisStore_EngineRoundTrip(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()
	e := game.NewEngine(s)

	seats := []game.Seat{{ID: "a", Name: "Ann"}, {ID: "b", Name: "Bob"}}
	require.NoError(t, e.CreateGame(ctx, "g1", "a", seats, game.Settings{Seed: 9}))

	g, err := s.ReadGame(ctx, "g1")
	require.NoError(t, err)
	cur := g.CurrentPlayerID
	require.NoError(t, e.DrawFromDeck(ctx, "g1", cur))

	p, err := s.ReadPlayer(ctx, "g1", cur)
	require.NoError(t, err)
	assert.True(t, p.HasPendingDraw())
	assert.Len(t, p.Grid, game.GridSize)
}
