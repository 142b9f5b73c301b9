package matchmaking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"skyjo-server/game"
)

// gameDeleter is implemented by every storage backend.
type gameDeleter interface {
	DeleteGame(ctx context.Context, gameID string) error
}

// reapWhenDone waits for gameID to finish, keeps it readable for
// GameTTLMinutes, then deletes it and forgets it for rejoin.
func (m *Matchmaker) reapWhenDone(ctx context.Context, gameID string) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	changes, err := m.changes.Subscribe(watchCtx, gameID)
	if err != nil {
		slog.Warn("reaper subscribe failed", "tag", "matchmaking", "game", gameID, "error", err)
		return
	}

	for {
		g, err := m.engine.Store().ReadGame(ctx, gameID)
		if errors.Is(err, game.ErrNotFound) {
			m.forget(gameID)
			return
		}
		if err == nil && g.Status == game.StatusGameComplete {
			break
		}
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
		}
	}
	cancel()

	if ttl := time.Duration(m.config.GameTTLMinutes) * time.Minute; ttl > 0 {
		t := time.NewTimer(ttl)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
	m.forget(gameID)
	if d, ok := m.engine.Store().(gameDeleter); ok {
		if err := d.DeleteGame(context.WithoutCancel(ctx), gameID); err != nil {
			slog.Warn("delete finished game", "tag", "matchmaking", "game", gameID, "error", err)
			return
		}
		slog.Info("finished game deleted", "tag", "matchmaking", "game", gameID)
	}
}

// forget drops every rejoin pointer to gameID.
func (m *Matchmaker) forget(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for user, id := range m.active {
		if id == gameID {
			delete(m.active, user)
		}
	}
}
