package storage

import (
	"context"
	"sync"

	"skyjo-server/game"
)

// Broker fans committed-change notifications out to in-process subscribers.
// Delivery is best effort and coalescing: a subscriber whose buffer is full
// misses the notification but will still see the latest documents on its next read.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan game.Change]struct{}
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan game.Change]struct{})}
}

// Subscribe returns a channel receiving a Change for every commit to gameID.
// The channel is closed once ctx is done.
func (b *Broker) Subscribe(ctx context.Context, gameID string) (<-chan game.Change, error) {
	ch := make(chan game.Change, 8)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan game.Change]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[gameID], ch)
		if len(b.subs[gameID]) == 0 {
			delete(b.subs, gameID)
		}
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// Publish notifies every subscriber of gameID without blocking.
func (b *Broker) Publish(gameID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- game.Change{GameID: gameID}:
		default:
		}
	}
}

// subscribers returns how many channels listen on gameID.
func (b *Broker) subscribers(gameID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[gameID])
}
