package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"skyjo-server/ai"
	"skyjo-server/config"
	"skyjo-server/game"
	"skyjo-server/matcherrors"
	"skyjo-server/ws"
	"skyjo-server/wsutil"
)

// botBuffer is the game_state backlog kept for each bot seat.
const botBuffer = 64

// Matchmaker manages the queue of players waiting for a match.
type Matchmaker struct {
	queue   chan *ws.Client
	leave   chan *ws.Client
	config  *config.Config
	engine  *game.Engine
	changes game.Subscriber

	mu     sync.Mutex
	active map[string]string // user id -> most recent game id
	rng    *rand.Rand
}

// NewMatchmaker creates a new Matchmaker that creates games on eng and
// follows them through changes.
func NewMatchmaker(cfg *config.Config, eng *game.Engine, changes game.Subscriber) *Matchmaker {
	return &Matchmaker{
		queue:   make(chan *ws.Client, 100),
		leave:   make(chan *ws.Client, 100),
		config:  cfg,
		engine:  eng,
		changes: changes,
		active:  make(map[string]string),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Enqueue adds a client to the matchmaking queue.
func (m *Matchmaker) Enqueue(c *ws.Client) {
	m.queue <- c
}

// LeaveQueue removes a client from the queue if it is still waiting.
func (m *Matchmaker) LeaveQueue(c *ws.Client) {
	m.leave <- c
}

// seats is the clamped number of seats per game.
func (m *Matchmaker) seats() int {
	n := m.config.PlayersPerGame
	if n < game.MinPlayers {
		n = game.MinPlayers
	}
	if n > game.MaxPlayers {
		n = game.MaxPlayers
	}
	return n
}

// Run is the matchmaker's main loop. It groups queued clients into games of
// PlayersPerGame seats. When the oldest waiter has waited AIPairTimeoutSec,
// the remaining seats are filled with bots. Should be run as a goroutine.
func (m *Matchmaker) Run(ctx context.Context) {
	var waiting []*ws.Client
	var timer *time.Timer
	var timeout <-chan time.Time

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timeout = nil, nil
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-m.queue:
			if w := queued(waiting, c); w != nil {
				if w != c {
					c.LeftQueue()
				}
				wsutil.SafeSend(c.Send, errorMsg(matcherrors.ErrAlreadyQueued))
				continue
			}
			waiting = append(waiting, c)
			for n := m.seats(); len(waiting) >= n; waiting = waiting[n:] {
				m.startGame(ctx, waiting[:n], 0)
			}
			if len(waiting) == 0 {
				stopTimer()
			} else if timer == nil && len(m.config.AIProfiles) > 0 {
				timer = time.NewTimer(time.Duration(m.config.AIPairTimeoutSec) * time.Second)
				timeout = timer.C
			}

		case c := <-m.leave:
			for i, w := range waiting {
				if w == c {
					waiting = append(waiting[:i], waiting[i+1:]...)
					c.LeftQueue()
					break
				}
			}
			if len(waiting) == 0 {
				stopTimer()
			}

		case <-timeout:
			timer, timeout = nil, nil
			if len(waiting) > 0 {
				m.startGame(ctx, waiting, m.seats()-len(waiting))
				waiting = nil
			}
		}
	}
}

// queued returns the waiting client that c duplicates, if any.
func queued(waiting []*ws.Client, c *ws.Client) *ws.Client {
	for _, w := range waiting {
		if w == c || w.UserID == c.UserID {
			return w
		}
	}
	return nil
}

// startGame creates a game for humans plus bots bot seats, attaches every
// client and starts the bots.
func (m *Matchmaker) startGame(ctx context.Context, humans []*ws.Client, bots int) {
	gameID := uuid.NewString()
	seats := make([]game.Seat, 0, len(humans)+bots)
	info := make([]ws.SeatInfo, 0, len(humans)+bots)
	for _, c := range humans {
		seats = append(seats, game.Seat{ID: c.UserID, Name: c.Name})
		info = append(info, ws.SeatInfo{ID: c.UserID, Name: c.Name})
	}
	profiles := make(map[string]*config.AIParams, bots)
	for i := 0; i < bots; i++ {
		p := m.pickProfile()
		id := ai.NewBotID()
		profiles[id] = p
		seats = append(seats, game.Seat{ID: id, Name: p.Name})
		info = append(info, ws.SeatInfo{ID: id, Name: p.Name, IsBot: true})
	}

	settings := game.Settings{
		SpikeMode:      m.config.SpikeMode,
		ItemDensity:    game.ItemDensity(m.config.ItemDensity),
		TargetScore:    m.config.TargetScore,
		InitialReveals: m.config.InitialReveals,
	}
	hostID := humans[0].UserID
	if err := m.engine.CreateGame(ctx, gameID, hostID, seats, settings); err != nil {
		slog.Error("failed to create game", "tag", "matchmaking", "game", gameID, "error", err)
		for _, c := range humans {
			c.LeftQueue()
			wsutil.SafeSend(c.Send, errorMsg(err))
		}
		return
	}
	slog.Info("match created", "tag", "matchmaking", "game", gameID, "humans", len(humans), "bots", bots)

	m.mu.Lock()
	for _, c := range humans {
		m.active[c.UserID] = gameID
	}
	m.mu.Unlock()

	for _, c := range humans {
		watchCtx := c.JoinGame(gameID)
		wsutil.SafeSend(c.Send, marshal(ws.MatchFoundMsg{
			Type:      "match_found",
			GameID:    gameID,
			You:       c.UserID,
			HostID:    hostID,
			Players:   info,
			SpikeMode: settings.SpikeMode,
		}))
		go ws.WatchGame(watchCtx, m.engine, m.changes, gameID, c.UserID, c.Send)
	}
	for id, p := range profiles {
		m.startBot(ctx, gameID, id, p)
	}
	go m.reapWhenDone(ctx, gameID)
}

func (m *Matchmaker) startBot(ctx context.Context, gameID, botID string, params *config.AIParams) {
	botCtx, cancel := context.WithCancel(ctx)
	updates := make(chan []byte, botBuffer)
	go func() {
		ws.WatchGame(botCtx, m.engine, m.changes, gameID, botID, updates)
		close(updates)
	}()
	go func() {
		defer cancel()
		ai.Run(botCtx, updates, m.engine, gameID, botID, params)
	}()
}

func (m *Matchmaker) pickProfile() *config.AIParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.config.AIProfiles[m.rng.Intn(len(m.config.AIProfiles))]
	return &p
}

// Rejoin attaches c to gameID if c's user holds a seat in it and the game is not over.
func (m *Matchmaker) Rejoin(ctx context.Context, c *ws.Client, gameID string) error {
	g, err := m.engine.Store().ReadGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			return matcherrors.ErrGameNotFound
		}
		return err
	}
	if !g.IsActive(c.UserID) {
		return matcherrors.ErrNotSeated
	}
	if g.Status == game.StatusGameComplete {
		return matcherrors.ErrGameFinished
	}
	m.mu.Lock()
	m.active[c.UserID] = gameID
	m.mu.Unlock()

	watchCtx := c.JoinGame(gameID)
	go ws.WatchGame(watchCtx, m.engine, m.changes, gameID, c.UserID, c.Send)
	slog.Info("player rejoined", "tag", "matchmaking", "game", gameID, "user", c.UserID)
	return nil
}

// RejoinByUser attaches c to its user's most recent unfinished game.
func (m *Matchmaker) RejoinByUser(ctx context.Context, c *ws.Client) (string, error) {
	m.mu.Lock()
	gameID, ok := m.active[c.UserID]
	m.mu.Unlock()
	if !ok {
		return "", matcherrors.ErrNoActiveGame
	}
	err := m.Rejoin(ctx, c, gameID)
	if errors.Is(err, matcherrors.ErrGameFinished) || errors.Is(err, matcherrors.ErrGameNotFound) {
		m.mu.Lock()
		if m.active[c.UserID] == gameID {
			delete(m.active, c.UserID)
		}
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %v", matcherrors.ErrNoActiveGame, err)
	}
	if err != nil {
		return "", err
	}
	return gameID, nil
}
