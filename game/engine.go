package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MinPlayers and MaxPlayers bound the number of seats in a game.
const (
	MinPlayers = 2
	MaxPlayers = 8
)

// GameResult is handed to a ResultSink once a game completes.
type GameResult struct {
	GameID     string
	Rounds     int
	Standings  []Standing
	FinishedAt time.Time
}

// ResultSink records finished games. Optional; called after the final commit.
type ResultSink interface {
	RecordGameResult(ctx context.Context, res GameResult) error
}

// Engine applies player actions to games held in a Store.
// It is safe for concurrent use; all coordination happens in the Store.
type Engine struct {
	store  Store
	items  ItemProvider
	sink   ResultSink
	logger *slog.Logger
	seed   func() uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithItems installs the item-card effects used in spike mode.
func WithItems(p ItemProvider) Option {
	return func(e *Engine) { e.items = p }
}

// WithResultSink installs a sink for finished games.
func WithResultSink(s ResultSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSeedSource sets where new games get their random seed when Settings.Seed is 0.
func WithSeedSource(f func() uint64) Option {
	return func(e *Engine) { e.seed = f }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.Default(),
		seed:   func() uint64 { return uint64(time.Now().UnixNano()) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's backing store.
func (e *Engine) Store() Store { return e.store }

// txResult carries what a committed transaction decided back out of Atomically.
type txResult struct {
	outcome TurnOutcome
	round   *RoundResult
	final   []Standing
	rounds  int
}

// run executes fn in one transaction and handles logging and post-commit hooks.
func (e *Engine) run(ctx context.Context, gameID, playerID, action string, fn func(tx Tx, res *txResult) error) error {
	var res txResult
	err := e.store.Atomically(ctx, gameID, func(tx Tx) error {
		res = txResult{}
		return fn(tx, &res)
	})
	if err != nil {
		e.logger.Debug("action rejected", "tag", "game", "game", gameID, "player", playerID, "action", action, "err", err)
		return err
	}
	e.logger.Debug("action applied", "tag", "game", "game", gameID, "player", playerID, "action", action)
	if res.outcome.FinalLapStarted {
		e.logger.Info("final lap started", "tag", "game", "game", gameID, "player", playerID)
	}
	if res.round != nil {
		e.logger.Info("round complete", "tag", "game", "game", gameID, "round", res.rounds, "scores", fmt.Sprint(res.round.RoundScores))
		if res.round.GameComplete {
			e.logger.Info("game complete", "tag", "game", "game", gameID, "rounds", res.rounds)
			e.recordResult(ctx, gameID, res)
		}
	}
	return nil
}

func (e *Engine) recordResult(ctx context.Context, gameID string, res txResult) {
	if e.sink == nil {
		return
	}
	result := GameResult{
		GameID:     gameID,
		Rounds:     res.rounds,
		Standings:  res.final,
		FinishedAt: time.Now(),
	}
	if err := e.sink.RecordGameResult(ctx, result); err != nil {
		e.logger.Error("recording game result", "tag", "game", "game", gameID, "err", err)
	}
}

// loadTurn loads the game and the acting player and checks that it is the actor's turn.
func loadTurn(tx Tx, playerID string) (*GameState, *PlayerState, error) {
	g, err := tx.Game()
	if err != nil {
		return nil, nil, err
	}
	if !g.IsActive(playerID) {
		return nil, nil, fmt.Errorf("%w: player %s is not in game %s", ErrNotFound, playerID, g.ID)
	}
	if g.Status != StatusPlaying {
		return nil, nil, fmt.Errorf("%w: game is %s", ErrWrongPhase, g.Status)
	}
	if g.CurrentPlayerID != playerID {
		return nil, nil, fmt.Errorf("%w: current player is %s", ErrOutOfTurn, g.CurrentPlayerID)
	}
	p, err := tx.Player(playerID)
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

func requirePhase(g *GameState, allowed ...TurnPhase) error {
	for _, ph := range allowed {
		if g.TurnPhase == ph {
			return nil
		}
	}
	return fmt.Errorf("%w: phase is %s", ErrWrongPhase, g.TurnPhase)
}

// loadPlayers returns every active player's document in turn order.
func loadPlayers(tx Tx, g *GameState) ([]*PlayerState, error) {
	players := make([]*PlayerState, 0, len(g.ActivePlayerOrder))
	for _, id := range g.ActivePlayerOrder {
		p, err := tx.Player(id)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// finishTurn records the narration, runs the turn resolver and, when the round
// ends, the scoring pass over every active player. All touched documents are
// written back to tx.
func finishTurn(tx Tx, g *GameState, actor *PlayerState, action string, res *txResult) error {
	g.LastTurnPlayerID = actor.ID
	g.LastTurnAction = action

	rng := newRand(&g.RNG)
	res.outcome = ResolveTurn(g, actor, rng)
	tx.SetPlayer(actor)

	if res.outcome.RoundComplete {
		players, err := loadPlayers(tx, g)
		if err != nil {
			return err
		}
		round := ScoreRound(players, g.EndingPlayerID, g.Settings.TargetScore)
		for i, u := range round.Updates {
			p := players[i]
			p.Grid = u.Grid
			p.Revealed = u.Revealed
			p.IsReady = false
			p.RoundScore = u.RoundScore
			p.TotalScore = u.TotalScore
			g.Cleared = append(g.Cleared, u.Cleared...)
			tx.SetPlayer(p)
		}
		g.RoundScores = round.RoundScores
		if round.GameComplete {
			g.Status = StatusGameComplete
			res.final = RankStandings(players)
		}
		res.round = &round
		res.rounds = g.RoundNumber
	}

	tx.SetGame(g)
	return nil
}

// clearColumn clears p's column at slot and accounts the removed cards on g.
func clearColumn(g *GameState, p *PlayerState, slot int) {
	g.Cleared = append(g.Cleared, ClearColumnIfMatched(&p.Grid, &p.Revealed, slot)...)
}

// clearAllColumns clears every matched column of p and accounts the removed cards on g.
func clearAllColumns(g *GameState, p *PlayerState) {
	g.Cleared = append(g.Cleared, ClearAllMatchedColumns(&p.Grid, &p.Revealed)...)
}

// Snapshot reads the game and every active player's document, in turn order.
// The reads are not transactional; use it for presentation only.
func (e *Engine) Snapshot(ctx context.Context, gameID string) (*GameState, []*PlayerState, error) {
	g, err := e.store.ReadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	players := make([]*PlayerState, 0, len(g.ActivePlayerOrder))
	for _, id := range g.ActivePlayerOrder {
		p, err := e.store.ReadPlayer(ctx, gameID, id)
		if err != nil {
			return nil, nil, err
		}
		players = append(players, p)
	}
	return g, players, nil
}

// View returns the game as seen by viewerID.
func (e *Engine) View(ctx context.Context, gameID, viewerID string) (GameStateMsg, error) {
	g, players, err := e.Snapshot(ctx, gameID)
	if err != nil {
		return GameStateMsg{}, err
	}
	return BuildStateForPlayer(g, players, viewerID), nil
}

// Standings ranks the game's players by total score, lowest first.
func (e *Engine) Standings(ctx context.Context, gameID string) ([]Standing, error) {
	_, players, err := e.Snapshot(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return RankStandings(players), nil
}
