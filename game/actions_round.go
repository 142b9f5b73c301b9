package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CreateGame seats the players, deals round 1 and stores the new game.
// seats gives the turn order; hostID must be one of them.
func (e *Engine) CreateGame(ctx context.Context, gameID, hostID string, seats []Seat, settings Settings) error {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return fmt.Errorf("%w: need %d-%d players, got %d", ErrPreconditionNotMet, MinPlayers, MaxPlayers, len(seats))
	}
	order := make([]string, 0, len(seats))
	names := make(map[string]string, len(seats))
	for _, s := range seats {
		if s.ID == "" {
			return fmt.Errorf("%w: seat without player id", ErrPreconditionNotMet)
		}
		if _, dup := names[s.ID]; dup {
			return fmt.Errorf("%w: player %s seated twice", ErrPreconditionNotMet, s.ID)
		}
		order = append(order, s.ID)
		names[s.ID] = s.Name
	}
	if _, ok := names[hostID]; !ok {
		return fmt.Errorf("%w: host %s is not seated", ErrPreconditionNotMet, hostID)
	}
	if settings.TargetScore <= 0 {
		settings.TargetScore = DefaultTargetScore
	}
	if settings.InitialReveals < 0 || settings.InitialReveals >= GridSize {
		return fmt.Errorf("%w: initial reveals must be in [0, %d)", ErrPreconditionNotMet, GridSize)
	}
	if settings.ItemDensity == "" {
		settings.ItemDensity = DensityNone
	}
	if !settings.ItemDensity.Valid() {
		return fmt.Errorf("%w: unknown item density %q", ErrPreconditionNotMet, settings.ItemDensity)
	}
	seed := settings.Seed
	if seed == 0 {
		seed = e.seed()
	}

	err := e.run(ctx, gameID, hostID, "create_game", func(tx Tx, res *txResult) error {
		if _, err := tx.Game(); err == nil {
			return fmt.Errorf("%w: game %s already exists", ErrPreconditionNotMet, gameID)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		g := &GameState{
			ID:                gameID,
			HostID:            hostID,
			ActivePlayerOrder: append([]string(nil), order...),
			Names:             names,
			Settings:          settings,
			RNG:               seed,
		}
		players := make([]*PlayerState, 0, len(seats))
		for _, s := range seats {
			players = append(players, &PlayerState{GameID: gameID, ID: s.ID, Name: s.Name})
		}
		dealRound(g, players)
		for _, p := range players {
			tx.SetPlayer(p)
		}
		tx.SetGame(g)
		return nil
	})
	if err == nil {
		e.logger.Info("game created", "tag", "game", "game", gameID, "players", len(seats), "spike", settings.SpikeMode)
	}
	return err
}

// StartNextRound deals a fresh round once every player is ready. Host only.
func (e *Engine) StartNextRound(ctx context.Context, gameID, playerID string) error {
	return e.run(ctx, gameID, playerID, "start_next_round", func(tx Tx, res *txResult) error {
		g, err := tx.Game()
		if err != nil {
			return err
		}
		if !g.IsActive(playerID) {
			return fmt.Errorf("%w: player %s is not in game %s", ErrNotFound, playerID, g.ID)
		}
		if g.Status != StatusRoundComplete {
			return fmt.Errorf("%w: game is %s", ErrWrongPhase, g.Status)
		}
		if playerID != g.HostID {
			return fmt.Errorf("%w: only the host can start the next round", ErrPermissionDenied)
		}
		players, err := loadPlayers(tx, g)
		if err != nil {
			return err
		}
		var waiting []string
		for _, p := range players {
			if !p.IsReady {
				waiting = append(waiting, p.ID)
			}
		}
		if len(waiting) > 0 {
			return fmt.Errorf("%w: waiting for %s", ErrPreconditionNotMet, strings.Join(waiting, ", "))
		}

		g.PreviousRoundScores = g.RoundScores
		dealRound(g, players)
		g.LastTurnPlayerID = playerID
		g.LastTurnAction = fmt.Sprintf("started round %d", g.RoundNumber)
		for _, p := range players {
			tx.SetPlayer(p)
		}
		tx.SetGame(g)
		return nil
	})
}

// ReadyForNextRound marks the actor ready between rounds.
func (e *Engine) ReadyForNextRound(ctx context.Context, gameID, playerID string) error {
	return e.run(ctx, gameID, playerID, "ready_for_next_round", func(tx Tx, res *txResult) error {
		g, err := tx.Game()
		if err != nil {
			return err
		}
		if !g.IsActive(playerID) {
			return fmt.Errorf("%w: player %s is not in game %s", ErrNotFound, playerID, g.ID)
		}
		if g.Status != StatusRoundComplete {
			return fmt.Errorf("%w: game is %s", ErrWrongPhase, g.Status)
		}
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		p.IsReady = true
		tx.SetPlayer(p)
		return nil
	})
}

// dealRound builds and shuffles a new deck, deals 12 number cards to every
// player, flips the first discard, mixes in item cards for spike mode and
// resets the per-round state.
func dealRound(g *GameState, players []*PlayerState) {
	rng := newRand(&g.RNG)

	deck := CreateDeck()
	Shuffle(deck, rng)
	for _, p := range players {
		for i := range p.Grid {
			var c Card
			deck, c, _ = popCard(deck)
			p.Grid[i] = c
		}
		p.Revealed = Revealed{}
		for _, slot := range pickSlots(rng, g.Settings.InitialReveals) {
			p.Revealed[slot] = true
		}
		p.clearPendingDraw()
		p.IsReady = false
		p.RoundScore = 0
	}
	var first Card
	deck, first, _ = popCard(deck)
	g.Discard = []Card{first}
	if g.Settings.SpikeMode {
		deck = append(deck, CreateItemCards(g.Settings.ItemDensity)...)
		Shuffle(deck, rng)
	}
	g.Deck = deck

	g.Cleared = nil
	g.Overwritten = nil
	g.Conjured = nil
	g.Status = StatusPlaying
	g.TurnPhase = PhaseChooseDraw
	g.EndingPlayerID = ""
	g.FinalTurnRemainingIDs = nil
	g.SelectedDiscardPlayerID = ""
	g.FrozenPlayerIDs = nil
	g.RoundScores = map[string]int{}
	g.RoundNumber++
	g.CurrentPlayerID = startingPlayer(g, players)
}

// startingPlayer picks who opens a round: the highest previous round score, or
// in round 1 the highest sum of initially revealed cards. Ties go to turn order.
func startingPlayer(g *GameState, players []*PlayerState) string {
	best := ""
	bestScore := 0
	for _, p := range players {
		var s int
		if len(g.PreviousRoundScores) > 0 {
			s = g.PreviousRoundScores[p.ID]
		} else {
			for i, c := range p.Grid {
				if p.Revealed[i] {
					s += c.Value()
				}
			}
		}
		if best == "" || s > bestScore {
			best, bestScore = p.ID, s
		}
	}
	return best
}

// pickSlots returns n distinct random slot indices.
func pickSlots(rng Rand, n int) []int {
	idx := make([]int, GridSize)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < n && i < GridSize; i++ {
		j := i + intn(rng, GridSize-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	if n > GridSize {
		n = GridSize
	}
	return idx[:n]
}
