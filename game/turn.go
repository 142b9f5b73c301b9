package game

// TurnOutcome reports what ResolveTurn decided.
type TurnOutcome struct {
	FinalLapStarted bool
	RoundComplete   bool
	// Skipped lists frozen players passed over, in order.
	Skipped    []string
	Reshuffled bool
}

// ResolveTurn is called after every grid-mutating action that ends actor's turn.
// It tracks the final lap, decides whether the round is over and otherwise hands
// the turn to the next player in order, refilling the deck if it ran out.
// Scoring is left to the caller when RoundComplete is set.
func ResolveTurn(g *GameState, actor *PlayerState, rng Rand) TurnOutcome {
	var out TurnOutcome

	if !g.InFinalLap() {
		if IsFullyRevealed(actor.Revealed) {
			g.EndingPlayerID = actor.ID
			g.FinalTurnRemainingIDs = removeID(g.ActivePlayerOrder, actor.ID)
			out.FinalLapStarted = true
		}
	} else {
		g.FinalTurnRemainingIDs = removeID(g.FinalTurnRemainingIDs, actor.ID)
	}

	g.TurnPhase = PhaseChooseDraw
	g.SelectedDiscardPlayerID = ""

	if roundOver(g) {
		completeRound(g)
		out.RoundComplete = true
		return out
	}

	next := ""
	cur := actor.ID
	for i := 0; i < len(g.ActivePlayerOrder); i++ {
		cur = nextInOrder(g.ActivePlayerOrder, cur)
		if g.InFinalLap() && indexOf(g.FinalTurnRemainingIDs, cur) < 0 {
			continue
		}
		if g.IsFrozen(cur) {
			g.FrozenPlayerIDs = removeID(g.FrozenPlayerIDs, cur)
			out.Skipped = append(out.Skipped, cur)
			if g.InFinalLap() {
				g.FinalTurnRemainingIDs = removeID(g.FinalTurnRemainingIDs, cur)
			}
			continue
		}
		next = cur
		break
	}

	if roundOver(g) {
		completeRound(g)
		out.RoundComplete = true
		return out
	}
	if next == "" {
		next = actor.ID
	}
	g.CurrentPlayerID = next
	out.Reshuffled = refillDeck(g, rng)
	return out
}

func roundOver(g *GameState) bool {
	return g.InFinalLap() && len(g.FinalTurnRemainingIDs) == 0
}

func completeRound(g *GameState) {
	g.TurnPhase = PhaseChooseDraw
	g.CurrentPlayerID = g.EndingPlayerID
	g.Status = StatusRoundComplete
	g.FrozenPlayerIDs = nil
}

// nextInOrder returns the id after id in order, wrapping around.
func nextInOrder(order []string, id string) string {
	if len(order) == 0 {
		return ""
	}
	i := indexOf(order, id)
	return order[(i+1)%len(order)]
}
