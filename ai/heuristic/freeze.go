package heuristic

import (
	"slices"

	"skyjo-server/game"
)

func init() {
	Register(game.ItemFreeze, evFreeze, pickFreeze)
}

// Freezing an opponent who still has a final turn takes that turn away entirely.
const (
	freezeGain         = 1.0
	freezeFinalLapGain = 8.0
)

func freezeTarget(state *game.GameStateMsg, me *game.PlayerView) (*game.PlayerView, bool) {
	var best *game.PlayerView
	bestLap := false
	for _, op := range Opponents(state, me) {
		if op.IsFrozen {
			continue
		}
		lap := slices.Contains(state.FinalTurnRemainingIDs, op.ID)
		switch {
		case best == nil,
			lap && !bestLap,
			lap == bestLap && op.VisibleScore < best.VisibleScore:
			best, bestLap = op, lap
		}
	}
	return best, bestLap
}

func evFreeze(state *game.GameStateMsg, me *game.PlayerView) float64 {
	target, lap := freezeTarget(state, me)
	if target == nil {
		return -1
	}
	if lap {
		return freezeFinalLapGain
	}
	return freezeGain
}

func pickFreeze(state *game.GameStateMsg, me *game.PlayerView) (game.ItemRequest, bool) {
	target, _ := freezeTarget(state, me)
	if target == nil {
		return game.ItemRequest{}, false
	}
	return game.ItemRequest{Targets: []game.Target{{PlayerID: target.ID}}}, true
}
