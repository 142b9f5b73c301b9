package heuristic

import (
	"skyjo-server/game"
)

func init() {
	Register(game.ItemReroll, evReroll, pickReroll)
}

// evReroll: trading the highest face-up card for a fresh draw saves its excess over the mean.
func evReroll(state *game.GameStateMsg, me *game.PlayerView) float64 {
	_, v, ok := HighestRevealed(me)
	if !ok {
		return -1
	}
	return float64(v) - MeanCardValue
}

func pickReroll(state *game.GameStateMsg, me *game.PlayerView) (game.ItemRequest, bool) {
	slot, _, ok := HighestRevealed(me)
	if !ok {
		hidden := HiddenSlots(me)
		if len(hidden) == 0 {
			return game.ItemRequest{}, false
		}
		slot = hidden[0]
	}
	return game.ItemRequest{Targets: []game.Target{{PlayerID: me.ID, Slot: slot}}}, true
}
