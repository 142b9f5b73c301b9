package heuristic

import (
	"skyjo-server/game"
)

func init() {
	Register(game.ItemWildSet, evWildSet, pickWildSet)
}

type wildSetChoice struct {
	slot  int
	value int
	gain  float64
}

// bestWildSet compares completing a column with turning the worst own card into a -2.
func bestWildSet(me *game.PlayerView) (wildSetChoice, bool) {
	best := wildSetChoice{slot: game.NoSlot}
	consider := func(slot, value int, gain float64) {
		if best.slot == game.NoSlot || gain > best.gain {
			best = wildSetChoice{slot: slot, value: value, gain: gain}
		}
	}
	for v := game.MinCardValue; v <= game.MaxCardValue; v++ {
		if slot, gain, ok := ColumnCompletion(me, v); ok {
			consider(slot, v, gain)
		}
	}
	if slot, v, ok := HighestRevealed(me); ok {
		consider(slot, game.MinCardValue, float64(v-game.MinCardValue))
	}
	if hidden := HiddenSlots(me); len(hidden) > 0 {
		consider(hidden[0], game.MinCardValue, MeanCardValue-game.MinCardValue)
	}
	return best, best.slot != game.NoSlot
}

func evWildSet(state *game.GameStateMsg, me *game.PlayerView) float64 {
	choice, ok := bestWildSet(me)
	if !ok {
		return -1
	}
	return choice.gain
}

func pickWildSet(state *game.GameStateMsg, me *game.PlayerView) (game.ItemRequest, bool) {
	choice, ok := bestWildSet(me)
	if !ok {
		return game.ItemRequest{}, false
	}
	return game.ItemRequest{
		Targets: []game.Target{{PlayerID: me.ID, Slot: choice.slot}},
		Value:   choice.value,
	}, true
}
