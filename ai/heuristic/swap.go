package heuristic

import (
	"skyjo-server/game"
)

func init() {
	Register(game.ItemSwap, evSwap, pickSwap)
}

type swapChoice struct {
	mySlot    int
	opponent  string
	theirSlot int
	gain      float64
}

// bestSwap trades the highest own face-up card for the lowest face-up card on the table.
func bestSwap(state *game.GameStateMsg, me *game.PlayerView) (swapChoice, bool) {
	mySlot, mine, ok := HighestRevealed(me)
	if !ok {
		return swapChoice{}, false
	}
	best := swapChoice{theirSlot: game.NoSlot}
	for _, op := range Opponents(state, me) {
		slot, theirs, ok := LowestRevealed(op)
		if !ok {
			continue
		}
		gain := float64(mine - theirs)
		if best.theirSlot == game.NoSlot || gain > best.gain {
			best = swapChoice{mySlot: mySlot, opponent: op.ID, theirSlot: slot, gain: gain}
		}
	}
	return best, best.theirSlot != game.NoSlot
}

func evSwap(state *game.GameStateMsg, me *game.PlayerView) float64 {
	choice, ok := bestSwap(state, me)
	if !ok {
		return -1
	}
	return choice.gain
}

func pickSwap(state *game.GameStateMsg, me *game.PlayerView) (game.ItemRequest, bool) {
	choice, ok := bestSwap(state, me)
	if !ok {
		// Nothing to take from others: swap two own cards so a forced use stays legal.
		filled := filledSlots(me)
		if len(filled) < 2 {
			return game.ItemRequest{}, false
		}
		return game.ItemRequest{Targets: []game.Target{
			{PlayerID: me.ID, Slot: filled[0]},
			{PlayerID: me.ID, Slot: filled[1]},
		}}, true
	}
	return game.ItemRequest{Targets: []game.Target{
		{PlayerID: me.ID, Slot: choice.mySlot},
		{PlayerID: choice.opponent, Slot: choice.theirSlot},
	}}, true
}

func filledSlots(p *game.PlayerView) []int {
	var out []int
	for _, s := range p.Slots {
		if !s.Empty {
			out = append(out, s.Index)
		}
	}
	return out
}
