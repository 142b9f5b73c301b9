package heuristic

import (
	"skyjo-server/game"
)

// MeanCardValue is the average value of a fresh number deck; it stands in for hidden cards.
var MeanCardValue = meanCardValue()

func meanCardValue() float64 {
	deck := game.CreateDeck()
	sum := 0
	for _, c := range deck {
		sum += c.Value()
	}
	return float64(sum) / float64(len(deck))
}

// Player returns id's view in state, or nil.
func Player(state *game.GameStateMsg, id string) *game.PlayerView {
	for i := range state.Players {
		if state.Players[i].ID == id {
			return &state.Players[i]
		}
	}
	return nil
}

// RevealedValue returns the value of a face-up number card.
func RevealedValue(s game.SlotView) (int, bool) {
	if s.Revealed && s.Card != nil && s.Card.IsNumber() {
		return s.Card.Value(), true
	}
	return 0, false
}

// ExpectedValue is the revealed value, or MeanCardValue for a hidden card.
// Cleared slots report ok=false.
func ExpectedValue(s game.SlotView) (float64, bool) {
	if s.Empty {
		return 0, false
	}
	if v, ok := RevealedValue(s); ok {
		return float64(v), true
	}
	return MeanCardValue, true
}

// HighestRevealed returns p's highest face-up number card.
func HighestRevealed(p *game.PlayerView) (slot, value int, ok bool) {
	slot = game.NoSlot
	for _, s := range p.Slots {
		if v, isNum := RevealedValue(s); isNum && (slot == game.NoSlot || v > value) {
			slot, value = s.Index, v
		}
	}
	return slot, value, slot != game.NoSlot
}

// LowestRevealed returns p's lowest face-up number card.
func LowestRevealed(p *game.PlayerView) (slot, value int, ok bool) {
	slot = game.NoSlot
	for _, s := range p.Slots {
		if v, isNum := RevealedValue(s); isNum && (slot == game.NoSlot || v < value) {
			slot, value = s.Index, v
		}
	}
	return slot, value, slot != game.NoSlot
}

// HiddenSlots returns p's face-down, non-empty slots.
func HiddenSlots(p *game.PlayerView) []int {
	var out []int
	for _, s := range p.Slots {
		if !s.Revealed && !s.Empty {
			out = append(out, s.Index)
		}
	}
	return out
}

// ColumnCompletion finds the slot where a card of value clears a column: the
// other two slots of that column show value face up. gain is the column's
// expected sum removed by the clear; only positive gains are returned.
func ColumnCompletion(p *game.PlayerView, value int) (slot int, gain float64, ok bool) {
	slot = game.NoSlot
	for col := 0; col < game.GridCols; col++ {
		cand, g, found := completeColumn(p, col, value)
		if found && g > 0 && (slot == game.NoSlot || g > gain) {
			slot, gain = cand, g
		}
	}
	return slot, gain, slot != game.NoSlot
}

func completeColumn(p *game.PlayerView, col, value int) (int, float64, bool) {
	matches := 0
	odd := game.NoSlot
	var oddValue float64
	for _, i := range game.ColumnSlots(col) {
		s := p.Slots[i]
		if s.Empty {
			return 0, 0, false
		}
		if v, ok := RevealedValue(s); ok && v == value {
			matches++
			continue
		}
		odd = i
		oddValue, _ = ExpectedValue(s)
	}
	if matches != game.GridRows-1 || odd == game.NoSlot {
		return 0, 0, false
	}
	return odd, float64(2*value) + oddValue, true
}

// Opponents returns every other player in state.
func Opponents(state *game.GameStateMsg, me *game.PlayerView) []*game.PlayerView {
	var out []*game.PlayerView
	for i := range state.Players {
		if state.Players[i].ID != me.ID {
			out = append(out, &state.Players[i])
		}
	}
	return out
}
