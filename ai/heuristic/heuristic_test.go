package heuristic

import (
	"math"
	"testing"

	"skyjo-server/game"
)

// playerView builds a view where values[i] is shown face up when up[i] is true.
// A value of 99 marks a cleared slot.
func playerView(id string, values []int, up ...int) game.PlayerView {
	pv := game.PlayerView{ID: id, Name: id, Slots: make([]game.SlotView, game.GridSize)}
	shown := map[int]bool{}
	for _, i := range up {
		shown[i] = true
	}
	for i, v := range values {
		sv := game.SlotView{Index: i}
		switch {
		case v == 99:
			sv.Empty, sv.Revealed = true, true
		case shown[i]:
			c := game.NumberCard(v)
			sv.Revealed, sv.Card = true, &c
			pv.VisibleScore += v
		}
		pv.Slots[i] = sv
	}
	return pv
}

var flat = []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}

func TestMeanCardValue(t *testing.T) {
	if math.Abs(MeanCardValue-760.0/150.0) > 1e-9 {
		t.Errorf("expected 760/150, got %v", MeanCardValue)
	}
}

func TestColumnCompletion(t *testing.T) {
	values := []int{7, 1, 2, 3, 7, 4, 5, 6, 9, 8, 10, 11}
	me := playerView("a", values, 0, 4, 8)
	slot, gain, ok := ColumnCompletion(&me, 7)
	if !ok || slot != 8 {
		t.Fatalf("expected slot 8 to complete column 0, got %d ok=%v", slot, ok)
	}
	if gain != 23 {
		t.Errorf("expected gain 7+7+9=23, got %v", gain)
	}

	if _, _, ok := ColumnCompletion(&me, 3); ok {
		t.Error("no column has two face-up 3s")
	}

	hiddenOdd := playerView("a", values, 0, 4)
	slot, gain, ok = ColumnCompletion(&hiddenOdd, 7)
	if !ok || slot != 8 || gain != 14+MeanCardValue {
		t.Errorf("hidden third slot counts as the mean: slot=%d gain=%v", slot, gain)
	}
}

func TestEV_UnregisteredReturnsNegative(t *testing.T) {
	me := playerView("a", flat)
	if got := EV(game.ItemCode('Z'), &game.GameStateMsg{}, &me); got != -1 {
		t.Errorf("EV of unknown item should be -1, got %v", got)
	}
	if got := EV(game.ItemReroll, &game.GameStateMsg{}, nil); got != -1 {
		t.Errorf("EV without a player should be -1, got %v", got)
	}
}

func TestReroll(t *testing.T) {
	me := playerView("a", []int{12, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, 0, 1)
	state := &game.GameStateMsg{Players: []game.PlayerView{me}}
	if ev := EV(game.ItemReroll, state, &me); ev <= 6 {
		t.Errorf("rerolling a 12 should be worth about 7, got %v", ev)
	}
	req, ok := Pick(game.ItemReroll, state, &me)
	if !ok || req.Code != game.ItemReroll || req.Targets[0] != (game.Target{PlayerID: "a", Slot: 0}) {
		t.Errorf("unexpected request %+v ok=%v", req, ok)
	}
}

func TestWildSet_PrefersColumnClear(t *testing.T) {
	values := []int{9, 0, 0, 0, 9, 0, 0, 0, 4, 0, 0, 0}
	me := playerView("a", values, 0, 4, 8, 1)
	state := &game.GameStateMsg{Players: []game.PlayerView{me}}
	req, ok := Pick(game.ItemWildSet, state, &me)
	if !ok {
		t.Fatal("expected a wild set choice")
	}
	if req.Targets[0].Slot != 8 || req.Value != 9 {
		t.Errorf("expected 9 into slot 8 to clear 22 points, got slot %d value %d", req.Targets[0].Slot, req.Value)
	}
	if ev := EV(game.ItemWildSet, state, &me); ev != 22 {
		t.Errorf("expected EV 22, got %v", ev)
	}
}

func TestWildSet_LowersWorstCard(t *testing.T) {
	me := playerView("a", []int{0, 11, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0, 1, 2)
	req, ok := Pick(game.ItemWildSet, &game.GameStateMsg{}, &me)
	if !ok || req.Targets[0].Slot != 1 || req.Value != game.MinCardValue {
		t.Errorf("expected -2 over the face-up 11, got %+v", req)
	}
}

func TestFreeze_FinalLapTarget(t *testing.T) {
	me := playerView("a", flat)
	b := playerView("b", flat)
	c := playerView("c", flat)
	b.VisibleScore, c.VisibleScore = 3, 20
	state := &game.GameStateMsg{
		Players:               []game.PlayerView{me, b, c},
		EndingPlayerID:        "a",
		FinalTurnRemainingIDs: []string{"c"},
	}
	if ev := EV(game.ItemFreeze, state, &state.Players[0]); ev != freezeFinalLapGain {
		t.Errorf("expected final lap gain, got %v", ev)
	}
	req, ok := Pick(game.ItemFreeze, state, &state.Players[0])
	if !ok || req.Targets[0].PlayerID != "c" {
		t.Errorf("expected c (still owed a turn), got %+v", req)
	}

	state.EndingPlayerID, state.FinalTurnRemainingIDs = "", nil
	req, _ = Pick(game.ItemFreeze, state, &state.Players[0])
	if req.Targets[0].PlayerID != "b" {
		t.Errorf("outside the final lap the leader is frozen, got %s", req.Targets[0].PlayerID)
	}

	state.Players[1].IsFrozen = true
	state.Players[2].IsFrozen = true
	if _, ok := Pick(game.ItemFreeze, state, &state.Players[0]); ok {
		t.Error("everyone is frozen already; there is no target")
	}
}

func TestSwap(t *testing.T) {
	me := playerView("a", []int{10, 2, 3, 4, 5, 6, 7, 8, 9, 1, 2, 3}, 0, 1)
	b := playerView("b", []int{-2, 6, 3, 4, 5, 6, 7, 8, 9, 1, 2, 3}, 0, 1)
	state := &game.GameStateMsg{Players: []game.PlayerView{me, b}}

	if ev := EV(game.ItemSwap, state, &state.Players[0]); ev != 12 {
		t.Errorf("expected 10 - (-2) = 12, got %v", ev)
	}
	req, ok := Pick(game.ItemSwap, state, &state.Players[0])
	if !ok {
		t.Fatal("expected a swap")
	}
	want := []game.Target{{PlayerID: "a", Slot: 0}, {PlayerID: "b", Slot: 0}}
	if req.Targets[0] != want[0] || req.Targets[1] != want[1] {
		t.Errorf("got %+v, want %+v", req.Targets, want)
	}
}

func TestSwap_ForcedWithoutOpponentCards(t *testing.T) {
	me := playerView("a", flat)
	b := playerView("b", flat)
	state := &game.GameStateMsg{Players: []game.PlayerView{me, b}}
	if ev := EV(game.ItemSwap, state, &state.Players[0]); ev >= 0 {
		t.Errorf("no face-up cards, swap should not be evaluated, got %v", ev)
	}
	req, ok := Pick(game.ItemSwap, state, &state.Players[0])
	if !ok || req.Targets[0].PlayerID != "a" || req.Targets[1].PlayerID != "a" {
		t.Errorf("expected an own-grid fallback swap, got %+v", req)
	}
}
