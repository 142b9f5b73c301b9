package heuristic

import (
	"skyjo-server/game"
)

// EVFunc returns the expected gain (in points saved) of playing the item now.
// A negative return value means "do not use by heuristic".
type EVFunc func(state *game.GameStateMsg, me *game.PlayerView) float64

// PickFunc builds the use request for the item; ok is false when the item has no legal target.
type PickFunc func(state *game.GameStateMsg, me *game.PlayerView) (req game.ItemRequest, ok bool)

type entry struct {
	ev   EVFunc
	pick PickFunc
}

var registry = make(map[game.ItemCode]entry)

// Register adds or overwrites the heuristic for an item code. Either ev or pick may be nil.
func Register(code game.ItemCode, ev EVFunc, pick PickFunc) {
	registry[code] = entry{ev: ev, pick: pick}
}

// EV returns the expected gain of playing code, or -1 if not registered or not evaluated.
func EV(code game.ItemCode, state *game.GameStateMsg, me *game.PlayerView) float64 {
	e, ok := registry[code]
	if !ok || e.ev == nil || me == nil {
		return -1
	}
	return e.ev(state, me)
}

// Pick returns the use request for code, or ok=false if there is no target or no heuristic.
func Pick(code game.ItemCode, state *game.GameStateMsg, me *game.PlayerView) (game.ItemRequest, bool) {
	e, ok := registry[code]
	if !ok || e.pick == nil || me == nil {
		return game.ItemRequest{}, false
	}
	req, ok := e.pick(state, me)
	req.Code = code
	return req, ok
}
