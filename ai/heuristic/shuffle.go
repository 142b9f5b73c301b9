package heuristic

import (
	"skyjo-server/game"
)

func init() {
	Register(game.ItemSelfShuffle, evSelfShuffle, pickSelfShuffle)
}

// evSelfShuffle: shuffling keeps the same cards, so there is nothing to gain on average.
func evSelfShuffle(state *game.GameStateMsg, me *game.PlayerView) float64 {
	return 0
}

func pickSelfShuffle(state *game.GameStateMsg, me *game.PlayerView) (game.ItemRequest, bool) {
	return game.ItemRequest{}, true
}
