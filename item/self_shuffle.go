package item

import (
	"skyjo-server/game"
)

// SelfShuffle rearranges the actor's own grid. Revealed cards stay revealed wherever they land.
type SelfShuffle struct{}

func (s *SelfShuffle) Code() game.ItemCode { return game.ItemSelfShuffle }
func (s *SelfShuffle) Name() string        { return "Self Shuffle" }
func (s *SelfShuffle) Description() string {
	return "Shuffle the positions of every card in your grid."
}
func (s *SelfShuffle) Targets() int    { return 0 }
func (s *SelfShuffle) NeedsSlot() bool { return false }

func (s *SelfShuffle) Apply(ctx *game.ItemContext) error {
	game.ShuffleGrid(ctx.Actor, ctx.Rand)
	return nil
}
