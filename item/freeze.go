package item

import (
	"skyjo-server/game"
)

// Freeze makes another player skip their next turn.
// A frozen player in the final lap loses their last turn.
type Freeze struct{}

func (f *Freeze) Code() game.ItemCode { return game.ItemFreeze }
func (f *Freeze) Name() string        { return "Freeze" }
func (f *Freeze) Description() string { return "Choose another player; they skip their next turn." }
func (f *Freeze) Targets() int        { return 1 }
func (f *Freeze) NeedsSlot() bool     { return false }

func (f *Freeze) Apply(ctx *game.ItemContext) error {
	target, _ := ctx.Target(0)
	return game.FreezePlayer(ctx.Game, ctx.Actor.ID, target.ID)
}
