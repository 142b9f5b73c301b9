package item

import (
	"skyjo-server/game"
)

// Reroll sends a number card back into the deck and deals a fresh one face up in its place.
type Reroll struct{}

func (r *Reroll) Code() game.ItemCode { return game.ItemReroll }
func (r *Reroll) Name() string        { return "Reroll" }
func (r *Reroll) Description() string {
	return "Shuffle one of your cards back into the deck and take the first number card from the top instead."
}
func (r *Reroll) Targets() int    { return 1 }
func (r *Reroll) NeedsSlot() bool { return true }

func (r *Reroll) Apply(ctx *game.ItemContext) error {
	p, slot := ctx.Target(0)
	return game.RerollSlot(ctx.Game, p, slot, ctx.Rand)
}
