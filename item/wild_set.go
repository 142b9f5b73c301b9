package item

import (
	"skyjo-server/game"
)

// WildSet overwrites a slot with a value of the actor's choosing.
type WildSet struct{}

func (w *WildSet) Code() game.ItemCode { return game.ItemWildSet }
func (w *WildSet) Name() string        { return "Wild Set" }
func (w *WildSet) Description() string {
	return "Set any card in play to a value between -2 and 12."
}
func (w *WildSet) Targets() int    { return 1 }
func (w *WildSet) NeedsSlot() bool { return true }

func (w *WildSet) Apply(ctx *game.ItemContext) error {
	p, slot := ctx.Target(0)
	return game.SetSlot(ctx.Game, p, slot, ctx.Request.Value)
}
