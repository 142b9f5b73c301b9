package item

import (
	"fmt"

	"skyjo-server/game"
)

// Swap exchanges two cards anywhere on the table, revealed flags included.
type Swap struct{}

func (s *Swap) Code() game.ItemCode { return game.ItemSwap }
func (s *Swap) Name() string        { return "Swap" }
func (s *Swap) Description() string {
	return "Swap any two cards in play, on your grid or between players."
}
func (s *Swap) Targets() int    { return 2 }
func (s *Swap) NeedsSlot() bool { return true }

func (s *Swap) Apply(ctx *game.ItemContext) error {
	a, ai := ctx.Target(0)
	b, bi := ctx.Target(1)
	if a == b && ai == bi {
		return fmt.Errorf("%w: cannot swap a slot with itself", game.ErrInvalidTarget)
	}
	game.SwapSlots(a, ai, b, bi)
	return nil
}

// IsCrossPlayer reports whether a swap request moves cards between two players.
func IsCrossPlayer(targets []game.Target) bool {
	return len(targets) == 2 && targets[0].PlayerID != targets[1].PlayerID
}
