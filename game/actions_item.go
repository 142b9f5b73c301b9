package game

import (
	"context"
	"fmt"
)

// Target addresses a player, and for slot-targeting items one of their slots.
type Target struct {
	PlayerID string `json:"playerId"`
	Slot     int    `json:"slot"`
}

// ItemRequest is the actor's choice when playing an item card.
type ItemRequest struct {
	Code    ItemCode
	Targets []Target
	// Value is the chosen number for the wild-set item.
	Value int
}

// ItemContext is passed to ItemDef.Apply inside the action's transaction.
type ItemContext struct {
	Game    *GameState
	Actor   *PlayerState
	Request ItemRequest
	// Players holds the actor's and every targeted player's document by id.
	Players map[string]*PlayerState
	Rand    Rand
}

// Target returns the i-th target's player document and slot.
func (c *ItemContext) Target(i int) (*PlayerState, int) {
	t := c.Request.Targets[i]
	return c.Players[t.PlayerID], t.Slot
}

// ItemDef is the definition of an item effect as seen by the engine.
type ItemDef struct {
	Code        ItemCode
	Name        string
	Description string
	// Targets is how many entries ItemRequest.Targets must hold.
	Targets int
	// NeedsSlot is true when every target addresses a non-empty slot rather than a whole player.
	NeedsSlot bool
	Apply     func(ctx *ItemContext) error
}

// ItemProvider abstracts the item registry so the game package does not
// import the item package.
type ItemProvider interface {
	Item(code ItemCode) (ItemDef, bool)
	AllItems() []ItemDef
}

// DiscardItemForReveal throws away an item drawn from the deck; the actor must then reveal a slot.
// Items taken from the discard pile cannot be thrown away. With no hidden card
// left the turn ends immediately.
func (e *Engine) DiscardItemForReveal(ctx context.Context, gameID, playerID string) error {
	return e.run(ctx, gameID, playerID, "discard_item_for_reveal", func(tx Tx, res *txResult) error {
		g, p, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseResolveItem); err != nil {
			return err
		}
		if !p.PendingDraw.IsItem() {
			return fmt.Errorf("%w: no item card pending", ErrInvalidPendingState)
		}
		if p.PendingDrawSource != SourceDeck {
			return fmt.Errorf("%w: an item taken from the discard pile must be used", ErrInvalidPendingState)
		}
		item := p.PendingDraw
		g.Discard = append(g.Discard, item)
		p.clearPendingDraw()
		if !hasHiddenSlot(p) {
			return finishTurn(tx, g, p, fmt.Sprintf("discarded item %s", item), res)
		}
		g.LastTurnPlayerID = p.ID
		g.LastTurnAction = fmt.Sprintf("discarded item %s", item)
		g.TurnPhase = PhaseResolve
		g.SelectedDiscardPlayerID = ""
		tx.SetPlayer(p)
		tx.SetGame(g)
		return nil
	})
}

// UseItemCard resolves the pending item card's effect and ends the turn.
func (e *Engine) UseItemCard(ctx context.Context, gameID, playerID string, req ItemRequest) error {
	return e.run(ctx, gameID, playerID, "use_item_card", func(tx Tx, res *txResult) error {
		g, p, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseResolveItem); err != nil {
			return err
		}
		if !p.PendingDraw.IsItem() {
			return fmt.Errorf("%w: no item card pending", ErrInvalidPendingState)
		}
		if p.PendingDraw.Item() != req.Code {
			return fmt.Errorf("%w: holding item %s, not %s", ErrInvalidPendingState, p.PendingDraw.Item(), req.Code)
		}
		if e.items == nil {
			return fmt.Errorf("%w: item cards are not enabled", ErrPreconditionNotMet)
		}
		def, ok := e.items.Item(req.Code)
		if !ok {
			return fmt.Errorf("%w: no effect registered for item %s", ErrPreconditionNotMet, req.Code)
		}

		affected, err := loadTargets(tx, g, p, def, req)
		if err != nil {
			return err
		}
		ictx := &ItemContext{
			Game:    g,
			Actor:   p,
			Request: req,
			Players: affected,
			Rand:    newRand(&g.RNG),
		}
		if err := def.Apply(ictx); err != nil {
			return err
		}

		for _, id := range g.ActivePlayerOrder {
			ap, ok := affected[id]
			if !ok {
				continue
			}
			clearAllColumns(g, ap)
			if ap != p {
				tx.SetPlayer(ap)
			}
		}
		used := p.PendingDraw
		g.Discard = append(g.Discard, used)
		p.clearPendingDraw()
		return finishTurn(tx, g, p, fmt.Sprintf("used %s (%s)", def.Name, used), res)
	})
}

// loadTargets validates req against def and loads every referenced player.
func loadTargets(tx Tx, g *GameState, actor *PlayerState, def ItemDef, req ItemRequest) (map[string]*PlayerState, error) {
	if len(req.Targets) != def.Targets {
		return nil, fmt.Errorf("%w: item %s takes %d target(s), got %d", ErrInvalidTarget, def.Code, def.Targets, len(req.Targets))
	}
	players := map[string]*PlayerState{actor.ID: actor}
	for _, t := range req.Targets {
		if !g.IsActive(t.PlayerID) {
			return nil, fmt.Errorf("%w: player %s is not in this game", ErrInvalidTarget, t.PlayerID)
		}
		tp, ok := players[t.PlayerID]
		if !ok {
			var err error
			tp, err = tx.Player(t.PlayerID)
			if err != nil {
				return nil, err
			}
			players[t.PlayerID] = tp
		}
		if def.NeedsSlot {
			if err := requireFilledSlot(tp, t.Slot); err != nil {
				return nil, err
			}
		}
	}
	if def.NeedsSlot && len(req.Targets) == 2 && req.Targets[0] == req.Targets[1] {
		return nil, fmt.Errorf("%w: both targets are the same slot", ErrInvalidTarget)
	}
	return players, nil
}

// RerollSlot returns the number card at p's slot to the deck, reshuffles it and
// deals the first number card from the top into the slot, face up.
func RerollSlot(g *GameState, p *PlayerState, slot int, rng Rand) error {
	if !ValidSlot(slot) || !p.Grid[slot].IsNumber() {
		return fmt.Errorf("%w: slot %d does not hold a number card", ErrInvalidTarget, slot)
	}
	g.Deck = append(g.Deck, p.Grid[slot])
	Shuffle(g.Deck, rng)
	for i := len(g.Deck) - 1; i >= 0; i-- {
		if g.Deck[i].IsNumber() {
			p.Grid[slot] = g.Deck[i]
			p.Revealed[slot] = true
			g.Deck = append(g.Deck[:i], g.Deck[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: deck has no number card", ErrPreconditionNotMet)
}

// SetSlot overwrites p's slot with a number card of the chosen value, face up.
// The replaced card goes to g.Overwritten and the new one to g.Conjured.
func SetSlot(g *GameState, p *PlayerState, slot, value int) error {
	if value < MinCardValue || value > MaxCardValue {
		return fmt.Errorf("%w: value %d outside [%d, %d]", ErrInvalidTarget, value, MinCardValue, MaxCardValue)
	}
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: slot %d out of range", ErrInvalidTarget, slot)
	}
	if old := p.Grid[slot]; !old.IsEmpty() {
		g.Overwritten = append(g.Overwritten, old)
	}
	p.Grid[slot] = NumberCard(value)
	p.Revealed[slot] = true
	g.Conjured = append(g.Conjured, p.Grid[slot])
	return nil
}

// FreezePlayer makes targetID skip their next turn.
func FreezePlayer(g *GameState, actorID, targetID string) error {
	if targetID == actorID {
		return fmt.Errorf("%w: cannot freeze yourself", ErrInvalidTarget)
	}
	if g.IsFrozen(targetID) {
		return fmt.Errorf("%w: %s is already frozen", ErrInvalidTarget, targetID)
	}
	g.FrozenPlayerIDs = append(g.FrozenPlayerIDs, targetID)
	return nil
}
