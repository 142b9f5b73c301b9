package game

import (
	"context"
	"fmt"
)

// DrawFromDeck moves the deck's top card into the actor's pending draw.
// A number card leads to resolve_draw, an item card to resolve_item.
func (e *Engine) DrawFromDeck(ctx context.Context, gameID, playerID string) error {
	return e.run(ctx, gameID, playerID, "draw_from_deck", func(tx Tx, res *txResult) error {
		g, p, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseChooseDraw); err != nil {
			return err
		}
		if p.HasPendingDraw() {
			return fmt.Errorf("%w: already holding %s", ErrInvalidPendingState, p.PendingDraw)
		}
		deck, card, ok := popCard(g.Deck)
		if !ok {
			return fmt.Errorf("%w: deck is empty", ErrPreconditionNotMet)
		}
		g.Deck = deck
		p.PendingDraw = card
		p.PendingDrawSource = SourceDeck
		if card.IsItem() {
			g.TurnPhase = PhaseResolveItem
		} else {
			g.TurnPhase = PhaseResolveDraw
		}
		g.SelectedDiscardPlayerID = ""
		g.LastTurnPlayerID = p.ID
		g.LastTurnAction = "drew from the deck"
		tx.SetPlayer(p)
		tx.SetGame(g)
		return nil
	})
}

// SelectDiscard marks the actor as looking at the discard pile. It is a UI hint only.
func (e *Engine) SelectDiscard(ctx context.Context, gameID, playerID string) error {
	return e.run(ctx, gameID, playerID, "select_discard", func(tx Tx, res *txResult) error {
		g, _, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseChooseDraw); err != nil {
			return err
		}
		if len(g.Discard) == 0 {
			return fmt.Errorf("%w: discard pile is empty", ErrPreconditionNotMet)
		}
		g.SelectedDiscardPlayerID = playerID
		tx.SetGame(g)
		return nil
	})
}

// DrawFromDiscard takes the discard pile's top card.
//
// An item card becomes the pending draw and must be used (resolve_item).
// A number card replaces slot directly and ends the turn; with slot == NoSlot it
// is held as the pending draw instead and the actor must then swap it (choose_swap).
func (e *Engine) DrawFromDiscard(ctx context.Context, gameID, playerID string, slot int) error {
	return e.run(ctx, gameID, playerID, "draw_from_discard", func(tx Tx, res *txResult) error {
		g, p, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseChooseDraw); err != nil {
			return err
		}
		top, ok := topCard(g.Discard)
		if !ok {
			return fmt.Errorf("%w: discard pile is empty", ErrPreconditionNotMet)
		}
		if p.HasPendingDraw() {
			return fmt.Errorf("%w: already holding %s", ErrInvalidPendingState, p.PendingDraw)
		}

		if top.IsItem() || slot == NoSlot {
			g.Discard = g.Discard[:len(g.Discard)-1]
			p.PendingDraw = top
			p.PendingDrawSource = SourceDiscard
			if top.IsItem() {
				g.TurnPhase = PhaseResolveItem
			} else {
				g.TurnPhase = PhaseChooseSwap
			}
			g.SelectedDiscardPlayerID = ""
			g.LastTurnPlayerID = p.ID
			g.LastTurnAction = fmt.Sprintf("took %s from the discard pile", top)
			tx.SetPlayer(p)
			tx.SetGame(g)
			return nil
		}

		if err := requireFilledSlot(p, slot); err != nil {
			return err
		}
		g.Discard = g.Discard[:len(g.Discard)-1]
		old := p.Grid[slot]
		p.Grid[slot] = top
		p.Revealed[slot] = true
		g.Discard = append(g.Discard, old)
		clearColumn(g, p, slot)
		return finishTurn(tx, g, p, fmt.Sprintf("took %s from the discard pile into slot %d", top, slot), res)
	})
}

// SwapPendingDraw places the pending number card into slot and discards the card it replaces.
func (e *Engine) SwapPendingDraw(ctx context.Context, gameID, playerID string, slot int) error {
	return e.run(ctx, gameID, playerID, "swap_pending_draw", func(tx Tx, res *txResult) error {
		g, p, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseResolveDraw, PhaseChooseSwap); err != nil {
			return err
		}
		if !p.PendingDraw.IsNumber() {
			return fmt.Errorf("%w: no number card pending", ErrInvalidPendingState)
		}
		if err := requireFilledSlot(p, slot); err != nil {
			return err
		}
		drawn := p.PendingDraw
		old := p.Grid[slot]
		p.Grid[slot] = drawn
		p.Revealed[slot] = true
		p.clearPendingDraw()
		g.Discard = append(g.Discard, old)
		clearColumn(g, p, slot)
		return finishTurn(tx, g, p, fmt.Sprintf("swapped %s into slot %d", drawn, slot), res)
	})
}

// DiscardPendingDraw discards the pending deck card; the actor must then reveal a slot.
// A player with no hidden card left ends the turn right away.
func (e *Engine) DiscardPendingDraw(ctx context.Context, gameID, playerID string) error {
	return e.run(ctx, gameID, playerID, "discard_pending_draw", func(tx Tx, res *txResult) error {
		g, p, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseResolveDraw); err != nil {
			return err
		}
		if !p.PendingDraw.IsNumber() {
			return fmt.Errorf("%w: no number card pending", ErrInvalidPendingState)
		}
		drawn := p.PendingDraw
		g.Discard = append(g.Discard, drawn)
		p.clearPendingDraw()
		if !hasHiddenSlot(p) {
			// Nothing left to reveal: the discard ends the turn.
			return finishTurn(tx, g, p, fmt.Sprintf("discarded %s", drawn), res)
		}
		g.LastTurnPlayerID = p.ID
		g.LastTurnAction = fmt.Sprintf("discarded %s", drawn)
		g.TurnPhase = PhaseResolve
		tx.SetPlayer(p)
		tx.SetGame(g)
		return nil
	})
}

// RevealAfterDiscard reveals a hidden slot to finish a turn whose draw was discarded.
func (e *Engine) RevealAfterDiscard(ctx context.Context, gameID, playerID string, slot int) error {
	return e.run(ctx, gameID, playerID, "reveal_after_discard", func(tx Tx, res *txResult) error {
		g, p, err := loadTurn(tx, playerID)
		if err != nil {
			return err
		}
		if err := requirePhase(g, PhaseResolve); err != nil {
			return err
		}
		if err := requireFilledSlot(p, slot); err != nil {
			return err
		}
		if p.Revealed[slot] {
			return fmt.Errorf("%w: slot %d is already revealed", ErrInvalidTarget, slot)
		}
		shown := p.Grid[slot]
		p.Revealed[slot] = true
		clearColumn(g, p, slot)
		return finishTurn(tx, g, p, fmt.Sprintf("revealed %s in slot %d", shown, slot), res)
	})
}

func requireFilledSlot(p *PlayerState, slot int) error {
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: slot %d out of range", ErrInvalidTarget, slot)
	}
	if p.Grid[slot].IsEmpty() {
		return fmt.Errorf("%w: slot %d of %s is empty", ErrInvalidTarget, slot, p.ID)
	}
	return nil
}

func hasHiddenSlot(p *PlayerState) bool {
	for i, c := range p.Grid {
		if !c.IsEmpty() && !p.Revealed[i] {
			return true
		}
	}
	return false
}
