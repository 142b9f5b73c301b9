package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"skyjo-server/ai/heuristic"
	"skyjo-server/config"
	"skyjo-server/game"
	"skyjo-server/storage"
)

// NewBotID returns a fresh player id for a bot seat.
func NewBotID() string {
	return storage.BotUserIDPrefix + uuid.NewString()
}

// Actions is the part of game.Engine a bot plays through.
type Actions interface {
	DrawFromDeck(ctx context.Context, gameID, playerID string) error
	DrawFromDiscard(ctx context.Context, gameID, playerID string, slot int) error
	SwapPendingDraw(ctx context.Context, gameID, playerID string, slot int) error
	DiscardPendingDraw(ctx context.Context, gameID, playerID string) error
	RevealAfterDiscard(ctx context.Context, gameID, playerID string, slot int) error
	DiscardItemForReveal(ctx context.Context, gameID, playerID string) error
	UseItemCard(ctx context.Context, gameID, playerID string, req game.ItemRequest) error
	ReadyForNextRound(ctx context.Context, gameID, playerID string) error
	StartNextRound(ctx context.Context, gameID, playerID string) error
	View(ctx context.Context, gameID, viewerID string) (game.GameStateMsg, error)
}

// MoveKind names the engine call a Move maps to.
type MoveKind string

const (
	MoveNone        MoveKind = ""
	MoveDrawDeck    MoveKind = "draw_from_deck"
	MoveTakeDiscard MoveKind = "draw_from_discard"
	MoveSwap        MoveKind = "swap_pending_draw"
	MoveDiscard     MoveKind = "discard_pending_draw"
	MoveReveal      MoveKind = "reveal_after_discard"
	MoveUseItem     MoveKind = "use_item_card"
	MoveDiscardItem MoveKind = "discard_item_for_reveal"
	MoveReady       MoveKind = "ready_for_next_round"
	MoveStartRound  MoveKind = "start_next_round"
)

// Move is one decision. Reason is for logging.
type Move struct {
	Kind   MoveKind
	Slot   int
	Item   game.ItemRequest
	Reason string
}

func (m Move) isTurnMove() bool {
	return m.Kind != MoveNone && m.Kind != MoveReady && m.Kind != MoveStartRound
}

// maxAttempts bounds retries on one game_state when the engine rejects a move.
const maxAttempts = 3

// Run receives game_state messages from updates and plays playerID's turns
// through act. It only uses the public game_state payload. It returns when
// updates is closed or the game is complete.
func Run(ctx context.Context, updates <-chan []byte, act Actions, gameID, playerID string, params *config.AIParams) {
	b := &bot{
		act:      act,
		gameID:   gameID,
		playerID: playerID,
		params:   params,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for data := range updates {
		var state game.GameStateMsg
		if err := json.Unmarshal(data, &state); err != nil || state.Type != "game_state" {
			continue
		}
		if state.Status == game.StatusGameComplete {
			slog.Info("game over", "tag", "ai", "name", params.Name, "game", gameID)
			return
		}
		b.step(ctx, &state)
		if ctx.Err() != nil {
			return
		}
	}
}

type bot struct {
	act      Actions
	gameID   string
	playerID string
	params   *config.AIParams
	rng      *rand.Rand
}

func (b *bot) step(ctx context.Context, state *game.GameStateMsg) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		mv := Decide(state, b.params, b.rng)
		if mv.Kind == MoveNone {
			return
		}
		if mv.isTurnMove() && !b.sleep(ctx) {
			return
		}
		slog.Debug("bot move", "tag", "ai", "name", b.params.Name, "game", b.gameID, "move", string(mv.Kind), "slot", mv.Slot, "reason", mv.Reason)
		err := b.apply(ctx, mv)
		if err == nil || ctx.Err() != nil {
			return
		}
		// The state was stale; decide again on a fresh view.
		slog.Debug("bot move rejected", "tag", "ai", "name", b.params.Name, "move", string(mv.Kind), "error", err)
		fresh, err := b.act.View(ctx, b.gameID, b.playerID)
		if err != nil {
			return
		}
		state = &fresh
	}
}

// sleep waits a human-like delay; false means ctx ended first.
func (b *bot) sleep(ctx context.Context) bool {
	delayMS := b.params.DelayMinMS
	if b.params.DelayMaxMS > b.params.DelayMinMS {
		delayMS = b.params.DelayMinMS + b.rng.Intn(b.params.DelayMaxMS-b.params.DelayMinMS)
	}
	if delayMS <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(time.Duration(delayMS) * time.Millisecond)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (b *bot) apply(ctx context.Context, mv Move) error {
	g, p := b.gameID, b.playerID
	switch mv.Kind {
	case MoveDrawDeck:
		return b.act.DrawFromDeck(ctx, g, p)
	case MoveTakeDiscard:
		return b.act.DrawFromDiscard(ctx, g, p, mv.Slot)
	case MoveSwap:
		return b.act.SwapPendingDraw(ctx, g, p, mv.Slot)
	case MoveDiscard:
		return b.act.DiscardPendingDraw(ctx, g, p)
	case MoveReveal:
		return b.act.RevealAfterDiscard(ctx, g, p, mv.Slot)
	case MoveUseItem:
		return b.act.UseItemCard(ctx, g, p, mv.Item)
	case MoveDiscardItem:
		return b.act.DiscardItemForReveal(ctx, g, p)
	case MoveReady:
		return b.act.ReadyForNextRound(ctx, g, p)
	case MoveStartRound:
		return b.act.StartNextRound(ctx, g, p)
	}
	return nil
}

// Decide picks the next move for state.You, or MoveNone when nothing is due.
func Decide(state *game.GameStateMsg, params *config.AIParams, rng *rand.Rand) Move {
	me := heuristic.Player(state, state.You)
	if me == nil {
		return Move{}
	}
	switch state.Status {
	case game.StatusRoundComplete:
		if !me.IsReady {
			return Move{Kind: MoveReady}
		}
		if state.HostID == me.ID && allReady(state) {
			return Move{Kind: MoveStartRound}
		}
		return Move{}
	case game.StatusPlaying:
	default:
		return Move{}
	}
	if !state.YourTurn {
		return Move{}
	}

	switch state.Phase {
	case game.PhaseChooseDraw:
		return chooseDraw(state, me, params, rng)
	case game.PhaseResolveDraw:
		if me.PendingDraw == nil || !me.PendingDraw.IsNumber() {
			return Move{}
		}
		if slot, reason, ok := placement(me, me.PendingDraw.Value(), params.KeepThreshold, rng); ok {
			return Move{Kind: MoveSwap, Slot: slot, Reason: reason}
		}
		return Move{Kind: MoveDiscard, Reason: "too_high"}
	case game.PhaseChooseSwap:
		if me.PendingDraw == nil || !me.PendingDraw.IsNumber() {
			return Move{}
		}
		slot, reason := forcedPlacement(me, me.PendingDraw.Value(), params.KeepThreshold, rng)
		if slot == game.NoSlot {
			return Move{}
		}
		return Move{Kind: MoveSwap, Slot: slot, Reason: reason}
	case game.PhaseResolve:
		if slot, ok := revealSlot(me, rng); ok {
			return Move{Kind: MoveReveal, Slot: slot, Reason: "reveal"}
		}
		return Move{}
	case game.PhaseResolveItem:
		return resolveItem(state, me, params, rng)
	}
	return Move{}
}

func chooseDraw(state *game.GameStateMsg, me *game.PlayerView, params *config.AIParams, rng *rand.Rand) Move {
	if top := state.DiscardTop; top != nil && top.IsNumber() {
		v := top.Value()
		if slot, _, ok := heuristic.ColumnCompletion(me, v); ok {
			return Move{Kind: MoveTakeDiscard, Slot: slot, Reason: "completes_column"}
		}
		if v <= params.TakeDiscardMax || state.DeckCount == 0 {
			if slot, reason, ok := placement(me, v, params.KeepThreshold, rng); ok {
				return Move{Kind: MoveTakeDiscard, Slot: slot, Reason: reason}
			}
		}
		if state.DeckCount == 0 {
			if slot, reason := forcedPlacement(me, v, params.KeepThreshold, rng); slot != game.NoSlot {
				return Move{Kind: MoveTakeDiscard, Slot: slot, Reason: reason}
			}
		}
	}
	return Move{Kind: MoveDrawDeck, Reason: "draw"}
}

// placement picks the slot a card of value v improves most, if any.
func placement(me *game.PlayerView, v, keepThreshold int, rng *rand.Rand) (int, string, bool) {
	if slot, _, ok := heuristic.ColumnCompletion(me, v); ok {
		return slot, "completes_column", true
	}
	best, reason := game.NoSlot, ""
	var gain float64
	if slot, h, ok := heuristic.HighestRevealed(me); ok && h > v {
		best, gain, reason = slot, float64(h-v), "replaces_high_card"
	}
	if hidden := heuristic.HiddenSlots(me); len(hidden) > 0 && v <= keepThreshold {
		if g := heuristic.MeanCardValue - float64(v); g > gain {
			best, reason = pickHidden(me, hidden, v, rng), "replaces_hidden"
		}
	}
	return best, reason, best != game.NoSlot
}

// forcedPlacement is placement that always finds a filled slot when one exists.
func forcedPlacement(me *game.PlayerView, v, keepThreshold int, rng *rand.Rand) (int, string) {
	if slot, reason, ok := placement(me, v, keepThreshold, rng); ok {
		return slot, reason
	}
	if slot, _, ok := heuristic.HighestRevealed(me); ok {
		return slot, "forced_high_card"
	}
	if hidden := heuristic.HiddenSlots(me); len(hidden) > 0 {
		return pickHidden(me, hidden, v, rng), "forced_hidden"
	}
	return game.NoSlot, ""
}

// pickHidden prefers a hidden slot whose column already shows v.
func pickHidden(me *game.PlayerView, hidden []int, v int, rng *rand.Rand) int {
	for _, i := range hidden {
		for _, j := range game.ColumnSlots(i) {
			if got, ok := heuristic.RevealedValue(me.Slots[j]); ok && got == v {
				return i
			}
		}
	}
	return hidden[rng.Intn(len(hidden))]
}

// revealSlot picks the hidden slot to turn over after a discard.
func revealSlot(me *game.PlayerView, rng *rand.Rand) (int, bool) {
	hidden := heuristic.HiddenSlots(me)
	if len(hidden) == 0 {
		return 0, false
	}
	// A column with two equal face-up cards might clear.
	for _, i := range hidden {
		slots := game.ColumnSlots(i)
		seen := map[int]int{}
		for _, j := range slots {
			if v, ok := heuristic.RevealedValue(me.Slots[j]); ok {
				seen[v]++
				if seen[v] == game.GridRows-1 {
					return i, true
				}
			}
		}
	}
	return hidden[rng.Intn(len(hidden))], true
}

func resolveItem(state *game.GameStateMsg, me *game.PlayerView, params *config.AIParams, rng *rand.Rand) Move {
	if me.PendingDraw == nil || !me.PendingDraw.IsItem() {
		return Move{}
	}
	code := me.PendingDraw.Item()
	forced := me.PendingDrawSource == game.SourceDiscard

	chance := params.UseItemChance
	if chance < 0 {
		chance = 0
	}
	if chance > 100 {
		chance = 100
	}
	ev := heuristic.EV(code, state, me)
	if forced || (ev > 0 && rng.Intn(100) < chance) {
		if req, ok := heuristic.Pick(code, state, me); ok {
			return Move{Kind: MoveUseItem, Item: req, Reason: "item_ev"}
		}
	}
	if forced {
		return Move{}
	}
	return Move{Kind: MoveDiscardItem, Reason: "item_not_worth_it"}
}

func allReady(state *game.GameStateMsg) bool {
	for _, p := range state.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}
