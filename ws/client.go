package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"skyjo-server/game"
	"skyjo-server/item"
	"skyjo-server/matcherrors"
	"skyjo-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 256
)

// GuestPrefix marks player ids handed out to unauthenticated clients.
const GuestPrefix = "guest:"

// Client is a middleman between the websocket connection and the hub.
// Name and UserID are only written while the client is neither queued nor in
// a game, so the matchmaker may read them once it holds the client.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Name   string
	UserID string

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	gameID    string
	queued    bool
	stopWatch context.CancelFunc
}

// NewClient wraps conn; the client's context ends when it disconnects.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		Hub:    h,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context is cancelled when the client disconnects.
func (c *Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// GameID returns the game the client is attached to, or "".
func (c *Client) GameID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

// Queued reports whether the client is waiting in the matchmaking queue.
func (c *Client) Queued() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queued
}

// LeftQueue marks the client as no longer waiting for a match.
func (c *Client) LeftQueue() {
	c.mu.Lock()
	c.queued = false
	c.mu.Unlock()
}

// JoinGame attaches the client to gameID and returns a context for the game's
// state watcher. The context ends when the client leaves the game or disconnects.
func (c *Client) JoinGame(gameID string) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopWatch != nil {
		c.stopWatch()
	}
	ctx, cancel := context.WithCancel(c.Context())
	c.gameID = gameID
	c.queued = false
	c.stopWatch = cancel
	return ctx
}

// LeaveGame detaches the client from its game.
func (c *Client) LeaveGame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	c.gameID = ""
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.stopWatch != nil {
		c.stopWatch()
	}
	if c.cancel != nil {
		c.cancel()
	}
	close(c.Send)
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "user", c.UserID, "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("bad_request", "Invalid message format.")
		return
	}

	switch envelope.Type {
	case "auth":
		c.handleAuth(envelope.Raw)
	case "set_name":
		c.handleSetName(envelope.Raw)
	case "play_again":
		c.handlePlayAgain()
	case "rejoin":
		c.handleRejoin(envelope.Raw)
	case "draw_from_deck", "select_discard", "draw_from_discard", "swap_pending_draw",
		"discard_pending_draw", "reveal_after_discard", "discard_item_for_reveal",
		"use_item_card", "ready_for_next_round", "start_next_round":
		c.handleGameAction(envelope.Type, envelope.Raw)
	default:
		c.sendError("bad_request", "Unknown message type: "+envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("bad_request", "Invalid auth message.")
		return
	}
	if c.Hub.Auth == nil {
		c.sendError("auth_unavailable", "Server auth not configured.")
		return
	}
	if c.GameID() != "" {
		c.sendError("precondition_not_met", "Cannot change identity while in a game.")
		return
	}
	if c.Queued() {
		c.sendError("precondition_not_met", "Cannot change identity while waiting for a match.")
		return
	}
	id, err := c.Hub.Auth.Validate(msg.Token)
	if err != nil {
		slog.Info("rejected token", "tag", "ws", "error", err)
		c.sendError("unauthorized", "Invalid or expired token.")
		return
	}
	c.UserID = id.UserID
	c.Name = id.Name
	wsutil.SafeSend(c.Send, marshal(AuthOKMsg{Type: "auth_ok", UserID: id.UserID, Name: id.Name}))

	if c.Hub.Matchmaker == nil {
		return
	}
	gameID, err := c.Hub.Matchmaker.RejoinByUser(c.Context(), c)
	switch {
	case err == nil:
		slog.Info("player rejoined", "tag", "ws", "user", c.UserID, "game", gameID)
	case errors.Is(err, matcherrors.ErrNoActiveGame):
	default:
		slog.Warn("rejoin after auth failed", "tag", "ws", "user", c.UserID, "error", err)
	}
}

func (c *Client) handleSetName(raw json.RawMessage) {
	var msg SetNameMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad_request", "Invalid set_name message.")
		return
	}

	name := strings.TrimSpace(msg.Name)
	maxLen := c.Hub.Config.MaxNameLength
	if n := utf8.RuneCountInString(name); n < 1 || n > maxLen {
		c.sendError("bad_request", fmt.Sprintf("Name must be between 1 and %d characters.", maxLen))
		return
	}

	if c.GameID() != "" {
		c.sendError("precondition_not_met", "Cannot change name while in a game.")
		return
	}
	if c.Queued() {
		c.sendError("precondition_not_met", "Cannot change name while waiting for a match.")
		return
	}

	c.Name = name
	if c.UserID == "" {
		c.UserID = GuestPrefix + uuid.NewString()
	}

	c.enqueue()
}

func (c *Client) handlePlayAgain() {
	if c.UserID == "" || c.Name == "" {
		c.sendErr(matcherrors.ErrNotIdentified)
		return
	}
	if gameID := c.GameID(); gameID != "" {
		g, err := c.Hub.Engine.Store().ReadGame(c.Context(), gameID)
		if err == nil && g.Status != game.StatusGameComplete {
			c.sendError("precondition_not_met", "Cannot play again while in an active game.")
			return
		}
	}

	c.LeaveGame()
	c.enqueue()
}

func (c *Client) handleRejoin(raw json.RawMessage) {
	var msg RejoinMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad_request", "Invalid rejoin message.")
		return
	}
	if c.UserID == "" {
		c.sendErr(matcherrors.ErrNotIdentified)
		return
	}
	if c.Hub.Matchmaker == nil {
		c.sendError("matchmaking_unavailable", "Matchmaking is not running.")
		return
	}
	if c.Queued() {
		c.sendError("precondition_not_met", "Cannot rejoin while waiting for a match.")
		return
	}
	var err error
	if msg.GameID == "" {
		_, err = c.Hub.Matchmaker.RejoinByUser(c.Context(), c)
	} else {
		err = c.Hub.Matchmaker.Rejoin(c.Context(), c, msg.GameID)
	}
	if err != nil {
		c.sendErr(err)
	}
}

func (c *Client) enqueue() {
	if c.Hub.Matchmaker == nil {
		c.sendError("matchmaking_unavailable", "Matchmaking is not running.")
		return
	}
	c.mu.Lock()
	c.queued = true
	c.mu.Unlock()
	c.Hub.Matchmaker.Enqueue(c)
	wsutil.SafeSend(c.Send, marshal(WaitingForMatchMsg{Type: "waiting_for_match"}))
}

func (c *Client) handleGameAction(kind string, raw json.RawMessage) {
	gameID := c.GameID()
	if gameID == "" {
		c.sendError("not_in_game", "You are not in a game.")
		return
	}
	eng := c.Hub.Engine
	ctx := c.Context()

	var err error
	switch kind {
	case "draw_from_deck":
		err = eng.DrawFromDeck(ctx, gameID, c.UserID)
	case "select_discard":
		err = eng.SelectDiscard(ctx, gameID, c.UserID)
	case "draw_from_discard":
		var slot int
		if slot, err = decodeSlot(raw, true); err == nil {
			err = eng.DrawFromDiscard(ctx, gameID, c.UserID, slot)
		}
	case "swap_pending_draw":
		var slot int
		if slot, err = decodeSlot(raw, false); err == nil {
			err = eng.SwapPendingDraw(ctx, gameID, c.UserID, slot)
		}
	case "discard_pending_draw":
		err = eng.DiscardPendingDraw(ctx, gameID, c.UserID)
	case "reveal_after_discard":
		var slot int
		if slot, err = decodeSlot(raw, false); err == nil {
			err = eng.RevealAfterDiscard(ctx, gameID, c.UserID, slot)
		}
	case "discard_item_for_reveal":
		err = eng.DiscardItemForReveal(ctx, gameID, c.UserID)
	case "use_item_card":
		var req game.ItemRequest
		if req, err = decodeItemRequest(raw); err == nil {
			err = eng.UseItemCard(ctx, gameID, c.UserID, req)
		}
	case "ready_for_next_round":
		err = eng.ReadyForNextRound(ctx, gameID, c.UserID)
	case "start_next_round":
		err = eng.StartNextRound(ctx, gameID, c.UserID)
	}
	if err != nil {
		c.sendErr(err)
	}
}

// errNeedsConfirm rejects a cross-player swap the client has not confirmed.
var errNeedsConfirm = errors.New("swapping cards with another player needs confirmation")

var errBadPayload = errors.New("invalid message payload")

func decodeSlot(raw json.RawMessage, optional bool) (int, error) {
	var msg SlotMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, errBadPayload
	}
	if msg.Slot == nil {
		if optional {
			return game.NoSlot, nil
		}
		return 0, fmt.Errorf("%w: slot is required", game.ErrInvalidTarget)
	}
	return *msg.Slot, nil
}

func decodeItemRequest(raw json.RawMessage) (game.ItemRequest, error) {
	var msg UseItemCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return game.ItemRequest{}, errBadPayload
	}
	code, err := game.ParseItemCode(msg.Code)
	if err != nil {
		return game.ItemRequest{}, fmt.Errorf("%w: %v", game.ErrInvalidTarget, err)
	}
	if code == game.ItemSwap && item.IsCrossPlayer(msg.Targets) && !msg.Confirm {
		return game.ItemRequest{}, errNeedsConfirm
	}
	return game.ItemRequest{Code: code, Targets: msg.Targets, Value: msg.Value}, nil
}

// errorCode maps engine and lobby errors to client-facing codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errNeedsConfirm):
		return "confirmation_required"
	case errors.Is(err, errBadPayload):
		return "bad_request"
	case errors.Is(err, matcherrors.ErrGameNotFound):
		return "not_found"
	case errors.Is(err, matcherrors.ErrGameFinished):
		return "game_finished"
	case errors.Is(err, matcherrors.ErrNotSeated):
		return "permission_denied"
	case errors.Is(err, matcherrors.ErrNoActiveGame):
		return "no_active_game"
	case errors.Is(err, matcherrors.ErrAlreadyQueued):
		return "already_queued"
	case errors.Is(err, matcherrors.ErrNotIdentified):
		return "not_identified"
	default:
		return game.ErrorCode(err)
	}
}

func (c *Client) sendErr(err error) {
	code := errorCode(err)
	msg := err.Error()
	if code == "internal" {
		slog.Error("action failed", "tag", "ws", "user", c.UserID, "game", c.GameID(), "error", err)
		msg = "Something went wrong, try again."
	}
	c.sendError(code, msg)
}

func (c *Client) sendError(code, message string) {
	wsutil.SafeSend(c.Send, marshal(ErrorMsg{Type: "error", Code: code, Message: message}))
}
