package ws

import (
	"encoding/json"

	"skyjo-server/game"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg is sent by the client with a Neon Auth JWT before set_name.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// SetNameMsg is sent by the client to declare a display name and join the queue.
type SetNameMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// PlayAgainMsg is sent by the client to re-enter matchmaking.
type PlayAgainMsg struct {
	Type string `json:"type"`
}

// RejoinMsg reattaches an identified client to a game it is seated in.
// An empty GameID means the user's most recent active game.
type RejoinMsg struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
}

// SlotMsg carries the slot for draw_from_discard, swap_pending_draw and
// reveal_after_discard. draw_from_discard without a slot holds the card.
type SlotMsg struct {
	Type string `json:"type"`
	Slot *int   `json:"slot"`
}

// UseItemCardMsg plays the pending item card.
// Confirm must be true for a swap that moves cards between two players.
type UseItemCardMsg struct {
	Type    string        `json:"type"`
	Code    string        `json:"code"`
	Targets []game.Target `json:"targets"`
	Value   int           `json:"value"`
	Confirm bool          `json:"confirm"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
// Code is one of the game.ErrorCode values or a lobby code.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AuthOKMsg confirms a validated token.
type AuthOKMsg struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// WaitingForMatchMsg confirms the player is in the matchmaking queue.
type WaitingForMatchMsg struct {
	Type string `json:"type"`
}

// SeatInfo describes one seat in a new game.
type SeatInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot,omitempty"`
}

// MatchFoundMsg is sent when a game has been created for the player.
type MatchFoundMsg struct {
	Type      string     `json:"type"`
	GameID    string     `json:"gameId"`
	You       string     `json:"you"`
	HostID    string     `json:"hostId"`
	Players   []SeatInfo `json:"players"`
	SpikeMode bool       `json:"spikeMode"`
}

func marshal(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
