package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"skyjo-server/auth"
	"skyjo-server/config"
	"skyjo-server/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MatchmakerInterface defines what the Hub needs from the Matchmaker.
type MatchmakerInterface interface {
	Enqueue(c *Client)
	LeaveQueue(c *Client)
	Rejoin(ctx context.Context, c *Client, gameID string) error
	RejoinByUser(ctx context.Context, c *Client) (string, error)
}

// Hub maintains the set of active clients and routes messages.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Matchmaker MatchmakerInterface
	Config     *config.Config
	Engine     *game.Engine
	Auth       *auth.Validator

	connected atomic.Int64
}

// NewHub creates a new Hub. validator may be nil, in which case only guests can play.
func NewHub(cfg *config.Config, mm MatchmakerInterface, eng *game.Engine, validator *auth.Validator) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Matchmaker: mm,
		Config:     cfg,
		Engine:     eng,
		Auth:       validator,
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			h.connected.Store(int64(len(h.Clients)))
			slog.Info("client connected", "tag", "ws", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				h.connected.Store(int64(len(h.Clients)))
				client.close()
				if h.Matchmaker != nil {
					h.Matchmaker.LeaveQueue(client)
				}
				// The seat stays in its game; the player can rejoin from a new connection.
				slog.Info("client disconnected", "tag", "ws", "clients", len(h.Clients), "user", client.UserID, "game", client.GameID())
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "error", err)
		return
	}

	client := NewClient(h, conn)
	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// Connected returns the number of open connections.
func (h *Hub) Connected() int64 {
	return h.connected.Load()
}
