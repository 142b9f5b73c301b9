package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"skyjo-server/auth"
	"skyjo-server/config"
	"skyjo-server/game"
	"skyjo-server/storage"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// StandingsSource ranks the players of a game. *game.Engine implements it.
type StandingsSource interface {
	Standings(ctx context.Context, gameID string) ([]game.Standing, error)
}

// ConnCounter reports open WebSocket connections. *ws.Hub implements it.
type ConnCounter interface {
	Connected() int64
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config       *config.Config
	Games        StandingsSource
	HistoryStore storage.HistoryStore
	Auth         *auth.Validator

	// Conns is optional; Health reports 0 without it.
	Conns ConnCounter
}

// NewHandler creates a new API handler with the given dependencies.
// historyStore and validator may be nil.
func NewHandler(cfg *config.Config, games StandingsSource, historyStore storage.HistoryStore, validator *auth.Validator) *Handler {
	return &Handler{
		Config:       cfg,
		Games:        games,
		HistoryStore: historyStore,
		Auth:         validator,
	}
}

// Routes registers the API endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games/{id}/standings", h.Standings)
	mux.HandleFunc("/api/history", h.History)
	mux.HandleFunc("/api/leaderboard", h.Leaderboard)
	mux.HandleFunc("/api/health", h.Health)
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// preflight handles CORS and rejects anything but GET. It reports whether the
// request was fully answered.
func preflight(w http.ResponseWriter, r *http.Request) bool {
	if CORS(w, r) {
		return true
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return true
	}
	return false
}

// extractUserID validates the Authorization header and returns the user ID, or empty string on failure.
func (h *Handler) extractUserID(r *http.Request) string {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return ""
	}
	id, err := h.Auth.Validate(token)
	if err != nil {
		slog.Debug("rejected bearer token", "tag", "api", "error", err)
		return ""
	}
	return id.UserID
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "tag", "api", "error", err)
	}
}

// StandingsResponse is the JSON structure for /api/games/{id}/standings.
type StandingsResponse struct {
	GameID    string          `json:"game_id"`
	Standings []game.Standing `json:"standings"`
}

// Standings returns the ranked totals of a game.
func (h *Handler) Standings(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	gameID := r.PathValue("id")
	if gameID == "" {
		http.Error(w, "game id required", http.StatusBadRequest)
		return
	}
	standings, err := h.Games.Standings(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		slog.Error("Standings", "tag", "api", "game", gameID, "error", err)
		http.Error(w, "failed to load standings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, StandingsResponse{GameID: gameID, Standings: standings})
}

// History returns the game history for the authenticated user.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}

	userID := h.extractUserID(r)
	if userID == "" {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	list := []storage.GameRecord{}
	if h.HistoryStore != nil {
		var err error
		list, err = h.HistoryStore.ListByUserID(r.Context(), userID)
		if err != nil {
			slog.Error("ListByUserID", "tag", "api", "error", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, list)
}

// LeaderboardResponse is the JSON structure for /api/leaderboard.
type LeaderboardResponse struct {
	Entries          []storage.LeaderboardEntry `json:"entries"`
	CurrentUserEntry *storage.LeaderboardEntry  `json:"current_user_entry"`
}

// Leaderboard returns the global leaderboard with optional current user entry.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	entries := []storage.LeaderboardEntry{}
	if h.HistoryStore != nil {
		var err error
		entries, err = h.HistoryStore.ListLeaderboard(r.Context(), limit, offset)
		if err != nil {
			slog.Error("ListLeaderboard", "tag", "api", "error", err)
			http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
			return
		}
	}

	var currentUserEntry *storage.LeaderboardEntry
	authUserID := h.extractUserID(r)
	if authUserID != "" && h.HistoryStore != nil {
		inTop := false
		for i := range entries {
			if entries[i].UserID == authUserID {
				entries[i].IsCurrentUser = true
				inTop = true
				break
			}
		}
		if !inTop {
			cur, err := h.HistoryStore.GetLeaderboardEntryByUserID(r.Context(), authUserID)
			if err != nil {
				slog.Warn("GetLeaderboardEntryByUserID", "tag", "api", "error", err)
			} else if cur != nil {
				cur.IsCurrentUser = true
				currentUserEntry = cur
			}
		}
	}

	writeJSON(w, LeaderboardResponse{Entries: entries, CurrentUserEntry: currentUserEntry})
}

// HealthResponse is the JSON structure for /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	History bool   `json:"history"`
	Auth    bool   `json:"auth"`
	Clients int64  `json:"clients"`
}

// Health reports which optional services are configured.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}
	resp := HealthResponse{
		Status:  "ok",
		Backend: h.Config.StoreBackend,
		History: h.HistoryStore != nil,
		Auth:    h.Auth != nil,
	}
	if h.Conns != nil {
		resp.Clients = h.Conns.Connected()
	}
	writeJSON(w, resp)
}
