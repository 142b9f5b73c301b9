package api

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyjo-server/auth"
	"skyjo-server/config"
	"skyjo-server/game"
	"skyjo-server/storage"
)

const testIssuer = "https://auth.example.test"

type fakeGames map[string][]game.Standing

func (f fakeGames) Standings(_ context.Context, gameID string) ([]game.Standing, error) {
	s, ok := f[gameID]
	if !ok {
		return nil, game.ErrNotFound
	}
	return s, nil
}

type fakeHistory struct {
	records     map[string][]storage.GameRecord
	leaderboard []storage.LeaderboardEntry
	gotLimit    int
	failList    bool
}

func (f *fakeHistory) ListByUserID(_ context.Context, userID string) ([]storage.GameRecord, error) {
	if f.failList {
		return nil, errors.New("db down")
	}
	return f.records[userID], nil
}

func (f *fakeHistory) ListLeaderboard(_ context.Context, limit, offset int) ([]storage.LeaderboardEntry, error) {
	f.gotLimit = limit
	if offset >= len(f.leaderboard) {
		return []storage.LeaderboardEntry{}, nil
	}
	end := offset + limit
	if end > len(f.leaderboard) {
		end = len(f.leaderboard)
	}
	return append([]storage.LeaderboardEntry(nil), f.leaderboard[offset:end]...), nil
}

func (f *fakeHistory) GetLeaderboardEntryByUserID(_ context.Context, userID string) (*storage.LeaderboardEntry, error) {
	for _, e := range f.leaderboard {
		if e.UserID == userID {
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeHistory) RecordGameResult(context.Context, game.GameResult) error { return nil }
func (f *fakeHistory) Close() {}

func newValidator(t *testing.T) (*auth.Validator, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	raw := fmt.Sprintf(`{"keys":[{"kty":"OKP","crv":"Ed25519","alg":"EdDSA","use":"sig","kid":"k1","x":%q}]}`,
		base64.RawURLEncoding.EncodeToString(pub))
	v, err := auth.NewValidatorFromJWKS(testIssuer, []byte(raw))
	require.NoError(t, err)
	return v, priv
}

func bearer(t *testing.T, key ed25519.PrivateKey, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"iss": testIssuer, "sub": sub, "name": "Test", "exp": time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = "k1"
	s, err := tok.SignedString(key)
	require.NoError(t, err)
	return "Bearer " + s
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Routes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func leaderboard(n int) []storage.LeaderboardEntry {
	out := make([]storage.LeaderboardEntry, n)
	for i := range out {
		out[i] = storage.LeaderboardEntry{UserID: fmt.Sprintf("user-%d", i), DisplayName: "P", Games: 10, Wins: n - i}
	}
	return out
}

func TestStandings(t *testing.T) {
	games := fakeGames{"g1": {{PlayerID: "a", Name: "Ann", TotalScore: 12, Rank: 1}}}
	h := NewHandler(config.Defaults(), games, nil, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/games/g1/standings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp StandingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "g1", resp.GameID)
	assert.Equal(t, games["g1"], resp.Standings)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/games/nope/standings", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/games/g1/standings", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(config.Defaults(), fakeGames{}, nil, nil)
	rec := serve(h, httptest.NewRequest(http.MethodOptions, "/api/leaderboard", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHistory(t *testing.T) {
	v, key := newValidator(t)
	hist := &fakeHistory{records: map[string][]storage.GameRecord{
		"user-1": {{ID: "r1", GameID: "g1", Rounds: 4}},
	}}
	h := NewHandler(config.Defaults(), fakeGames{}, hist, v)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", bearer(t, key, "user-1"))
	rec = serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []storage.GameRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "g1", list[0].GameID)

	hist.failList = true
	req = httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", bearer(t, key, "user-1"))
	assert.Equal(t, http.StatusInternalServerError, serve(h, req).Code)
}

func TestHistoryWithoutAuthConfigured(t *testing.T) {
	_, key := newValidator(t)
	h := NewHandler(config.Defaults(), fakeGames{}, &fakeHistory{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("Authorization", bearer(t, key, "user-1"))
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
}

func TestLeaderboard(t *testing.T) {
	v, key := newValidator(t)
	hist := &fakeHistory{leaderboard: leaderboard(30)}
	h := NewHandler(config.Defaults(), fakeGames{}, hist, v)

	t.Run("default limit", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp LeaderboardResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Entries, defaultLeaderboardLimit)
		assert.Nil(t, resp.CurrentUserEntry)
	})

	t.Run("limit is capped", func(t *testing.T) {
		serve(h, httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=5000", nil))
		assert.Equal(t, maxLeaderboardLimit, hist.gotLimit)
	})

	t.Run("caller in the top rows", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=5", nil)
		req.Header.Set("Authorization", bearer(t, key, "user-2"))
		var resp LeaderboardResponse
		require.NoError(t, json.Unmarshal(serve(h, req).Body.Bytes(), &resp))
		assert.True(t, resp.Entries[2].IsCurrentUser)
		assert.Nil(t, resp.CurrentUserEntry)
	})

	t.Run("caller below the cut", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=5", nil)
		req.Header.Set("Authorization", bearer(t, key, "user-25"))
		var resp LeaderboardResponse
		require.NoError(t, json.Unmarshal(serve(h, req).Body.Bytes(), &resp))
		require.NotNil(t, resp.CurrentUserEntry)
		assert.Equal(t, "user-25", resp.CurrentUserEntry.UserID)
		assert.True(t, resp.CurrentUserEntry.IsCurrentUser)
	})
}

func TestLeaderboardWithoutHistory(t *testing.T) {
	h := NewHandler(config.Defaults(), fakeGames{}, nil, nil)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[],"current_user_entry":null}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := NewHandler(config.Defaults(), fakeGames{}, nil, nil)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, HealthResponse{Status: "ok", Backend: config.BackendMemory}, resp)
}
