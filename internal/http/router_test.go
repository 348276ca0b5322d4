package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squabble_server/internal/domain"
	"squabble_server/internal/game"
	"squabble_server/internal/service"
)

type fakeRooms struct{}

func (fakeRooms) RoomSnapshot(_ context.Context, gameID string) (*game.Snapshot, error) {
	if gameID != "g1" {
		return nil, &service.ValidationError{Code: service.CodeGameNotFound, Message: "game not found"}
	}
	return &game.Snapshot{ID: "g1", Status: domain.GameStatusPlaying, TimeRemaining: 42}, nil
}

func (fakeRooms) Leaderboard(_ context.Context, gameID string) ([]*domain.GameParticipant, error) {
	return []*domain.GameParticipant{
		{PlayerID: 1, GameID: gameID, Points: 3},
		{PlayerID: 2, GameID: gameID, Points: 11},
	}, nil
}

type fakeAudit struct {
	limit int
}

func (f *fakeAudit) GetByGame(_ context.Context, gameID string, limit int) ([]*domain.AuditLog, error) {
	f.limit = limit
	if gameID != "g1" {
		return nil, nil
	}
	return []*domain.AuditLog{
		{ID: 2, GameID: gameID, Action: domain.AuditActionGameEnd, Category: domain.AuditCategoryGame},
		{ID: 1, GameID: gameID, PlayerID: 1, Action: domain.AuditActionJoin, Category: domain.AuditCategoryLobby},
	}, nil
}

func newTestRouter(t *testing.T, burst int) *gin.Engine {
	t.Helper()
	return newTestRouterWithAudit(t, burst, &fakeAudit{})
}

func newTestRouterWithAudit(t *testing.T, burst int, audit *fakeAudit) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRouter(ctx, Deps{
		Rooms:         fakeRooms{},
		Audit:         audit,
		Auth:          service.NewAuthenticator("secret", ""),
		AllowedOrigin: "https://app.example",
		APIRatePerSec: 0.001,
		APIBurst:      burst,
		Version:       "test",
	})
}

func do(r http.Handler, method, path string, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(t, 10), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestGetSession(t *testing.T) {
	r := newTestRouter(t, 10)

	w := do(r, http.MethodGet, "/api/games/g1/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "g1", snap.ID)
	assert.Equal(t, 42, snap.TimeRemaining)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	w = do(r, http.MethodGet, "/api/games/nope/session", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), service.CodeGameNotFound)
}

func TestGetLeaderboardSorted(t *testing.T) {
	w := do(newTestRouter(t, 10), http.MethodGet, "/api/games/g1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GameID      string                    `json:"gameId"`
		Leaderboard []*domain.GameParticipant `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Leaderboard, 2)
	assert.Equal(t, int64(2), body.Leaderboard[0].PlayerID)
	assert.Equal(t, "g1", body.GameID)
}

func TestAPIRateLimit(t *testing.T) {
	r := newTestRouter(t, 2)
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/games/g1/leaderboard", "", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/api/games/g1/leaderboard", "", nil).Code)

	// health вне лимита
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", nil).Code)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, 10)

	w := do(r, http.MethodOptions, "/api/games/g1/session", "", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestIssueTokenNeedsBotToken(t *testing.T) {
	w := do(newTestRouter(t, 10), http.MethodPost, "/api/auth/token", `{"initData":"x"}`, map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAuditTrail(t *testing.T) {
	audit := &fakeAudit{}
	r := newTestRouterWithAudit(t, 10, audit)

	w := do(r, http.MethodGet, "/api/games/g1/audit", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		GameID string             `json:"gameId"`
		Events []*domain.AuditLog `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Events, 2)
	assert.Equal(t, domain.AuditActionGameEnd, body.Events[0].Action)
	assert.Equal(t, 50, audit.limit)

	w = do(r, http.MethodGet, "/api/games/g1/audit?limit=1000", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 200, audit.limit)

	w = do(r, http.MethodGet, "/api/games/empty/audit", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events":[]`)

	w = do(r, http.MethodGet, "/api/games/g1/audit?limit=-3", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
