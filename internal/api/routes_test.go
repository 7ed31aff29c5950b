package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/gin-gonic/gin"
	"github.com/playpool/duelserver/internal/auth"
	"github.com/playpool/duelserver/internal/config"
	"github.com/playpool/duelserver/internal/game"
	"github.com/playpool/duelserver/internal/ledger"
	"github.com/playpool/duelserver/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) Send(string, string, any) {}
func (nopNotifier) Close(string) {}

func newRouter(t *testing.T, env string) (*gin.Engine, *game.Manager, *ledger.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashAdminToken("opsecret")
	require.NoError(t, err)
	cfg := &config.Config{Environment: env, AdminTokenHash: hash}

	mem := ledger.NewMemory(0, 0)
	mgr := game.NewManager(game.Config{Ledger: mem, Notifier: nopNotifier{}, GracePeriod: time.Hour})
	hub := ws.NewHub(mgr, slog.Disabled)

	r := gin.New()
	SetupRoutes(r, Deps{
		Config:  cfg,
		Manager: mgr,
		Hub:     hub,
		Ledger:  mem,
		Tokens:  auth.NewTokenVerifier("dev-secret"),
	})
	return r, mgr, mem
}

func get(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _, _ := newRouter(t, "development")
	w := get(r, "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func seatTwoPlayers(t *testing.T, mgr *game.Manager, mem *ledger.Memory) {
	t.Helper()
	ctx := context.Background()
	for i, acct := range []string{"alice", "bob", "carol"} {
		mem.Deposit(acct, 100)
		conn := acct + "-conn"
		mgr.Connect(conn)
		require.NoError(t, mgr.ClaimIdentity(conn, acct, acct, ""))
		stake := int64(20)
		if i == 2 {
			stake = 50
		}
		mgr.JoinQueue(ctx, conn, stake)
	}
}

func TestQueueStatus(t *testing.T) {
	r, mgr, mem := newRouter(t, "development")
	seatTwoPlayers(t, mgr, mem)

	w := get(r, "/api/v1/queue/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"buckets":[{"stake":50,"waiting":1}],"total_waiting":1}`, w.Body.String())
}

func TestAccountBalance(t *testing.T) {
	r, _, mem := newRouter(t, "development")
	mem.Deposit("alice", 75)

	w := get(r, "/api/v1/accounts/alice/balance")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account_id":"alice","balance":75}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(r, "/api/v1/accounts/nobody/balance").Code)
}

func TestAdminMatches(t *testing.T) {
	r, mgr, mem := newRouter(t, "development")
	seatTwoPlayers(t, mgr, mem)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/admin/matches").Code)

	w := get(r, "/api/v1/admin/matches", "Authorization", "Bearer opsecret")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Count   int                 `json:"count"`
		Matches []game.MatchSummary `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, int64(40), body.Matches[0].Pot)
	assert.Equal(t, game.PhaseStarting, body.Matches[0].Phase)

	w = get(r, "/api/v1/admin/stats", "X-Admin-Token", "opsecret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active_matches":1,"waiting":1,"connections":0}`, w.Body.String())
}

func TestDevTokenOnlyOutsideProduction(t *testing.T) {
	body := `{"account_id":"alice"}`

	r, _, _ := newRouter(t, "development")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dev/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NoError(t, auth.NewTokenVerifier("dev-secret").VerifyIdentity(resp.Token, "alice"))

	r, _, _ = newRouter(t, "production")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/dev/token", strings.NewReader(body))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
