/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Users and save slots (limit, deletion rules)
- Session lifecycle: attach, click, buy, sell, remove, reincarnate, save, detach
- Offline catch-up reporting
- Ledger, leaderboard, catalog, variables and metrics endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circle-engine/circles"
	"github.com/warp/circle-engine/factory"
	"github.com/warp/circle-engine/generic"
	"github.com/warp/circle-engine/generic/store"
)

var epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// fixedRoll is a RandomSource that always returns the same value.
type fixedRoll float64

func (f fixedRoll) Float64() float64 { return float64(f) }

type testServer struct {
	h      *Handler
	router http.Handler
	store  *store.Memory
	clock  *generic.ManualClock
}

func setupTestServer(t *testing.T) *testServer {
	g, problems, err := circles.NewGame(circles.Options{MaxOfflineTicks: 100})
	require.NoError(t, err)
	require.Empty(t, problems)

	mem := store.NewMemory()
	clock := generic.NewManualClock(epoch)
	sess := generic.NewSession(g, mem)
	sess.Clock = clock

	h := NewHandler(mem, sess, fixedRoll(0.9))
	sess.Notifier = h
	t.Cleanup(func() {
		h.stopOffline()
		sess.Wait()
	})
	return &testServer{h: h, router: NewRouter(h, nil), store: mem, clock: clock}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createUserWithSave creates a user and one save through the API.
func (ts *testServer) createUserWithSave(t *testing.T, name string) (UserDTO, SaveDTO) {
	rec := ts.do(t, "POST", "/api/users", CreateUserRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	u := decodeBody[UserDTO](t, rec)

	rec = ts.do(t, "POST", "/api/users/"+u.ID+"/saves", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return u, decodeBody[SaveDTO](t, rec)
}

// attach attaches a save and waits for its catch-up to finish.
func (ts *testServer) attach(t *testing.T, userID, saveID string) ViewDTO {
	rec := ts.do(t, "POST", "/api/session", AttachRequest{UserID: userID, SaveID: saveID})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	ts.waitOffline()
	return decodeBody[ViewDTO](t, rec)
}

// waitOffline blocks until the running catch-up finishes on its own.
func (ts *testServer) waitOffline() {
	ts.h.offMu.Lock()
	run := ts.h.offline
	ts.h.offMu.Unlock()
	if run != nil {
		<-run.done
	}
}

func (ts *testServer) setBalance(key string, v float64) {
	ts.h.Session.Do(generic.EventAction, func(_ *generic.Game, s *generic.Save) bool {
		s.Balance(key).Set(v)
		return true
	})
}

func findPurchase(v ViewDTO, id generic.PurchaseID) PurchaseDTO {
	for _, p := range v.Purchases {
		if p.ID == string(id) {
			return p
		}
	}
	return PurchaseDTO{}
}

// =============================================================================
// USERS AND SAVES
// =============================================================================

func TestCreateUser_AndSaveSlots(t *testing.T) {
	// GIVEN: A new user
	ts := setupTestServer(t)
	u, _ := ts.createUserWithSave(t, "ada")
	assert.Equal(t, "ada", u.Name)
	assert.Equal(t, generic.DefaultBulkBuy, u.BulkBuy)

	// WHEN: Creating two more saves and then a fourth
	for i := 0; i < 2; i++ {
		rec := ts.do(t, "POST", "/api/users/"+u.ID+"/saves", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := ts.do(t, "POST", "/api/users/"+u.ID+"/saves", nil)

	// THEN: The fourth is refused and three are listed
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = ts.do(t, "GET", "/api/users/"+u.ID+"/saves", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]SaveDTO](t, rec), generic.MaxSavesPerUser)
}

func TestCreateUser_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty body", nil},
		{"blank name", CreateUserRequest{Name: "   "}},
		{"long name", CreateUserRequest{Name: strings.Repeat("x", 256)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, "POST", "/api/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetUser_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "GET", "/api/users/nobody", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Failed to get user", decodeBody[ErrorResponse](t, rec).Error)
}

func TestDeleteSave_Rules(t *testing.T) {
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)

	rec := ts.do(t, "DELETE", "/api/saves/"+s.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "user_id is required")

	rec = ts.do(t, "DELETE", "/api/saves/"+s.ID+"?user_id="+u.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "attached save cannot be deleted")

	require.Equal(t, http.StatusNoContent, ts.do(t, "DELETE", "/api/session", nil).Code)
	rec = ts.do(t, "DELETE", "/api/saves/"+s.ID+"?user_id="+u.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, "DELETE", "/api/saves/"+s.ID+"?user_id="+u.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SESSION
// =============================================================================

func TestSession_IdleRequestsConflict(t *testing.T) {
	ts := setupTestServer(t)

	for _, tt := range []struct{ method, path string }{
		{"GET", "/api/session"},
		{"POST", "/api/session/click"},
		{"POST", "/api/session/purchases/circle-factory-1/buy"},
		{"POST", "/api/session/reincarnate"},
		{"POST", "/api/session/save"},
		{"GET", "/api/session/transactions"},
	} {
		rec := ts.do(t, tt.method, tt.path, nil)
		assert.Equal(t, http.StatusConflict, rec.Code, tt.path)
	}

	// Detaching an idle session is not an error.
	assert.Equal(t, http.StatusNoContent, ts.do(t, "DELETE", "/api/session", nil).Code)
}

func TestSession_ClickBuyAndSave(t *testing.T) {
	// GIVEN: An attached fresh save
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	view := ts.attach(t, u.ID, s.ID)
	assert.Equal(t, s.ID, view.SaveID)
	assert.Equal(t, u.ID, view.UserID)

	// WHEN: Clicking ten times (roll 0.9 never drops a triangle)
	for i := 0; i < 10; i++ {
		rec := ts.do(t, "POST", "/api/session/click", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decodeBody[circles.ClickResult](t, rec)
		require.True(t, res.Applied)
		assert.Equal(t, 1.0, res.Circles)
		assert.Zero(t, res.Triangles)
	}

	// AND: Buying the first factory
	rec := ts.do(t, "POST", "/api/session/purchases/"+string(circles.FactoryID(1))+"/buy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	receipt := decodeBody[ReceiptDTO](t, rec)

	// THEN: One unit cost the ten circles
	assert.True(t, receipt.Applied)
	assert.Equal(t, 1, receipt.Count)
	assert.InDelta(t, 10.0, receipt.Cost, 1e-9)

	rec = ts.do(t, "GET", "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[ViewDTO](t, rec)
	assert.Equal(t, 1, findPurchase(view, circles.FactoryID(1)).Amount)
	assert.InDelta(t, 1.0, view.Production, 1e-9)

	// AND: The purchase is in the ledger before and after saving
	rec = ts.do(t, "GET", "/api/session/transactions", nil)
	txs := decodeBody[[]TransactionDTO](t, rec)
	require.Len(t, txs, 1)
	assert.Equal(t, "purchase", txs[0].Kind)
	assert.Equal(t, "-10", txs[0].Delta)

	require.Equal(t, http.StatusOK, ts.do(t, "POST", "/api/session/save", nil).Code)
	assert.Empty(t, ts.h.Session.PendingTransactions())
	rec = ts.do(t, "GET", "/api/session/transactions", nil)
	assert.Len(t, decodeBody[[]TransactionDTO](t, rec), 1)

	stored, err := ts.store.LoadSave(context.Background(), generic.UserID(u.ID), generic.SaveID(s.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Owned[circles.FactoryID(1)])
}

func TestSession_UnknownPurchase(t *testing.T) {
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)

	rec := ts.do(t, "POST", "/api/session/purchases/time-machine/buy", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_BulkBuyIntent(t *testing.T) {
	// GIVEN: An attached save with 100 circles and a "buy max" user
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)
	ts.setBalance(circles.KeyCircles, 100)

	rec := ts.do(t, "PUT", "/api/users/"+u.ID+"/bulk-buy", BulkBuyRequest{BulkBuy: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[UserDTO](t, rec).BulkBuy)

	// WHEN: Buying without an explicit intent
	path := "/api/session/purchases/" + string(circles.FactoryID(1)) + "/buy"
	receipt := decodeBody[ReceiptDTO](t, ts.do(t, "POST", path, nil))

	// THEN: Six factories fit in 100 circles (10 + 11.25 + ... + 18.02 = 82.18)
	assert.True(t, receipt.Applied)
	assert.Equal(t, 6, receipt.Count)
	assert.InDelta(t, 82.1829, receipt.Cost, 1e-3)

	// WHEN: Selling two with an explicit intent
	sell := -2
	receipt = decodeBody[ReceiptDTO](t, ts.do(t, "POST", path, BuyRequest{Intent: &sell}))

	// THEN: The two most expensive units are refunded
	assert.Equal(t, -2, receipt.Count)
	assert.InDelta(t, -(16.01807 + 18.02033), receipt.Cost, 1e-3)

	txs := decodeBody[[]TransactionDTO](t, ts.do(t, "GET", "/api/session/transactions", nil))
	require.Len(t, txs, 2)
	assert.Equal(t, "sale", txs[0].Kind)
	assert.Equal(t, "purchase", txs[1].Kind)
}

func TestSession_RemoveRefundsOneUnit(t *testing.T) {
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)
	ts.setBalance(circles.KeyCircles, 10)
	path := "/api/session/purchases/" + string(circles.FactoryID(1))
	require.True(t, decodeBody[ReceiptDTO](t, ts.do(t, "POST", path+"/buy", nil)).Applied)

	receipt := decodeBody[ReceiptDTO](t, ts.do(t, "POST", path+"/remove", nil))

	assert.True(t, receipt.Applied)
	assert.Equal(t, -1, receipt.Count)
	assert.InDelta(t, -10.0, receipt.Cost, 1e-9)
	assert.InDelta(t, 10.0, ts.h.Session.Snapshot().BalanceOf(circles.KeyCircles).Current, 1e-9)

	txs := decodeBody[[]TransactionDTO](t, ts.do(t, "GET", "/api/session/transactions", nil))
	require.Len(t, txs, 2)
	assert.Equal(t, "removal", txs[0].Kind)
	assert.Equal(t, "10", txs[0].Delta)

	// Nothing left to remove.
	receipt = decodeBody[ReceiptDTO](t, ts.do(t, "POST", path+"/remove", nil))
	assert.False(t, receipt.Applied)
}

func TestSession_Reincarnate(t *testing.T) {
	// GIVEN: A save four times past the threshold
	ts := setupTestServer(t)
	loaded := decodeBody[LoadScenarioResponse](t,
		ts.do(t, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "ready-to-reincarnate"}))
	view := ts.attach(t, loaded.User.ID, loaded.Save.ID)
	assert.InDelta(t, 2.0, view.PendingPrestige, 1e-9)

	// WHEN: Reincarnating
	rec := ts.do(t, "POST", "/api/session/reincarnate", nil)

	// THEN: Two squares gained and the incarnation reset
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[PrestigeDTO](t, rec)
	assert.True(t, res.Applied)
	assert.InDelta(t, 2.0, res.Gained, 1e-9)

	snap := ts.h.Session.Snapshot()
	assert.Zero(t, snap.BalanceOf(circles.KeyCircles).Current)
	assert.Zero(t, snap.Owned[circles.FactoryID(1)])
	assert.InDelta(t, 2.0, snap.BalanceOf(circles.KeySquares).Current, 1e-9)

	// AND: A second attempt has nothing to claim
	res = decodeBody[PrestigeDTO](t, ts.do(t, "POST", "/api/session/reincarnate", nil))
	assert.False(t, res.Applied)
}

func TestSession_OfflineCatchUp(t *testing.T) {
	// GIVEN: A save last written ten hours ago producing 34 circles/s
	ts := setupTestServer(t)
	loaded := decodeBody[LoadScenarioResponse](t,
		ts.do(t, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "long-absence"}))

	// WHEN: Attaching it
	ts.attach(t, loaded.User.ID, loaded.Save.ID)

	// THEN: Three hours are credited at 10% over all steps
	rec := ts.do(t, "GET", "/api/session/offline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[OfflineStatusDTO](t, rec)
	assert.False(t, status.Running)
	assert.False(t, status.Cancelled)
	assert.Equal(t, 100, status.Total)
	assert.Equal(t, 100, status.Done)
	assert.InDelta(t, (10 * time.Hour).Seconds(), status.Elapsed, 1e-6)
	assert.InDelta(t, (3 * time.Hour).Seconds(), status.Credited, 1e-6)
	assert.InDelta(t, 34*10800*0.1, status.Produced, 1e-6)
	assert.InDelta(t, 36720.0, ts.h.Session.Snapshot().BalanceOf(circles.KeyCircles).Current, 1e-6)

	txs := decodeBody[[]TransactionDTO](t, ts.do(t, "GET", "/api/session/transactions", nil))
	require.Len(t, txs, 1)
	assert.Equal(t, "offline", txs[0].Kind)

	// Cancelling a finished run changes nothing.
	status = decodeBody[OfflineStatusDTO](t, ts.do(t, "POST", "/api/session/offline/cancel", nil))
	assert.False(t, status.Cancelled)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.h.Metrics.OfflineRuns.WithLabelValues("completed")))
}

func TestSession_DetachWritesSave(t *testing.T) {
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)
	ts.setBalance(circles.KeyCircles, 42)
	ts.clock.Advance(time.Minute)

	rec := ts.do(t, "DELETE", "/api/session", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, ts.h.Session.Active())
	stored, err := ts.store.LoadSave(context.Background(), generic.UserID(u.ID), generic.SaveID(s.ID))
	require.NoError(t, err)
	assert.Equal(t, 42.0, stored.BalanceOf(circles.KeyCircles).Current)
	assert.Equal(t, epoch.Add(time.Minute), stored.LastSaved)
}

func TestSession_AttachReplacesAndKeepsProgress(t *testing.T) {
	// GIVEN: Save A attached with progress
	ts := setupTestServer(t)
	u, a := ts.createUserWithSave(t, "ada")
	b := decodeBody[SaveDTO](t, ts.do(t, "POST", "/api/users/"+u.ID+"/saves", nil))
	ts.attach(t, u.ID, a.ID)
	ts.setBalance(circles.KeyCircles, 7)

	// WHEN: Switching to B and back to A
	ts.attach(t, u.ID, b.ID)
	assert.Zero(t, ts.h.Session.Snapshot().BalanceOf(circles.KeyCircles).Current)
	ts.attach(t, u.ID, a.ID)

	// THEN: A's progress was written on the switch
	assert.Equal(t, 7.0, ts.h.Session.Snapshot().BalanceOf(circles.KeyCircles).Current)
}

func TestSession_SaveFailureIsRetryable(t *testing.T) {
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)
	ts.store.FailSaves = assert.AnError

	rec := ts.do(t, "POST", "/api/session/save", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ts.store.FailSaves = nil
}

// =============================================================================
// LEADERBOARD, CATALOG, VARIABLES, METRICS
// =============================================================================

func TestLeaderboard_RanksBestSaves(t *testing.T) {
	// GIVEN: Two users; bob's second save is his best
	ts := setupTestServer(t)
	ctx := context.Background()
	write := func(userID, saveID string, lifetime float64) {
		s, err := ts.store.LoadSave(ctx, generic.UserID(userID), generic.SaveID(saveID))
		require.NoError(t, err)
		s.Balance(circles.KeyCircles).Set(lifetime)
		require.NoError(t, ts.store.SaveChanges(ctx, s, nil))
	}
	ada, adaSave := ts.createUserWithSave(t, "ada")
	bob, bobSave := ts.createUserWithSave(t, "bob")
	bobBest := decodeBody[SaveDTO](t, ts.do(t, "POST", "/api/users/"+bob.ID+"/saves", nil))
	write(ada.ID, adaSave.ID, 500)
	write(bob.ID, bobSave.ID, 100)
	write(bob.ID, bobBest.ID, 900)

	// WHEN: Ranking by lifetime circles
	rec := ts.do(t, "GET", "/api/leaderboard/"+string(circles.LifetimeCircles), nil)

	// THEN: bob first with his best save, then ada
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]LeaderboardEntryDTO](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, LeaderboardEntryDTO{Rank: 1, UserID: bob.ID, UserName: "bob", SaveID: bobBest.ID, Value: 900}, entries[0])
	assert.Equal(t, ada.ID, entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)

	assert.Equal(t, http.StatusNotFound, ts.do(t, "GET", "/api/leaderboard/Nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/leaderboard/Clicks?limit=x", nil).Code)
}

func TestCatalog_Formats(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "GET", "/api/catalog?format=yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	cat, err := factory.NewCatalogFactory().Parse(rec.Body.Bytes(), factory.FormatYAML)
	require.NoError(t, err)
	assert.Len(t, cat.Purchases, len(ts.h.Game().Purchases()))
	assert.Equal(t, float64(circles.DefaultReincarnationCost), cat.Variables[circles.VarReincarnationCost])

	rec = ts.do(t, "GET", "/api/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/catalog?format=toml", nil).Code)
}

func TestSetVariable_PersistsAndApplies(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "PUT", "/api/admin/variables/"+circles.VarReincarnationCost, map[string]float64{"value": 1000})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000.0, ts.h.Game().Variables.Get(circles.VarReincarnationCost))
	stored, err := ts.store.LoadVariables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored[circles.VarReincarnationCost])

	vars := decodeBody[map[string]float64](t, ts.do(t, "GET", "/api/admin/variables", nil))
	assert.Equal(t, 1000.0, vars[circles.VarReincarnationCost])

	assert.Equal(t, http.StatusBadRequest,
		ts.do(t, "PUT", "/api/admin/variables/x", map[string]string{"v": "1"}).Code)
}

func TestMetrics_Endpoint(t *testing.T) {
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)
	ts.do(t, "POST", "/api/session/click", nil)

	rec := ts.do(t, "GET", "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "circles_clicks_total 1")
	assert.Contains(t, body, `circles_session_events_total{kind="attached"} 1`)
}
