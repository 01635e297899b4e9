/*
handlers.go - HTTP API handlers for the circle economy

PURPOSE:
  Exposes users, save slots and the live session via REST. Handles HTTP
  request/response and JSON serialization, and delegates to the session
  and the store.

ENDPOINTS:
  Users:
    GET    /api/users                       List users
    POST   /api/users                       Create user
    GET    /api/users/{id}                  Get user
    PUT    /api/users/{id}/bulk-buy         Set bulk-buy intent
    GET    /api/users/{id}/saves            List save slots
    POST   /api/users/{id}/saves            Create save slot (max 3)
    DELETE /api/saves/{id}?user_id=         Delete save slot

  Session:
    POST   /api/session                     Attach a save, start offline catch-up
    GET    /api/session                     Derived view of the attached save
    DELETE /api/session                     Save and detach
    POST   /api/session/click               Click the big button
    POST   /api/session/purchases/{id}/buy  Buy (intent defaults to bulk-buy)
    POST   /api/session/purchases/{id}/remove  Remove one unit with refund
    POST   /api/session/reincarnate         Claim pending prestige
    POST   /api/session/save                Save now
    GET    /api/session/offline             Catch-up progress
    POST   /api/session/offline/cancel      Credit the rest at once
    GET    /api/session/transactions        Ledger, newest first

  Other:
    GET    /api/leaderboard/{dependency}    Top users by a dependency
    GET    /api/catalog?format=yaml|json    Active purchase catalog
    GET    /api/scenarios                   Demo scenarios
    POST   /api/scenarios/load              Create a demo save
    GET    /api/admin/variables             Tunables
    PUT    /api/admin/variables/{name}      Persist a tunable

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: User, save, purchase or dependency not found
  - 409: No attached save, save limit reached, save in use
  - 503: Store write failed (retry later)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. A user id is trusted as given.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - generic/session.go: The session these handlers drive
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/circle-engine/circles"
	"github.com/warp/circle-engine/factory"
	"github.com/warp/circle-engine/generic"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   generic.Store
	Session *generic.Session
	Catalog *factory.CatalogFactory
	Random  generic.RandomSource
	Metrics *Metrics
	Hub     *Hub

	// attachMu serializes attach and detach.
	attachMu sync.Mutex

	offMu   sync.Mutex
	offline *offlineRun
}

// offlineRun tracks the catch-up started by the last attach.
type offlineRun struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	progress int
	total    int
	result   generic.OfflineResult
	finished bool
}

func (r *offlineRun) status() OfflineStatusDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	return toOfflineDTO(r.result, !r.finished, r.progress, r.total)
}

// NewHandler creates a handler. rng feeds the triangle roll of clicks.
func NewHandler(store generic.Store, sess *generic.Session, rng generic.RandomSource) *Handler {
	return &Handler{
		Store:   store,
		Session: sess,
		Catalog: factory.NewCatalogFactory(),
		Random:  rng,
		Metrics: NewMetrics(),
	}
}

// Game is the engine the session runs.
func (h *Handler) Game() *generic.Game {
	return h.Session.Game
}

// Notify feeds session events to the metrics and the WebSocket hub.
func (h *Handler) Notify(ev generic.Event) {
	if h.Metrics != nil {
		h.Metrics.Observe(ev)
	}
	if h.Hub != nil {
		h.Hub.Notify(ev)
	}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUser creates a user.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 255 {
		writeError(w, http.StatusBadRequest, "Name must be 1 to 255 characters", nil)
		return
	}

	u, err := h.Store.CreateUser(r.Context(), name, h.Session.Clock.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	log.Printf("[API] Created user %s (%s)", u.ID, u.Name)
	writeJSON(w, http.StatusCreated, toUserDTO(u))
}

// GetUser returns one user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetUser(r.Context(), generic.UserID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// SetBulkBuy stores a user's bulk-buy intent. The attached session picks
// it up immediately when it belongs to that user.
// PUT /api/users/{id}/bulk-buy
func (h *Handler) SetBulkBuy(w http.ResponseWriter, r *http.Request) {
	id := generic.UserID(chi.URLParam(r, "id"))
	var req BulkBuyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SetBulkBuy(r.Context(), id, req.BulkBuy); err != nil {
		writeDomainError(w, "Failed to set bulk buy", err)
		return
	}
	if u, ok := h.Session.User(); ok && u.ID == id {
		h.Session.SetBulkBuy(req.BulkBuy)
	}

	u, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(u))
}

// =============================================================================
// SAVE SLOT HANDLERS
// =============================================================================

// ListSaves returns a user's save slots.
func (h *Handler) ListSaves(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.UserID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetUser(ctx, id); err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}

	saves, err := h.Store.ListSaves(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list saves", err)
		return
	}

	// The attached slot is reported live rather than as last written.
	live := h.Session.Snapshot()
	dtos := make([]SaveDTO, len(saves))
	for i, s := range saves {
		if live != nil && live.ID == s.ID {
			dtos[i] = toSaveDTO(live, true)
			continue
		}
		dtos[i] = toSaveDTO(s, false)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSave adds an empty save slot.
// POST /api/users/{id}/saves
func (h *Handler) CreateSave(w http.ResponseWriter, r *http.Request) {
	id := generic.UserID(chi.URLParam(r, "id"))
	s, err := h.Store.CreateSave(r.Context(), id, h.Session.Clock.Now())
	if err != nil {
		writeDomainError(w, "Failed to create save", err)
		return
	}
	log.Printf("[API] Created save %s for user %s", s.ID, id)
	writeJSON(w, http.StatusCreated, toSaveDTO(s, false))
}

// DeleteSave removes a save slot. The attached save cannot be deleted.
// DELETE /api/saves/{id}?user_id=
func (h *Handler) DeleteSave(w http.ResponseWriter, r *http.Request) {
	saveID := generic.SaveID(chi.URLParam(r, "id"))
	userID := generic.UserID(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	h.attachMu.Lock()
	defer h.attachMu.Unlock()

	if live := h.Session.Snapshot(); live != nil && live.ID == saveID {
		writeError(w, http.StatusConflict, "Save is attached; detach it first", nil)
		return
	}
	if err := h.Store.DeleteSave(r.Context(), userID, saveID); err != nil {
		writeDomainError(w, "Failed to delete save", err)
		return
	}
	log.Printf("[API] Deleted save %s of user %s", saveID, userID)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// Attach loads a save into the session, replacing (and saving) the one
// attached before, and starts the offline catch-up in the background.
// POST /api/session
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AttachRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.SaveID == "" {
		writeError(w, http.StatusBadRequest, "user_id and save_id are required", nil)
		return
	}

	h.attachMu.Lock()
	defer h.attachMu.Unlock()

	u, err := h.Store.GetUser(ctx, generic.UserID(req.UserID))
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}

	// Write the current save first so re-attaching it loads fresh state.
	h.stopOffline()
	if err := h.Session.Detach(ctx); err != nil {
		writeDomainError(w, "Failed to save the attached save", err)
		return
	}

	sv, err := h.Store.LoadSave(ctx, u.ID, generic.SaveID(req.SaveID))
	if err != nil {
		writeDomainError(w, "Failed to load save", err)
		return
	}

	h.Session.Attach(u, sv)
	h.startOffline()

	dto := toViewDTO(h.Session.View())
	dto.UserID = string(u.ID)
	dto.OfflineRunning = true
	writeJSON(w, http.StatusAccepted, dto)
}

// Detach saves and detaches the attached save.
// DELETE /api/session
func (h *Handler) Detach(w http.ResponseWriter, r *http.Request) {
	h.attachMu.Lock()
	defer h.attachMu.Unlock()

	h.stopOffline()
	if err := h.Session.Detach(r.Context()); err != nil {
		writeDomainError(w, "Failed to save before detaching", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Shutdown stops the catch-up and writes the attached save. Used on
// server exit after the scheduler has stopped.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.attachMu.Lock()
	defer h.attachMu.Unlock()

	h.stopOffline()
	err := h.Session.Detach(ctx)
	h.Session.Wait()
	return err
}

// GetSession returns the derived view of the attached save.
// GET /api/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	u, ok := h.Session.User()
	if !ok {
		writeDomainError(w, "No save attached", generic.ErrNoActiveSave)
		return
	}
	dto := toViewDTO(h.Session.View())
	dto.UserID = string(u.ID)
	dto.OfflineRunning = h.offlineStatus().Running
	writeJSON(w, http.StatusOK, dto)
}

// Click clicks the big button. Applied is false during offline catch-up.
// POST /api/session/click
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	if !h.Session.Active() {
		writeDomainError(w, "No save attached", generic.ErrNoActiveSave)
		return
	}
	res := circles.Click(h.Session, h.Random)
	if res.Applied {
		h.Metrics.Clicks.Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

// Buy applies a bulk-buy intent to a purchase.
// POST /api/session/purchases/{id}/buy
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	u, ok := h.Session.User()
	if !ok {
		writeDomainError(w, "No save attached", generic.ErrNoActiveSave)
		return
	}
	var req BuyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	intent := u.BulkBuy
	if req.Intent != nil {
		intent = *req.Intent
	}

	id := generic.PurchaseID(chi.URLParam(r, "id"))
	receipt, err := h.Session.Buy(id, intent)
	if err != nil {
		writeDomainError(w, "Failed to buy", err)
		return
	}
	kind := generic.TxPurchase
	if receipt.Count < 0 {
		kind = generic.TxSale
	}
	h.Metrics.ObserveReceipt(kind, id, receipt)
	writeJSON(w, http.StatusOK, ReceiptDTO{PurchaseID: string(id), Applied: receipt.Applied, Count: receipt.Count, Cost: receipt.Cost})
}

// Remove takes one unit of a purchase away and refunds it.
// POST /api/session/purchases/{id}/remove
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if !h.Session.Active() {
		writeDomainError(w, "No save attached", generic.ErrNoActiveSave)
		return
	}
	id := generic.PurchaseID(chi.URLParam(r, "id"))
	receipt, err := h.Session.Remove(id)
	if err != nil {
		writeDomainError(w, "Failed to remove", err)
		return
	}
	h.Metrics.ObserveReceipt(generic.TxRemoval, id, receipt)
	writeJSON(w, http.StatusOK, ReceiptDTO{PurchaseID: string(id), Applied: receipt.Applied, Count: receipt.Count, Cost: receipt.Cost})
}

// Reincarnate claims the pending prestige reward.
// POST /api/session/reincarnate
func (h *Handler) Reincarnate(w http.ResponseWriter, r *http.Request) {
	if !h.Session.Active() {
		writeDomainError(w, "No save attached", generic.ErrNoActiveSave)
		return
	}
	res := h.Session.Reincarnate()
	if res.Applied {
		h.Metrics.Reincarnates.Inc()
	}
	writeJSON(w, http.StatusOK, PrestigeDTO{Applied: res.Applied, Gained: res.Gained})
}

// SaveNow writes the attached save and its pending ledger entries.
// POST /api/session/save
func (h *Handler) SaveNow(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.SaveNow(r.Context()); err != nil {
		writeDomainError(w, "Failed to save", err)
		return
	}
	snap := h.Session.Snapshot()
	if snap == nil {
		writeDomainError(w, "No save attached", generic.ErrNoActiveSave)
		return
	}
	writeJSON(w, http.StatusOK, toSaveDTO(snap, true))
}

// GetOffline reports the progress of the catch-up.
// GET /api/session/offline
func (h *Handler) GetOffline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.offlineStatus())
}

// CancelOffline stops the stepping; the rest of the window is credited at once.
// POST /api/session/offline/cancel
func (h *Handler) CancelOffline(w http.ResponseWriter, r *http.Request) {
	h.stopOffline()
	writeJSON(w, http.StatusOK, h.offlineStatus())
}

// GetTransactions returns the ledger of the attached save, newest first,
// including entries not yet written.
// GET /api/session/transactions?limit=
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()
	if snap == nil {
		writeDomainError(w, "No save attached", generic.ErrNoActiveSave)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	pending := h.Session.PendingTransactions()
	dtos := make([]TransactionDTO, 0, len(pending))
	for i := len(pending) - 1; i >= 0; i-- {
		dtos = append(dtos, toTransactionDTO(pending[i]))
	}

	stored, err := h.Store.Transactions(r.Context(), snap.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	for _, tx := range stored {
		dtos = append(dtos, toTransactionDTO(tx))
	}
	if limit > 0 && len(dtos) > limit {
		dtos = dtos[:limit]
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// OFFLINE CATCH-UP
// =============================================================================

// startOffline runs the catch-up of the freshly attached save.
func (h *Handler) startOffline() {
	ctx, cancel := context.WithCancel(context.Background())
	run := &offlineRun{cancel: cancel, done: make(chan struct{})}

	h.offMu.Lock()
	h.offline = run
	h.offMu.Unlock()

	go func() {
		defer close(run.done)
		defer cancel()

		res := h.Session.CatchUp(ctx, func(done, total int) {
			run.mu.Lock()
			run.progress, run.total = done, total
			run.mu.Unlock()
			if h.Hub != nil && (done == total || done%max(total/100, 1) == 0) {
				h.Hub.Publish(Message{Type: "offline_progress", Payload: run.status()})
			}
		})

		run.mu.Lock()
		run.result = res
		run.total = res.Ticks
		run.finished = true
		run.mu.Unlock()

		outcome := "completed"
		switch {
		case res.Credited <= 0:
			outcome = "idle"
		case res.Cancelled:
			outcome = "cancelled"
		}
		h.Metrics.OfflineRuns.WithLabelValues(outcome).Inc()
	}()
}

// stopOffline cancels the running catch-up and waits for it.
func (h *Handler) stopOffline() {
	h.offMu.Lock()
	run := h.offline
	h.offMu.Unlock()
	if run == nil {
		return
	}
	run.cancel()
	<-run.done
}

func (h *Handler) offlineStatus() OfflineStatusDTO {
	h.offMu.Lock()
	run := h.offline
	h.offMu.Unlock()
	if run == nil {
		return OfflineStatusDTO{}
	}
	return run.status()
}

// =============================================================================
// LEADERBOARD AND CATALOG
// =============================================================================

// GetLeaderboard ranks users by a dependency of their best save.
// GET /api/leaderboard/{dependency}?limit=
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	depID := generic.DependencyID(chi.URLParam(r, "dependency"))
	dep, ok := h.Game().Registry.Lookup(depID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown dependency", fmt.Errorf("%w: %s", generic.ErrUnknownDependency, depID))
		return
	}
	limit, err := queryInt(r, "limit", generic.LeaderboardSize)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	users, err := h.Store.ListUsers(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	saves, err := h.Store.AllSaves(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list saves", err)
		return
	}
	if live := h.Session.Snapshot(); live != nil {
		for i, s := range saves {
			if s.ID == live.ID {
				saves[i] = live
			}
		}
	}

	entries := generic.Leaderboard(dep, users, saves, limit)
	dtos := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LeaderboardEntryDTO{
			Rank:     e.Rank,
			UserID:   string(e.UserID),
			UserName: e.UserName,
			SaveID:   string(e.SaveID),
			Value:    e.Value,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCatalog returns the active purchases and tunables in catalog file form.
// GET /api/catalog?format=yaml|json
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	format := factory.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = factory.FormatJSON
	}
	data, err := h.Catalog.Encode(h.Game().Purchases(), h.variables(), format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to encode catalog", err)
		return
	}
	contentType := "application/json"
	if format == factory.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// ADMIN
// =============================================================================

// ListVariables returns every tunable with its effective value.
func (h *Handler) ListVariables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.variables())
}

// SetVariable persists a tunable and applies it to the running game.
// PUT /api/admin/variables/{name}
func (h *Handler) SetVariable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Value *float64 `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "Body must be {\"value\": number}", err)
		return
	}
	if err := h.Store.SetVariable(r.Context(), name, *req.Value); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Failed to store variable", err)
		return
	}
	h.Game().Variables.Set(name, *req.Value)
	log.Printf("[API] Variable %s set to %g", name, *req.Value)
	writeJSON(w, http.StatusOK, map[string]float64{name: *req.Value})
}

func (h *Handler) variables() map[string]float64 {
	vars := h.Game().Variables
	out := make(map[string]float64)
	for _, name := range vars.Names() {
		out[name] = vars.Get(name)
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to a status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case generic.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, generic.ErrNoActiveSave), errors.Is(err, generic.ErrSaveLimitReached):
		status = http.StatusConflict
	case generic.IsClientError(err):
		status = http.StatusBadRequest
	case generic.IsRetryable(err):
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, message, err)
}

// decodeJSON decodes an optional body; an empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

var _ generic.Notifier = (*Handler)(nil)
