/*
session.go - Production/tick engine for the active save

PURPOSE:
  A Session owns at most one attached save and advances it in real time.
  It is idle until Attach and running until Detach.

LOCKING:
  One mutex (mu) serializes every mutation of the attached save: ticks,
  player actions (click, buy, sell, remove, reincarnate), each offline
  catch-up step, and the snapshot taken before a write. Store writes never
  happen under mu; they are serialized by ioMu instead. A write takes ioMu
  first and only then snapshots the save under mu, so a later write always
  carries the newer state.

  The Gate adds the logical switches on top of the lock: while mutations
  are suspended (offline catch-up, detach) ticks and player actions are
  rejected as no-ops.

TICK (driven externally, e.g. api.TickScheduler at 60 Hz):
  1. delta = now - previous tick (0 on the first tick after attach or
     after a suspension)
  2. primary currency += production * delta
  3. autosave when AutosaveInterval has elapsed (asynchronous; failures go
     to the last-error slot, ticking continues)
  4. derived view recomputed, then listeners notified

SEE ALSO:
  - offline.go: CatchUp
  - gate.go: Suspension modes
  - api/scheduler.go: The ticker goroutine
*/
package generic

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// DefaultAutosaveInterval is the period between automatic saves.
const DefaultAutosaveInterval = 60 * time.Second

// =============================================================================
// EVENTS
// =============================================================================

// EventKind names what changed.
type EventKind string

const (
	EventAttached   EventKind = "attached"
	EventDetached   EventKind = "detached"
	EventTick       EventKind = "tick"
	EventAction     EventKind = "action"
	EventPurchase   EventKind = "purchase"
	EventPrestige   EventKind = "prestige"
	EventOffline    EventKind = "offline"
	EventSaved      EventKind = "saved"
	EventSaveFailed EventKind = "save_failed"
)

// Event is the change signal raised to listeners. View is set for events
// that changed the save.
type Event struct {
	Kind   EventKind
	SaveID SaveID
	At     time.Time
	View   *View
	Err    error
}

// Notifier receives change events. Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// =============================================================================
// SESSION
// =============================================================================

// Session drives the attached save.
type Session struct {
	Game             *Game
	Store            SaveStore
	Clock            Clock
	Notifier         Notifier
	AutosaveInterval time.Duration

	gate *Gate

	mu           sync.Mutex
	user         User
	save         *Save
	attachedAt   time.Time
	lastTick     time.Time
	lastAutosave time.Time
	pending      []Transaction

	ioMu     sync.Mutex
	errMu    sync.Mutex
	saving   bool
	lastErr  error
	inflight sync.WaitGroup
}

// NewSession creates an idle session.
func NewSession(g *Game, store SaveStore) *Session {
	return &Session{
		Game:             g,
		Store:            store,
		Clock:            SystemClock{},
		AutosaveInterval: DefaultAutosaveInterval,
		gate:             NewGate(),
	}
}

// Gate returns the session's mutation/notification gate.
func (s *Session) Gate() *Gate { return s.gate }

// Attach makes sv the active save of user u.
func (s *Session) Attach(u User, sv *Save) {
	s.mu.Lock()
	now := s.Clock.Now()
	s.user = u
	s.save = sv
	s.attachedAt = now
	s.lastTick = time.Time{}
	s.lastAutosave = now
	s.pending = nil
	ev := s.eventLocked(EventAttached, now)
	s.mu.Unlock()

	log.Printf("[Session] Attached save %s of user %s", sv.ID, u.ID)
	s.emit(ev)
}

// Detach saves the active save and returns the session to idle. The save
// stays attached when the write fails.
func (s *Session) Detach(ctx context.Context) error {
	restore := s.gate.Suspend(SuspendMutations)
	defer restore()

	if err := s.SaveNow(ctx); err != nil {
		if errors.Is(err, ErrNoActiveSave) {
			return nil
		}
		return err
	}
	s.inflight.Wait()

	s.mu.Lock()
	id := s.save.ID
	s.save = nil
	s.user = User{}
	s.pending = nil
	s.lastTick = time.Time{}
	now := s.Clock.Now()
	s.mu.Unlock()

	log.Printf("[Session] Detached save %s", id)
	s.emit(Event{Kind: EventDetached, SaveID: id, At: now})
	return nil
}

// Active reports whether a save is attached.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save != nil
}

// User returns the user of the attached save.
func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.save != nil
}

// SetBulkBuy updates the bulk-buy intent of the attached user.
func (s *Session) SetBulkBuy(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.BulkBuy = n
}

// Snapshot returns a copy of the attached save, or nil when idle.
func (s *Session) Snapshot() *Save {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save.Clone()
}

// View computes the derived state of the attached save.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Game.View(s.save, s.user.BulkBuy, s.Clock.Now())
}

// =============================================================================
// TICK
// =============================================================================

// Tick advances the attached save to now. No-op when idle; while
// mutations are suspended the elapsed time is dropped.
func (s *Session) Tick() {
	ev, autosave := s.tick()
	if autosave {
		s.persistAsync()
	}
	s.emit(ev)
}

func (s *Session) tick() (ev Event, autosave bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == nil {
		return Event{}, false
	}
	now := s.Clock.Now()
	if !s.gate.MutationsEnabled() {
		s.lastTick = time.Time{}
		return Event{}, false
	}

	var delta float64
	if !s.lastTick.IsZero() {
		delta = max(0, now.Sub(s.lastTick).Seconds())
	}
	s.lastTick = now
	s.Game.Accrue(s.save, delta, 1)

	if now.Sub(s.lastAutosave) >= s.AutosaveInterval {
		s.lastAutosave = now
		autosave = true
	}
	return s.eventLocked(EventTick, now), autosave
}

// =============================================================================
// PLAYER ACTIONS
// =============================================================================

// Do applies fn to the attached save under the session lock. fn reports
// whether it changed anything. Returns false when idle, suspended, or
// when fn declined.
func (s *Session) Do(kind EventKind, fn func(g *Game, sv *Save) bool) bool {
	ev, changed := s.apply(kind, fn)
	if changed {
		s.emit(ev)
	}
	return changed
}

func (s *Session) apply(kind EventKind, fn func(g *Game, sv *Save) bool) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == nil || !s.gate.MutationsEnabled() {
		return Event{}, false
	}
	if !fn(s.Game, s.save) {
		return Event{}, false
	}
	return s.eventLocked(kind, s.Clock.Now()), true
}

// Buy applies a bulk-buy intent to a purchase.
func (s *Session) Buy(id PurchaseID, intent int) (Receipt, error) {
	return s.trade(id, intent, TxPurchase)
}

// Remove takes one unit away and refunds its price (admin correction).
func (s *Session) Remove(id PurchaseID) (Receipt, error) {
	return s.trade(id, -1, TxRemoval)
}

func (s *Session) trade(id PurchaseID, intent int, kind TransactionKind) (Receipt, error) {
	p, ok := s.Game.Purchase(id)
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %s", ErrUnknownPurchase, id)
	}
	var r Receipt
	s.Do(EventPurchase, func(g *Game, sv *Save) bool {
		r = g.Buy(p, sv, intent)
		if !r.Applied {
			return false
		}
		k := kind
		if k == TxPurchase && r.Count < 0 {
			k = TxSale
		}
		s.recordLocked(k, p.Currency, -r.Cost, p.ID, r.Count)
		return true
	})
	return r, nil
}

// Reincarnate claims the pending prestige reward. No-op when nothing is pending.
func (s *Session) Reincarnate() PrestigeResult {
	var res PrestigeResult
	s.Do(EventPrestige, func(g *Game, sv *Save) bool {
		defer s.gate.Suspend(SuspendMutations)()
		res = g.Reincarnate(sv)
		if res.Applied {
			s.recordLocked(TxPrestige, g.Rules.Prestige.Currency, res.Gained, "", 0)
		}
		return res.Applied
	})
	return res
}

// recordLocked buffers a ledger entry until the next write. Caller holds mu.
func (s *Session) recordLocked(kind TransactionKind, currency DependencyID, delta float64, purchase PurchaseID, count int) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		log.Printf("[Session] Dropped %s entry for %s: delta %v", kind, currency, delta)
		return
	}
	s.pending = append(s.pending,
		NewTransaction(kind, s.save.ID, currency, delta, purchase, count, s.Clock.Now()))
}

// =============================================================================
// PERSISTENCE
// =============================================================================

type saveJob struct {
	snapshot *Save
	txs      []Transaction
}

// prepare stamps the save and captures what the next write carries. The
// caller holds ioMu, so snapshots reach the store in the order they are
// taken. Returns nil when idle.
func (s *Session) prepare() *saveJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == nil {
		return nil
	}
	now := s.Clock.Now()
	s.save.LastSaved = now
	s.lastAutosave = now
	job := &saveJob{snapshot: s.save.Clone(), txs: s.pending}
	s.pending = nil
	return job
}

// SaveNow writes the attached save synchronously.
func (s *Session) SaveNow(ctx context.Context) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	job := s.prepare()
	if job == nil {
		return ErrNoActiveSave
	}
	return s.writeLocked(ctx, job)
}

// persistAsync writes in the background unless a write is already in
// flight. The snapshot is taken once the write slot is free, never earlier.
func (s *Session) persistAsync() {
	s.errMu.Lock()
	if s.saving {
		s.errMu.Unlock()
		return
	}
	s.saving = true
	s.errMu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			s.errMu.Lock()
			s.saving = false
			s.errMu.Unlock()
		}()

		s.ioMu.Lock()
		defer s.ioMu.Unlock()
		if job := s.prepare(); job != nil {
			_ = s.writeLocked(context.Background(), job)
		}
	}()
}

// writeLocked stores job. Caller holds ioMu.
func (s *Session) writeLocked(ctx context.Context, job *saveJob) error {
	if s.Store == nil {
		return nil
	}
	err := s.Store.SaveChanges(ctx, job.snapshot, job.txs)

	now := s.Clock.Now()
	s.errMu.Lock()
	if err != nil {
		err = &PersistenceError{SaveID: job.snapshot.ID, Op: "save", Err: err}
	}
	s.lastErr = err
	s.errMu.Unlock()

	if err != nil {
		log.Printf("[Session] Save failed: %v", err)
		s.requeue(job)
		s.emit(Event{Kind: EventSaveFailed, SaveID: job.snapshot.ID, At: now, Err: err})
		return err
	}
	s.emit(Event{Kind: EventSaved, SaveID: job.snapshot.ID, At: now})
	return nil
}

// requeue puts unwritten ledger entries back in front of the buffer.
func (s *Session) requeue(job *saveJob) {
	if len(job.txs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == nil || s.save.ID != job.snapshot.ID {
		return
	}
	s.pending = append(append([]Transaction(nil), job.txs...), s.pending...)
}

// LastError returns the error of the most recent write, nil after a success.
func (s *Session) LastError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// PendingTransactions returns the ledger entries not yet written.
func (s *Session) PendingTransactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transaction(nil), s.pending...)
}

// Wait blocks until in-flight background writes finish.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// =============================================================================
// NOTIFICATION
// =============================================================================

// eventLocked builds an event carrying the freshly recomputed view.
// Caller holds mu.
func (s *Session) eventLocked(kind EventKind, now time.Time) Event {
	ev := Event{Kind: kind, At: now}
	if s.save == nil {
		return ev
	}
	ev.SaveID = s.save.ID
	if s.Notifier != nil && s.gate.NotificationsEnabled() {
		v := s.Game.View(s.save, s.user.BulkBuy, now)
		ev.View = &v
	}
	return ev
}

func (s *Session) emit(ev Event) {
	if s.Notifier == nil || ev.Kind == "" || !s.gate.NotificationsEnabled() {
		return
	}
	s.Notifier.Notify(ev)
}
