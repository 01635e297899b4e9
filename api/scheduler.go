/*
scheduler.go - Real-time tick driver

PURPOSE:
  Drives Session.Tick from a background goroutine so the attached save
  produces in real time while the server runs.

DESIGN:
  - One goroutine with a time.Ticker at TickInterval (default 1/60 s)
  - Each tick is a no-op while the session is idle or suspended; the
    session itself drops the elapsed time in that case
  - Stop waits for the goroutine so no tick races shutdown's final save

CONFIGURATION:
  - Interval: TICK_INTERVAL
  - Enabled: false keeps the session frozen (tests, maintenance)

USAGE:
  scheduler := NewTickScheduler(session, cfg.TickInterval)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - generic/session.go: Tick semantics
  - cmd/server/main.go: Startup and shutdown order
*/
package api

import (
	"log"
	"sync"
	"time"

	"github.com/warp/circle-engine/generic"
)

// TickScheduler ticks a session at a fixed interval.
type TickScheduler struct {
	Session  *generic.Session
	Interval time.Duration
	Enabled  bool
	Metrics  *Metrics

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewTickScheduler creates a stopped scheduler.
func NewTickScheduler(sess *generic.Session, interval time.Duration) *TickScheduler {
	return &TickScheduler{
		Session:  sess,
		Interval: interval,
		Enabled:  true,
	}
}

// Start begins ticking. Calling Start on a running scheduler does nothing.
func (ts *TickScheduler) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if ts.ticker != nil {
		return
	}

	ts.ticker = time.NewTicker(ts.Interval)
	ts.stop = make(chan struct{})
	ts.wg.Add(1)

	go ts.run(ts.ticker, ts.stop)

	log.Printf("[Scheduler] Started with tick interval: %v", ts.Interval)
}

// Stop stops ticking and waits for the current tick to finish.
func (ts *TickScheduler) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.ticker != nil {
		ts.ticker.Stop()
		close(ts.stop)
		ts.wg.Wait()
		ts.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

// Running reports whether the goroutine is active.
func (ts *TickScheduler) Running() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.ticker != nil
}

func (ts *TickScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ts.wg.Done()

	for {
		select {
		case <-ticker.C:
			ts.TickNow()
		case <-stop:
			return
		}
	}
}

// TickNow runs one tick immediately.
func (ts *TickScheduler) TickNow() {
	start := time.Now()
	ts.Session.Tick()
	if ts.Metrics != nil {
		ts.Metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}
