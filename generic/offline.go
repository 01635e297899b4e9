/*
offline.go - Offline catch-up simulator

PURPOSE:
  Credits production for the time a save spent closed: from its last
  write to the moment it was attached.

ALGORITHM:
  1. elapsed  = attachedAt - LastSaved, clamped to [0, MaxDurationStat hours]
  2. step     = elapsed / K   (K = OfflineRules.Ticks)
  3. K times: primary += production * OfflineMultiplierStat * step
  4. cancelled (ctx done) after i steps: one final step of
     (1 - i/K) * elapsed, so the full clamped window is always credited

  The whole run holds the gate in SuspendAll; each step takes the session
  lock, so ticks and player actions are rejected until it returns.

SEE ALSO:
  - session.go: Locking and the gate
  - api/handlers.go: Runs CatchUp in the background after attaching a save
*/
package generic

import (
	"context"
	"log"
	"time"
)

// OfflinePlan is the catch-up window of a save.
type OfflinePlan struct {
	Elapsed  time.Duration // Raw absence
	Credited time.Duration // Absence after clamping to the max offline stat
	Ticks    int
}

// OfflineResult reports a catch-up run.
type OfflineResult struct {
	OfflinePlan
	Completed int  // Regular steps run
	Cancelled bool // True when the remainder was credited as one lump sum
	Produced  float64
}

// OfflineProgress observes each completed step.
type OfflineProgress func(done, total int)

// PlanOffline computes the catch-up window of s up to until.
func (g *Game) PlanOffline(s *Save, until time.Time) OfflinePlan {
	ticks := g.Rules.Offline.Ticks
	if ticks <= 0 {
		ticks = DefaultOfflineTicks
	}
	plan := OfflinePlan{Ticks: ticks}
	if s == nil || s.LastSaved.IsZero() {
		return plan
	}
	plan.Elapsed = max(0, until.Sub(s.LastSaved))
	plan.Credited = plan.Elapsed
	if id := g.Rules.Offline.MaxDurationStat; id != "" {
		plan.Credited = min(plan.Credited, Hours(g.statOr(id, s, 0)))
	}
	return plan
}

// CatchUp credits offline production to the attached save. Cancelling ctx
// stops the stepping and credits the remaining time at once.
func (s *Session) CatchUp(ctx context.Context, progress OfflineProgress) OfflineResult {
	restore := s.gate.Suspend(SuspendAll)
	defer restore()

	saveID, res := s.planCatchUp()
	if saveID == "" || res.Credited <= 0 {
		return res
	}

	total := res.Credited.Seconds()
	step := total / float64(res.Ticks)
	for i := 0; i < res.Ticks; i++ {
		if ctx.Err() != nil {
			res.Cancelled = true
			res.Produced += s.offlineStep(saveID, (1-float64(i)/float64(res.Ticks))*total)
			break
		}
		res.Produced += s.offlineStep(saveID, step)
		res.Completed = i + 1
		if progress != nil {
			progress(i+1, res.Ticks)
		}
	}

	ev := s.finishCatchUp(saveID, res.Produced, restore)

	log.Printf("[Offline] Save %s: credited %v of %v absence in %d/%d steps (cancelled=%v), produced %.4g",
		saveID, res.Credited, res.Elapsed, res.Completed, res.Ticks, res.Cancelled, res.Produced)
	s.emit(ev)
	return res
}

func (s *Session) planCatchUp() (SaveID, OfflineResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == nil {
		return "", OfflineResult{}
	}
	return s.save.ID, OfflineResult{OfflinePlan: s.Game.PlanOffline(s.save, s.attachedAt)}
}

// finishCatchUp books the produced amount and lifts the suspension.
func (s *Session) finishCatchUp(id SaveID, produced float64, restore func()) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == nil || s.save.ID != id {
		return Event{}
	}
	if produced > 0 {
		s.recordLocked(TxOffline, s.Game.Rules.PrimaryCurrency, produced, "", 0)
	}
	// Notifications are back on once restore runs; build the view now.
	restore()
	return s.eventLocked(EventOffline, s.Clock.Now())
}

func (s *Session) offlineStep(id SaveID, seconds float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save == nil || s.save.ID != id {
		return 0
	}
	mult := s.Game.statOr(s.Game.Rules.Offline.MultiplierStat, s.save, 1)
	return s.Game.Accrue(s.save, seconds, mult)
}
