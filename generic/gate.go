/*
gate.go - Mutation and notification gate

PURPOSE:
  Two independent switches guard a session:

    mutations      tick-driven production, autosave triggering, and
                   player actions (click, buy, reincarnate)
    notifications  change events to listeners

  Critical sections suspend one or both and restore them when they end:

    defer session.Gate().Suspend(generic.SuspendAll)()

  Suspensions are counted, so overlapping sections from different
  goroutines (a detach during offline catch-up) restore correctly in any
  order. A switch is on only while nothing holds it off.

MODES:
  SuspendMutations  notifications keep flowing (structural rebuilds)
  SuspendAll        nothing flows (bulk loads, offline catch-up)
*/
package generic

import "sync"

// SuspendMode selects what a suspension switches off.
type SuspendMode int

const (
	SuspendMutations SuspendMode = iota + 1
	SuspendAll
)

// Gate holds the two switches. The zero value has both enabled.
type Gate struct {
	mu           sync.Mutex
	mutationsOff int
	notifyOff    int
}

// NewGate returns a gate with both switches enabled.
func NewGate() *Gate {
	return &Gate{}
}

// MutationsEnabled reports whether state may change.
func (g *Gate) MutationsEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mutationsOff == 0
}

// NotificationsEnabled reports whether change events flow.
func (g *Gate) NotificationsEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.notifyOff == 0
}

// Suspend switches off what mode names and returns the func that undoes
// it. Calling the restore more than once has no further effect.
func (g *Gate) Suspend(mode SuspendMode) (restore func()) {
	all := mode == SuspendAll
	g.mu.Lock()
	g.mutationsOff++
	if all {
		g.notifyOff++
	}
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.mutationsOff--
			if all {
				g.notifyOff--
			}
			g.mu.Unlock()
		})
	}
}
