package api

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circle-engine/circles"
	"github.com/warp/circle-engine/generic"
)

func TestTickScheduler_StartStop(t *testing.T) {
	ts := setupTestServer(t)
	sched := NewTickScheduler(ts.h.Session, time.Millisecond)

	sched.Start()
	sched.Start()
	assert.True(t, sched.Running())

	sched.Stop()
	sched.Stop()
	assert.False(t, sched.Running())
}

func TestTickScheduler_Disabled(t *testing.T) {
	ts := setupTestServer(t)
	sched := NewTickScheduler(ts.h.Session, time.Millisecond)
	sched.Enabled = false

	sched.Start()

	assert.False(t, sched.Running())
}

func TestTickScheduler_TickNowProduces(t *testing.T) {
	// GIVEN: An attached save owning one factory
	ts := setupTestServer(t)
	u, s := ts.createUserWithSave(t, "ada")
	ts.attach(t, u.ID, s.ID)
	ts.h.Session.Do(generic.EventAction, func(g *generic.Game, sv *generic.Save) bool {
		p, _ := g.Purchase(circles.FactoryID(1))
		g.SetAmount(p, sv, 1)
		return true
	})
	sched := NewTickScheduler(ts.h.Session, time.Second)
	sched.Metrics = ts.h.Metrics

	// WHEN: Ticking, advancing two seconds and ticking again
	sched.TickNow()
	ts.clock.Advance(2 * time.Second)
	sched.TickNow()

	// THEN: Two seconds of production were credited
	snap := ts.h.Session.Snapshot()
	require.NotNil(t, snap)
	assert.InDelta(t, 2.0, snap.BalanceOf(circles.KeyCircles).Current, 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(ts.h.Metrics.Production), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(ts.h.Metrics.TickDuration))
}

func TestTickScheduler_IdleSessionIsNoop(t *testing.T) {
	ts := setupTestServer(t)
	sched := NewTickScheduler(ts.h.Session, time.Second)

	sched.TickNow()

	assert.Nil(t, ts.h.Session.Snapshot())
}
