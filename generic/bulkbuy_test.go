package generic_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circle-engine/generic"
)

func TestQuote_MaxAffordable_Scenario(t *testing.T) {
	// GIVEN: balance 100, baseCost 10, scaling 2, level 0
	g := newTestGame(t, building("b", 10, 2, 1))
	s := newSave()
	s.Balance("gold").Set(100)

	// WHEN: Resolving "max affordable"
	q := g.Quote(mustPurchase(t, g, "b"), s, 0)

	// THEN: 10 + 20 + 40 = 70 fits, the fourth unit (80) does not
	assert.Equal(t, 3, q.Count)
	assert.InDelta(t, 70.0, q.Cost, 1e-9)
}

func TestQuote_MaxAffordable_NothingAffordable(t *testing.T) {
	g := newTestGame(t, building("b", 10, 2, 1))
	s := newSave()
	s.Balance("gold").Set(9.99)

	q := g.Quote(mustPurchase(t, g, "b"), s, 0)

	assert.Equal(t, generic.Quote{}, q)
	assert.False(t, g.CanAfford(mustPurchase(t, g, "b"), s, 0))
}

func TestQuote_MaxAffordable_MatchesGreedy(t *testing.T) {
	tests := []struct {
		base, scaling, balance float64
		level                  int
	}{
		{10, 1.125, 1e6, 0},
		{10, 1.125, 12345.678, 17},
		{3.5, 1, 100, 4},
		{250, 100, 1e12, 2},
		{1, 0.9, 5, 0},
	}
	for _, tt := range tests {
		p := building("b", tt.base, tt.scaling, 1)
		g := newTestGame(t, p)
		s := newSave()
		s.Owned["b"] = tt.level
		s.Balance("gold").Set(tt.balance)

		// Greedy reference: add units while the running total fits.
		wantN, wantCost := 0, 0.0
		for wantCost+p.CostAt(tt.level+wantN) <= tt.balance && wantN < 10000 {
			wantCost += p.CostAt(tt.level + wantN)
			wantN++
		}

		q := g.Quote(p, s, 0)
		assert.Equal(t, wantN, q.Count, "case %+v", tt)
		assert.InEpsilon(t, wantCost, q.Cost, 1e-9, "case %+v", tt)
	}
}

func TestQuote_Single(t *testing.T) {
	g := newTestGame(t, building("b", 10, 1.125, 1))
	s := newSave()
	s.Owned["b"] = 1

	q := g.Quote(mustPurchase(t, g, "b"), s, 1)
	assert.Equal(t, 1, q.Count)
	assert.InDelta(t, 11.25, q.Cost, 1e-12)
}

func TestQuote_FixedStopsAtCap(t *testing.T) {
	// GIVEN: A purchase capped at 5 with 3 owned
	p := building("b", 1, 2, 1)
	p.MaxAmount = 5
	g := newTestGame(t, p)
	s := newSave()
	s.Owned["b"] = 3

	// WHEN: Asking for 4 more
	q := g.Quote(p, s, 4)

	// THEN: Only the 2 units below the cap are quoted (costs 8 + 16)
	assert.Equal(t, 2, q.Count)
	assert.InDelta(t, 24.0, q.Cost, 1e-9)
}

func TestQuote_FixedSumsLevels(t *testing.T) {
	g := newTestGame(t, building("b", 10, 2, 1))
	s := newSave()
	s.Owned["b"] = 2

	q := g.Quote(mustPurchase(t, g, "b"), s, 3)

	// 40 + 80 + 160
	assert.Equal(t, 3, q.Count)
	assert.InDelta(t, 280.0, q.Cost, 1e-9)
}

func TestQuote_SellIsNegative(t *testing.T) {
	g := newTestGame(t, building("b", 10, 2, 1))
	s := newSave()
	s.Owned["b"] = 2

	// Selling 5 with 2 owned refunds levels 1 and 0: 20 + 10
	q := g.Quote(mustPurchase(t, g, "b"), s, -5)
	assert.Equal(t, -2, q.Count)
	assert.InDelta(t, -30.0, q.Cost, 1e-9)
	assert.True(t, g.CanAfford(mustPurchase(t, g, "b"), s, -5))
}

func TestQuote_ClampAtRequirement(t *testing.T) {
	// GIVEN: "b" needs at least level+1 units of "a" for each level
	a := building("a", 1, 1.1, 1)
	b := building("b", 1, 1.1, 1)
	b.Requirement = &generic.Requirement{
		Dependency: generic.PurchaseDependencyID("a"),
		Curve:      generic.Curve{Base: 1, Scaling: 1, Additive: true},
	}
	g := newTestGame(t, a, b)
	s := newSave()
	s.Owned["a"] = 3
	s.Balance("gold").Set(1e6)

	// WHEN: Asking for 5 units of b
	q := g.Quote(b, s, 5)

	// THEN: Levels 0..2 are unlocked (need 1, 2, 3), level 3 needs 4
	assert.Equal(t, 3, q.Count)
	assert.InDelta(t, 1+1.1+1.21, q.Cost, 1e-9)
	assert.Equal(t, 5, g.Resolve(b, s, 5).Count)
}

func TestBuy_ThenSellIsBalanceNeutral(t *testing.T) {
	intents := []int{1, 4, 0, 17}
	for _, n := range intents {
		g := newTestGame(t, building("b", 10, 1.125, 1))
		p := mustPurchase(t, g, "b")
		s := newSave()
		s.Owned["b"] = 3
		s.Balance("gold").Set(5000)
		before := s.BalanceOf("gold").Current

		bought := g.Buy(p, s, n)
		require.True(t, bought.Applied, "intent %d", n)
		sold := g.Buy(p, s, -bought.Count)

		assert.True(t, sold.Applied)
		assert.Equal(t, -bought.Count, sold.Count)
		assert.InDelta(t, bought.Cost, -sold.Cost, 1e-9)
		assert.InDelta(t, before, s.BalanceOf("gold").Current, 1e-9)
		assert.Equal(t, 3, g.Amount(p, s))
	}
}

func TestBuy_RejectedIsNoOp(t *testing.T) {
	g := newTestGame(t, building("b", 10, 2, 1))
	p := mustPurchase(t, g, "b")
	s := newSave()
	s.Balance("gold").Set(5)

	r := g.Buy(p, s, 1)

	assert.False(t, r.Applied)
	assert.Equal(t, 5.0, s.BalanceOf("gold").Current)
	assert.Equal(t, 0, g.Amount(p, s))
}

func TestBuy_Locked(t *testing.T) {
	p := building("b", 1, 2, 1)
	p.Requirement = &generic.Requirement{Dependency: lifetimeGold, Curve: generic.Curve{Base: 1000, Scaling: 1}}
	g := newTestGame(t, p)
	s := newSave()
	s.Balance("gold").Set(999)

	assert.False(t, g.IsUnlocked(p, s))
	assert.False(t, g.Buy(p, s, 1).Applied)

	s.Balance("gold").Add(1)
	assert.True(t, g.IsUnlocked(p, s))
	assert.True(t, g.Buy(p, s, 1).Applied)
}

func TestBuy_AtCapRejected(t *testing.T) {
	p := upgrade("u", gold, generic.StatTarget(statProduction), 2)
	p.MaxAmount = 1
	g := newTestGame(t, p)
	s := newSave()
	s.Balance("gold").Set(100)

	require.True(t, g.Buy(p, s, 1).Applied)
	assert.True(t, g.IsMaxed(p, s))
	assert.False(t, g.CanAfford(p, s, 1))
	assert.False(t, g.Buy(p, s, 1).Applied)
	assert.Equal(t, 99.0, s.BalanceOf("gold").Current)
}

func TestQuote_FreePurchaseCostsNothing(t *testing.T) {
	// GIVEN: A building with no base price but a steep scaling
	g := newTestGame(t, building("free", 0, 2, 1))
	p := mustPurchase(t, g, "free")
	s := newSave()
	s.Balance("gold").Set(100)

	// WHEN: Quoting a late level and the max-affordable intent
	q := g.Quote(p, s, 0)

	// THEN: Every level is free and the bulk is bounded
	assert.Zero(t, p.CostAt(0))
	assert.Zero(t, p.CostAt(5000))
	assert.Equal(t, generic.MaxBulkUnits, q.Count)
	assert.Zero(t, q.Cost)
	assert.False(t, math.IsNaN(q.Cost))
}

func TestBuy_FreePurchaseKeepsBalance(t *testing.T) {
	g := newTestGame(t, building("free", 0, 2, 1))
	p := mustPurchase(t, g, "free")
	s := newSave()
	s.Balance("gold").Set(100)

	r := g.Buy(p, s, 0)

	require.True(t, r.Applied)
	assert.Zero(t, r.Cost)
	assert.Equal(t, 100.0, s.BalanceOf("gold").Current)
	assert.Equal(t, generic.MaxBulkUnits, g.Amount(p, s))
}

func TestBuy_OverflowingCostRejected(t *testing.T) {
	// GIVEN: A price whose geometric series overflows float64
	g := newTestGame(t, building("huge", 1e300, 1e10, 1))
	p := mustPurchase(t, g, "huge")
	s := newSave()
	s.Balance("gold").Set(math.MaxFloat64)

	// WHEN: Buying several units at once
	r := g.Buy(p, s, 5)

	// THEN: Nothing changes hands
	assert.False(t, r.Applied)
	assert.Equal(t, math.MaxFloat64, s.BalanceOf("gold").Current)
	assert.Equal(t, 0, g.Amount(p, s))
}
