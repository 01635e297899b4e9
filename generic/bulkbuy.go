/*
bulkbuy.go - Bulk-buy resolution

PURPOSE:
  Turns a signed bulk-buy intent into a count and a total cost.

INTENTS:
  N == 1   one unit at the current level
  N > 1    N units, never past MaxAmount
  N == 0   as many units as the currency balance covers
  N < 0    sell min(|N|, owned) units; cost and count are negative (refund)

TWO PHASES:
  1. Resolve: currency and cap arithmetic only
  2. Clamp:   walk the resolved units one by one and stop at the first
              level whose unlock requirement is not met

  Geometric sums use the closed form
    cost(L..L+n) = BaseCost * r^L * (r^n - 1) / (r - 1)
  so a purchase followed by a sale of the same units is balance-neutral.

SEE ALSO:
  - purchase.go: Cost curve
  - game.go: IsUnlocked/CanAfford
  - session.go: Applies Buy under the session lock
*/
package generic

import "math"

// MaxBulkUnits bounds a single resolution when the cost curve does not
// (free or non-increasing purchases without a cap).
const MaxBulkUnits = 1_000_000

// Quote is a resolved bulk-buy: a signed count and a signed total cost.
type Quote struct {
	Count int
	Cost  float64
}

// Receipt reports the outcome of Buy. Applied is false when the intent
// resolved to nothing or the purchase was locked, maxed or unaffordable.
type Receipt struct {
	Applied bool
	Count   int
	Cost    float64
}

// Quote resolves and clamps an intent.
func (g *Game) Quote(p *Purchase, s *Save, intent int) Quote {
	return g.Clamp(p, s, g.Resolve(p, s, intent))
}

// Resolve computes count and cost from currency and cap alone.
func (g *Game) Resolve(p *Purchase, s *Save, intent int) Quote {
	level := g.Amount(p, s)
	switch {
	case intent == 1:
		return Quote{Count: 1, Cost: p.CostAt(level)}
	case intent > 1:
		n := min(intent, roomLeft(p, level))
		return Quote{Count: n, Cost: seriesCost(p, level, n)}
	case intent == 0:
		var balance float64
		if p.currency != nil {
			balance = p.currency.Value(s)
		}
		n := maxAffordable(p, level, balance, roomLeft(p, level))
		return Quote{Count: n, Cost: seriesCost(p, level, n)}
	default:
		n := level
		if intent > -level {
			n = -intent
		}
		return Quote{Count: -n, Cost: -seriesCost(p, level-n, n)}
	}
}

// Clamp reduces a positive count to the units whose levels stay unlocked.
func (g *Game) Clamp(p *Purchase, s *Save, q Quote) Quote {
	if q.Count <= 0 || p.Requirement == nil {
		return q
	}
	level := g.Amount(p, s)
	for i := 0; i < q.Count; i++ {
		if !g.unlockedAt(p, s, level+i) {
			return Quote{Count: i, Cost: seriesCost(p, level, i)}
		}
	}
	return q
}

// Buy applies an intent to the save: spends (or refunds) the currency and
// adjusts the owned amount. Rejections are no-ops, not errors.
func (g *Game) Buy(p *Purchase, s *Save, intent int) Receipt {
	if s == nil || p.currency == nil {
		return Receipt{}
	}
	q := g.Quote(p, s, intent)
	if math.IsNaN(q.Cost) || math.IsInf(q.Cost, 0) {
		return Receipt{}
	}
	level := g.Amount(p, s)

	switch {
	case q.Count == 0:
		return Receipt{}
	case q.Count < 0:
		p.currency.SetValue(s, p.currency.Value(s)-q.Cost)
		g.SetAmount(p, s, level+q.Count)
		return Receipt{Applied: true, Count: q.Count, Cost: q.Cost}
	}

	if !g.IsUnlocked(p, s) || g.IsMaxed(p, s) {
		return Receipt{}
	}
	balance := p.currency.Value(s)
	if balance < q.Cost {
		return Receipt{}
	}
	p.currency.SetValue(s, balance-q.Cost)
	g.SetAmount(p, s, level+q.Count)
	return Receipt{Applied: true, Count: q.Count, Cost: q.Cost}
}

// =============================================================================
// ARITHMETIC
// =============================================================================

func roomLeft(p *Purchase, level int) int {
	if !p.Capped() {
		return MaxBulkUnits
	}
	return max(0, min(p.MaxAmount-level, MaxBulkUnits))
}

// seriesCost is the total price of n units starting at level.
func seriesCost(p *Purchase, level, n int) float64 {
	if n <= 0 || p.BaseCost == 0 {
		return 0
	}
	r := p.CostScaling
	if r == 1 {
		return p.BaseCost * float64(n)
	}
	return p.CostAt(level) * (math.Pow(r, float64(n)) - 1) / (r - 1)
}

// maxAffordable is the largest n <= room with seriesCost(level, n) <= balance.
func maxAffordable(p *Purchase, level int, balance float64, room int) int {
	if room <= 0 {
		return 0
	}
	if p.BaseCost <= 0 {
		return room
	}
	first := p.CostAt(level)
	if balance <= 0 || first > balance {
		return 0
	}

	// Closed-form estimate, corrected below for rounding.
	var est float64
	r := p.CostScaling
	if r == 1 {
		est = balance / p.BaseCost
	} else if x := balance*(r-1)/first + 1; x <= 0 {
		est = math.Inf(1)
	} else {
		est = math.Log(x) / math.Log(r)
	}
	n := room
	if est < float64(room) {
		n = int(math.Floor(est))
	}

	for n > 0 && seriesCost(p, level, n) > balance {
		n--
	}
	for n < room && seriesCost(p, level, n+1) <= balance {
		n++
	}
	return n
}
