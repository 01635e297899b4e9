/*
balance.go - Currency balances and interaction counters

PURPOSE:
  A Balance is the three-level view of a currency kept on a save:
  the spendable current value, the total earned during this incarnation,
  and the lifetime total across all incarnations.

INVARIANTS:
  - Current is never negative (clamped on every write)
  - Any increase of Current adds the same delta to Total and Lifetime
  - Lifetime never decreases; Total only drops on an incarnation reset

  Counters are the integer equivalent for clicks, with a current and a
  lifetime value.

SEE ALSO:
  - save.go: Save holds balances and counters by key
  - dependency.go: Binding helpers expose them as dependencies
*/
package generic

import "math"

// Balance tracks one currency on one save.
type Balance struct {
	Current  float64 `json:"current"`
	Total    float64 `json:"total"`
	Lifetime float64 `json:"lifetime"`
}

// Set assigns the current value. Increases cascade into Total and Lifetime.
func (b *Balance) Set(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	if d := v - b.Current; d > 0 {
		b.Total += d
		b.Lifetime += d
	}
	b.Current = v
}

// Add increases (or, with a negative delta, decreases) the current value.
func (b *Balance) Add(delta float64) {
	b.Set(b.Current + delta)
}

// Spend removes amount if the balance covers it. Returns false otherwise.
func (b *Balance) Spend(amount float64) bool {
	if amount > b.Current {
		return false
	}
	b.Set(b.Current - amount)
	return true
}

// ResetIncarnation zeroes the current and this-incarnation values.
func (b *Balance) ResetIncarnation() {
	b.Current = 0
	b.Total = 0
}

// Counter tracks an integer interaction count.
type Counter struct {
	Current  int64 `json:"current"`
	Lifetime int64 `json:"lifetime"`
}

// Add increments both values. Non-positive n is ignored.
func (c *Counter) Add(n int64) {
	if n <= 0 {
		return
	}
	c.Current += n
	c.Lifetime += n
}

// Reset zeroes the current count, keeping the lifetime count.
func (c *Counter) Reset() {
	c.Current = 0
}
