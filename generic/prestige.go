/*
prestige.go - Reincarnation (prestige) resolver

PURPOSE:
  Computes the prestige reward from a monotonic basis counter and performs
  the reset of transient progression when the player claims it.

FORMULA:
  pending = 0                                          if basis < threshold
          = (basis / threshold)^power * multiplier     otherwise

RESET (one transaction, under the session lock):
  1. Add pending to the prestige currency
  2. Buildings -> 0
  3. Upgrades -> 0, except those paid with the prestige currency
  4. Reset balances and counters named in PrestigeRules

SEE ALSO:
  - game.go: PrestigeRules
  - session.go: Session.Reincarnate takes the lock and records the ledger entry
*/
package generic

import "math"

// PrestigeResult reports the outcome of a reincarnation.
type PrestigeResult struct {
	Applied bool
	Gained  float64
}

// PendingPrestige returns the reward a reincarnation would grant now.
func (g *Game) PendingPrestige(s *Save) float64 {
	rules := g.Rules.Prestige
	basisDep, ok := g.Registry.Lookup(rules.Basis)
	if !ok || s == nil {
		return 0
	}
	threshold := g.Variables.Get(rules.ThresholdVar)
	if threshold <= 0 {
		return 0
	}
	basis := basisDep.Value(s)
	if basis < threshold {
		return 0
	}
	power := g.Variables.Get(rules.PowerVar)
	return math.Pow(basis/threshold, power) * g.statOr(rules.MultiplierStat, s, 1)
}

// Reincarnate claims the pending reward and resets the incarnation.
// It is a no-op when nothing is pending.
func (g *Game) Reincarnate(s *Save) PrestigeResult {
	rules := g.Rules.Prestige
	pending := g.PendingPrestige(s)
	if pending <= 0 {
		return PrestigeResult{}
	}
	currency, ok := g.Registry.Lookup(rules.Currency)
	if !ok || !currency.Writable() {
		return PrestigeResult{}
	}

	currency.SetValue(s, currency.Value(s)+pending)

	for _, p := range g.purchases {
		switch p.Spec.(type) {
		case Building:
			g.SetAmount(p, s, 0)
		case Upgrade:
			if p.Currency != rules.Currency {
				g.SetAmount(p, s, 0)
			}
		}
	}
	for _, key := range rules.ResetBalances {
		s.Balance(key).ResetIncarnation()
	}
	for _, key := range rules.ResetCounters {
		s.Counter(key).Reset()
	}
	return PrestigeResult{Applied: true, Gained: pending}
}
