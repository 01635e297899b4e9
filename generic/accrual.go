/*
accrual.go - Building production and currency accrual

PURPOSE:
  Converts building ownership into currency per second, and credits a
  span of elapsed time to the primary currency.

FORMULAS:
  value(b)      = BaseProduction * product(upgrades aimed at b) * ProductionStat
  production(b) = value(b) * owned(b)
  production    = sum over buildings of production(b)

SEE ALSO:
  - session.go: Tick credits production * delta
  - offline.go: Catch-up credits production * offline multiplier * delta
*/
package generic

// BuildingValue is the per-unit production of a building with every boost applied.
func (g *Game) BuildingValue(p *Purchase, s *Save) float64 {
	b, ok := p.Building()
	if !ok {
		return 0
	}
	v := g.fold(BuildingTarget(p.ID), false, b.BaseProduction, s)
	return v * g.statOr(g.Rules.ProductionStat, s, 1)
}

// BuildingProduction is the total production of all owned units of a building.
func (g *Game) BuildingProduction(p *Purchase, s *Save) float64 {
	n := g.Amount(p, s)
	if n <= 0 {
		return 0
	}
	return g.BuildingValue(p, s) * float64(n)
}

// Production is the primary currency gained per second from buildings.
func (g *Game) Production(s *Save) float64 {
	if s == nil {
		return 0
	}
	var total float64
	for _, p := range g.purchases {
		if p.Kind() == KindBuilding {
			total += g.BuildingProduction(p, s)
		}
	}
	return total
}

// Accrue credits production * multiplier * seconds to the primary
// currency and returns the amount credited.
func (g *Game) Accrue(s *Save, seconds, multiplier float64) float64 {
	if s == nil || seconds <= 0 {
		return 0
	}
	dep, ok := g.Registry.Lookup(g.Rules.PrimaryCurrency)
	if !ok || !dep.Writable() {
		return 0
	}
	produced := g.Production(s) * multiplier * seconds
	if produced <= 0 {
		return 0
	}
	dep.SetValue(s, dep.Value(s)+produced)
	return produced
}
