/*
stat.go - Stats and the stat aggregator

PURPOSE:
  A Stat is an upgradeable numeric game parameter. Its effective value is
  folded on every read from the base value and the owned upgrades that
  target it:

    multiplicative: base * product(effect)
    additive:       base + sum(effect)

  followed by an optional Transform (percent scaling, derived terms).
  Nothing is cached: ownership and derived inputs change within a tick.

TARGETS:
  Upgrades point at a Target, which is either a Stat or a Building.
  Buildings behave like multiplicative stats with base 1: their production
  multiplier is the product of the upgrades aimed at them.

SEE ALSO:
  - purchase.go: Upgrade.Effect
  - game.go: Target resolution during Link
  - accrual.go: Building production uses building targets
*/
package generic

import (
	"fmt"
	"strings"
)

// =============================================================================
// STAT
// =============================================================================

// Stat is an upgradeable numeric parameter.
type Stat struct {
	ID          StatID
	Name        string
	Description string
	Additive    bool
	DefaultBase float64 // Default of the Stat.<id>.BaseValue variable

	// Transform post-processes the folded value. It may read other live
	// state through g, e.g. the current production.
	Transform func(g *Game, s *Save, v float64) float64
}

// =============================================================================
// TARGETS
// =============================================================================

// TargetKind distinguishes stat targets from building targets.
type TargetKind uint8

const (
	TargetStat TargetKind = iota + 1
	TargetBuilding
)

// Target is the typed handle an upgrade points at.
type Target struct {
	Kind TargetKind
	ID   string
}

// StatTarget targets a stat.
func StatTarget(id StatID) Target { return Target{Kind: TargetStat, ID: string(id)} }

// BuildingTarget targets a building's production.
func BuildingTarget(id PurchaseID) Target { return Target{Kind: TargetBuilding, ID: string(id)} }

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool { return t.Kind == 0 || t.ID == "" }

func (t Target) String() string {
	switch t.Kind {
	case TargetStat:
		return "stat:" + t.ID
	case TargetBuilding:
		return "building:" + t.ID
	}
	return ""
}

// ParseTarget parses "stat:<id>" or "building:<id>".
func ParseTarget(s string) (Target, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Target{}, fmt.Errorf("target %q: want stat:<id> or building:<id>", s)
	}
	switch kind {
	case "stat":
		return StatTarget(StatID(id)), nil
	case "building":
		return BuildingTarget(PurchaseID(id)), nil
	}
	return Target{}, fmt.Errorf("target %q: unknown kind %q", s, kind)
}

// resolvedTarget is a target known to exist, with its combination mode.
type resolvedTarget struct {
	Target
	additive bool
}

// =============================================================================
// AGGREGATION
// =============================================================================

// EffectiveValue folds all owned upgrades targeting the stat into its base
// value and applies the transform. Unknown stats evaluate to 0.
func (g *Game) EffectiveValue(id StatID, s *Save) float64 {
	st, ok := g.stats[id]
	if !ok {
		return 0
	}
	v := g.Variables.Get(StatBaseVariable(id))
	v = g.fold(StatTarget(id), st.Additive, v, s)
	if st.Transform != nil {
		v = st.Transform(g, s, v)
	}
	return v
}

// statOr returns the effective value, or def when the stat is not configured.
func (g *Game) statOr(id StatID, s *Save, def float64) float64 {
	if id == "" {
		return def
	}
	if _, ok := g.stats[id]; !ok {
		return def
	}
	return g.EffectiveValue(id, s)
}

// fold applies every owned upgrade aimed at t exactly once.
func (g *Game) fold(t Target, additive bool, v float64, s *Save) float64 {
	if s == nil {
		return v
	}
	for _, p := range g.byTarget[t] {
		n := g.Amount(p, s)
		if n <= 0 {
			continue
		}
		u, _ := p.Upgrade()
		if additive {
			v += u.Effect(true, n)
		} else {
			v *= u.Effect(false, n)
		}
	}
	return v
}
