/*
game.go - The economy: registry, variables, stats and catalog

PURPOSE:
  Game bundles everything that is the same for every save: the dependency
  registry, the tunable variables, the stats, the purchase catalog and the
  rules naming which currency is primary, which is prestige, and which
  stats drive offline catch-up.

LIFECYCLE:
  1. NewGame(registry, variables, rules)
  2. AddStat / AddPurchase for the whole catalog
  3. Link() resolves string references into handles
  4. Read-only from then on; per-save state lives in Save

  Link never fails hard: a purchase whose requirement, currency or target
  cannot be resolved stays in the catalog, is never unlocked, and has no
  effect. The problems are returned for logging.

SEE ALSO:
  - stat.go: EffectiveValue
  - bulkbuy.go: Quote/Buy
  - accrual.go: Production
  - prestige.go: Pending prestige and reincarnation
*/
package generic

import (
	"fmt"
)

// =============================================================================
// RULES
// =============================================================================

// Rules names the catalog-level roles the engine needs.
type Rules struct {
	PrimaryCurrency DependencyID // Receives building production
	ProductionStat  StatID       // Global building multiplier, optional
	Prestige        PrestigeRules
	Offline         OfflineRules
}

// PrestigeRules configures the reincarnation resolver.
type PrestigeRules struct {
	Currency       DependencyID // Claimed currency; upgrades paid with it survive resets
	Basis          DependencyID // Monotonic counter the reward is computed from
	ThresholdVar   string       // Variable: basis needed for any reward
	PowerVar       string       // Variable: exponent of the power law
	MultiplierStat StatID       // Stat multiplying the reward
	ResetBalances  []string     // Balance keys zeroed for the new incarnation
	ResetCounters  []string     // Counter keys zeroed for the new incarnation
}

// OfflineRules configures offline catch-up.
type OfflineRules struct {
	MaxDurationStat StatID // Hours of absence credited at most
	MultiplierStat  StatID // Fraction of active production credited
	Ticks           int    // Discretization of the catch-up window
}

// DefaultOfflineTicks is used when OfflineRules.Ticks is not positive.
const DefaultOfflineTicks = 10000

// =============================================================================
// GAME
// =============================================================================

// Game is the catalog and configuration shared by all saves.
type Game struct {
	Registry  *Registry
	Variables *Variables
	Rules     Rules

	stats     map[StatID]*Stat
	statOrder []*Stat
	purchases []*Purchase
	byID      map[PurchaseID]*Purchase
	byTarget  map[Target][]*Purchase
}

// NewGame creates an empty game.
func NewGame(reg *Registry, vars *Variables, rules Rules) *Game {
	if reg == nil {
		reg = NewRegistry()
	}
	if vars == nil {
		vars = NewVariables()
	}
	return &Game{
		Registry:  reg,
		Variables: vars,
		Rules:     rules,
		stats:     make(map[StatID]*Stat),
		byID:      make(map[PurchaseID]*Purchase),
		byTarget:  make(map[Target][]*Purchase),
	}
}

// AddStat adds a stat and defines the default of its base variable.
func (g *Game) AddStat(st *Stat) error {
	if _, exists := g.stats[st.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStat, st.ID)
	}
	g.stats[st.ID] = st
	g.statOrder = append(g.statOrder, st)
	g.Variables.Define(StatBaseVariable(st.ID), st.DefaultBase)
	return nil
}

// Stat finds a stat by ID.
func (g *Game) Stat(id StatID) (*Stat, bool) {
	st, ok := g.stats[id]
	return st, ok
}

// Stats returns all stats in insertion order.
func (g *Game) Stats() []*Stat {
	out := make([]*Stat, len(g.statOrder))
	copy(out, g.statOrder)
	return out
}

// AddPurchase validates a purchase, adds it to the catalog and registers
// its owned amount as a read-write dependency.
func (g *Game) AddPurchase(p *Purchase) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, exists := g.byID[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePurchase, p.ID)
	}
	dep := NewReadWrite(p.DependencyID(), p.Name,
		func(s *Save) float64 { return float64(g.Amount(p, s)) },
		func(s *Save, v float64) { g.SetAmount(p, s, int(v)) },
	)
	if err := g.Registry.Register(dep); err != nil {
		return err
	}
	g.byID[p.ID] = p
	g.purchases = append(g.purchases, p)
	return nil
}

// Purchase finds a purchase by ID.
func (g *Game) Purchase(id PurchaseID) (*Purchase, bool) {
	p, ok := g.byID[id]
	return p, ok
}

// Purchases returns the catalog in insertion order.
func (g *Game) Purchases() []*Purchase {
	out := make([]*Purchase, len(g.purchases))
	copy(out, g.purchases)
	return out
}

// PurchasesOf returns the catalog entries of one kind.
func (g *Game) PurchasesOf(kind PurchaseKind) []*Purchase {
	var out []*Purchase
	for _, p := range g.purchases {
		if p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out
}

// Link resolves requirement, currency and target references of every
// purchase and rebuilds the target index. Unresolvable references are
// reported and leave the purchase inert. Rule stats that do not exist are
// reported as ErrUnknownStat and fall back to their neutral value.
func (g *Game) Link() []error {
	var problems []error
	g.byTarget = make(map[Target][]*Purchase)

	for _, p := range g.purchases {
		p.requires, p.currency, p.target = nil, nil, nil

		if p.Requirement != nil {
			if dep, ok := g.Registry.Lookup(p.Requirement.Dependency); ok {
				p.requires = dep
			} else {
				problems = append(problems, &CatalogError{PurchaseID: p.ID, Field: "requires",
					Reason: fmt.Sprintf("%v: %s", ErrUnknownDependency, p.Requirement.Dependency)})
			}
		}

		if dep, ok := g.Registry.Lookup(p.Currency); ok && dep.Writable() {
			p.currency = dep
		} else {
			problems = append(problems, &CatalogError{PurchaseID: p.ID, Field: "currency",
				Reason: fmt.Sprintf("%v: %s", ErrUnknownDependency, p.Currency)})
		}

		if u, ok := p.Upgrade(); ok {
			if rt, ok := g.resolveTarget(u.Target); ok {
				p.target = rt
				g.byTarget[u.Target] = append(g.byTarget[u.Target], p)
			} else {
				problems = append(problems, &CatalogError{PurchaseID: p.ID, Field: "target",
					Reason: "unknown target " + u.Target.String()})
			}
		}
	}

	// Rule stats are optional, but a configured one must exist.
	for _, id := range []StatID{
		g.Rules.ProductionStat,
		g.Rules.Prestige.MultiplierStat,
		g.Rules.Offline.MaxDurationStat,
		g.Rules.Offline.MultiplierStat,
	} {
		if _, ok := g.stats[id]; id != "" && !ok {
			problems = append(problems, fmt.Errorf("rules: %w: %s", ErrUnknownStat, id))
		}
	}
	return problems
}

func (g *Game) resolveTarget(t Target) (*resolvedTarget, bool) {
	switch t.Kind {
	case TargetStat:
		if st, ok := g.stats[StatID(t.ID)]; ok {
			return &resolvedTarget{Target: t, additive: st.Additive}, true
		}
	case TargetBuilding:
		if p, ok := g.byID[PurchaseID(t.ID)]; ok && p.Kind() == KindBuilding {
			return &resolvedTarget{Target: t}, true
		}
	}
	return nil, false
}

// TargetOf returns the resolved target of an upgrade. ok is false for
// buildings and for upgrades whose target no longer exists.
func (g *Game) TargetOf(p *Purchase) (t Target, additive bool, ok bool) {
	if p.target == nil {
		return Target{}, false, false
	}
	return p.target.Target, p.target.additive, true
}

// =============================================================================
// PURCHASE STATE
// =============================================================================

// Amount returns the owned amount of p in s, clamped to the cap.
func (g *Game) Amount(p *Purchase, s *Save) int {
	if s == nil {
		return 0
	}
	return clampAmount(p, s.Amount(p.ID))
}

// SetAmount stores the owned amount of p in s, clamped to [0, MaxAmount].
func (g *Game) SetAmount(p *Purchase, s *Save, n int) {
	if s == nil {
		return
	}
	if s.Owned == nil {
		s.Owned = make(map[PurchaseID]int)
	}
	s.Owned[p.ID] = clampAmount(p, n)
}

func clampAmount(p *Purchase, n int) int {
	if n < 0 {
		return 0
	}
	if p.Capped() && n > p.MaxAmount {
		return p.MaxAmount
	}
	return n
}

// IsUnlocked reports whether p can be bought at its current level: it has
// no requirement, or the requirement dependency has reached the threshold.
// Purchases with unresolved references are never unlocked.
func (g *Game) IsUnlocked(p *Purchase, s *Save) bool {
	return g.unlockedAt(p, s, g.Amount(p, s))
}

func (g *Game) unlockedAt(p *Purchase, s *Save, level int) bool {
	if s == nil || p.currency == nil {
		return false
	}
	if p.Kind() == KindUpgrade && p.target == nil {
		return false
	}
	if p.Requirement == nil {
		return true
	}
	if p.requires == nil {
		return false
	}
	return p.requires.Value(s) >= p.RequirementAt(level)
}

// IsMaxed reports whether a capped purchase is at its cap.
func (g *Game) IsMaxed(p *Purchase, s *Save) bool {
	return p.Capped() && g.Amount(p, s) >= p.MaxAmount
}

// CanAfford reports whether Buy with this intent would apply. Sells are
// not currency-gated; buys need the purchase unlocked, below its cap, and
// the currency to cover the clamped quote.
func (g *Game) CanAfford(p *Purchase, s *Save, intent int) bool {
	q := g.Quote(p, s, intent)
	switch {
	case q.Count < 0:
		return true
	case q.Count == 0:
		return false
	}
	if !g.IsUnlocked(p, s) || g.IsMaxed(p, s) {
		return false
	}
	return p.currency.Value(s) >= q.Cost
}
