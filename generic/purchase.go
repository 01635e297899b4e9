/*
purchase.go - Buildings and upgrades

PURPOSE:
  A Purchase is anything a player owns in increasing integer quantity.
  Shared fields (cost curve, unlock requirement, currency, cap) live on
  Purchase; kind-specific data is a closed sum type:

    Purchase.Spec = Building{BaseProduction} | Upgrade{Target, BaseEffect}

  Callers dispatch with a type switch or the Building()/Upgrade() accessors.

CURVES:
  cost(L)        = BaseCost * CostScaling^L   (price of unit L -> L+1)
  requirement(L) = additive ? base + scaling*L : base * scaling^L

OWNED AMOUNT:
  Not stored here. The amount is a join between a save and a purchase and
  lives in Save.Owned; Game.Amount/SetAmount clamp it to [0, MaxAmount].

SEE ALSO:
  - game.go: Linking and unlock/affordability predicates
  - bulkbuy.go: Bulk-buy resolution
  - stat.go: Upgrade targets
*/
package generic

import (
	"fmt"
	"math"
)

// =============================================================================
// CURVES
// =============================================================================

// Curve is a level-scaled value, either linear or geometric.
type Curve struct {
	Base     float64
	Scaling  float64
	Additive bool
}

// At evaluates the curve at a level.
func (c Curve) At(level int) float64 {
	if c.Additive {
		return c.Base + c.Scaling*float64(level)
	}
	return c.Base * math.Pow(c.Scaling, float64(level))
}

// Requirement gates a purchase on a dependency reaching a level-scaled threshold.
type Requirement struct {
	Dependency DependencyID
	Curve      Curve
}

// =============================================================================
// PURCHASE KINDS
// =============================================================================

// PurchaseKind distinguishes buildings from upgrades.
type PurchaseKind string

const (
	KindBuilding PurchaseKind = "building"
	KindUpgrade  PurchaseKind = "upgrade"
)

// PurchaseSpec is the kind-specific part of a purchase.
// Implemented only by Building and Upgrade.
type PurchaseSpec interface {
	Kind() PurchaseKind
	isPurchaseSpec()
}

// Building produces the primary currency.
type Building struct {
	BaseProduction float64
}

func (Building) Kind() PurchaseKind { return KindBuilding }
func (Building) isPurchaseSpec()    {}

// Upgrade boosts a stat or a building.
type Upgrade struct {
	Target     Target
	BaseEffect float64
}

func (Upgrade) Kind() PurchaseKind { return KindUpgrade }
func (Upgrade) isPurchaseSpec()    {}

// Effect is the contribution at an owned level: BaseEffect*level on an
// additive target, BaseEffect^level on a multiplicative one. A level of
// zero is the identity of the fold (0 or 1).
func (u Upgrade) Effect(additive bool, level int) float64 {
	if level <= 0 {
		if additive {
			return 0
		}
		return 1
	}
	if additive {
		return u.BaseEffect * float64(level)
	}
	return math.Pow(u.BaseEffect, float64(level))
}

// Compile-time interface checks
var (
	_ PurchaseSpec = Building{}
	_ PurchaseSpec = Upgrade{}
)

// =============================================================================
// PURCHASE
// =============================================================================

// Purchase is a Building or an Upgrade.
type Purchase struct {
	ID          PurchaseID
	Name        string
	Description string

	Requirement *Requirement // nil = always unlocked
	Currency    DependencyID
	BaseCost    float64
	CostScaling float64
	MaxAmount   int // 0 = unbounded

	Spec PurchaseSpec

	// Resolved by Game.Link. nil means the reference is missing.
	requires *Dependency
	currency *Dependency
	target   *resolvedTarget
}

// Kind returns the purchase kind.
func (p *Purchase) Kind() PurchaseKind {
	if p.Spec == nil {
		return ""
	}
	return p.Spec.Kind()
}

// Building returns the building data if the purchase is a building.
func (p *Purchase) Building() (Building, bool) {
	b, ok := p.Spec.(Building)
	return b, ok
}

// Upgrade returns the upgrade data if the purchase is an upgrade.
func (p *Purchase) Upgrade() (Upgrade, bool) {
	u, ok := p.Spec.(Upgrade)
	return u, ok
}

// CostAt returns the price of the unit taking the amount from level to level+1.
func (p *Purchase) CostAt(level int) float64 {
	if p.BaseCost == 0 {
		return 0
	}
	return p.BaseCost * math.Pow(p.CostScaling, float64(level))
}

// RequirementAt returns the unlock threshold at a level (0 when ungated).
func (p *Purchase) RequirementAt(level int) float64 {
	if p.Requirement == nil {
		return 0
	}
	return p.Requirement.Curve.At(level)
}

// Capped reports whether MaxAmount applies.
func (p *Purchase) Capped() bool {
	return p.MaxAmount > 0
}

// DependencyID is the ID under which the owned amount is registered.
func (p *Purchase) DependencyID() DependencyID {
	return PurchaseDependencyID(p.ID)
}

// PurchaseDependencyID builds the dependency ID of a purchase.
func PurchaseDependencyID(id PurchaseID) DependencyID {
	return DependencyID("purchase:" + string(id))
}

// Validate checks the static shape of the definition.
func (p *Purchase) Validate() error {
	fail := func(field, reason string) error {
		return &CatalogError{PurchaseID: p.ID, Field: field, Reason: reason}
	}
	switch {
	case p.ID == "":
		return fail("id", "required")
	case p.Currency == "":
		return fail("currency", "required")
	case p.BaseCost < 0 || math.IsNaN(p.BaseCost):
		return fail("base_cost", "must be >= 0")
	case p.CostScaling <= 0 || math.IsNaN(p.CostScaling):
		return fail("cost_scaling", "must be > 0")
	case p.MaxAmount < 0:
		return fail("max_amount", "must be >= 0")
	case p.Spec == nil:
		return fail("kind", "must be building or upgrade")
	}
	if p.Requirement != nil && p.Requirement.Dependency == "" {
		return fail("requires", "dependency required when a requirement is set")
	}
	if u, ok := p.Upgrade(); ok && u.Target.IsZero() {
		return fail("target", "required for upgrades")
	}
	return nil
}

func (p *Purchase) String() string {
	return fmt.Sprintf("%s(%s)", p.Kind(), p.ID)
}
