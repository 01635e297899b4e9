/*
Package circles wires the generic economy engine into Circle Clicker.

Three currencies: circles (primary, produced by buildings and clicks),
triangles (rare click bonus) and squares (prestige). Stat ids are part
of the persisted "Stat.<id>.BaseValue" variable names; do not rename them.

USAGE:
  g, problems, err := circles.NewGame(circles.Options{})
  sess := generic.NewSession(g, store)
  circles.Click(sess, rng)
*/
package circles

import (
	"fmt"

	"github.com/warp/circle-engine/generic"
)

// Options tunes a Circle Clicker game. Zero values use the defaults.
type Options struct {
	ReincarnationCost float64
	SquarePower       float64
	PrestigeBasis     PrestigeBasis
	MaxOfflineTicks   int

	// Purchases replaces the sample catalog when non-nil.
	Purchases []*generic.Purchase
}

// NewGame builds the Circle Clicker registry, stats and catalog.
// Catalog references that do not resolve are logged by the caller via
// the returned problems; they never fail the build.
func NewGame(opts Options) (*generic.Game, []error, error) {
	if opts.ReincarnationCost <= 0 {
		opts.ReincarnationCost = DefaultReincarnationCost
	}
	if opts.SquarePower <= 0 {
		opts.SquarePower = DefaultSquarePower
	}
	switch opts.PrestigeBasis {
	case "":
		opts.PrestigeBasis = BasisLifetime
	case BasisLifetime, BasisIncarnation:
	default:
		return nil, nil, fmt.Errorf("unknown prestige basis %q", opts.PrestigeBasis)
	}

	reg := generic.NewRegistry()
	vars := generic.NewVariables()
	vars.Define(VarReincarnationCost, opts.ReincarnationCost)
	vars.Define(VarSquarePower, opts.SquarePower)

	g := generic.NewGame(reg, vars, generic.Rules{
		PrimaryCurrency: Circles,
		ProductionStat:  StatProduction,
		Prestige: generic.PrestigeRules{
			Currency:       Squares,
			Basis:          opts.PrestigeBasis.Dependency(),
			ThresholdVar:   VarReincarnationCost,
			PowerVar:       VarSquarePower,
			MultiplierStat: StatSquares,
			ResetBalances:  []string{KeyCircles, KeyManualCircles, KeyTriangles},
			ResetCounters:  []string{KeyClicks, KeyTriangleClicks},
		},
		Offline: generic.OfflineRules{
			MaxDurationStat: StatMaxOfflineTime,
			MultiplierStat:  StatOfflineProduction,
			Ticks:           opts.MaxOfflineTicks,
		},
	})

	if err := registerDependencies(reg); err != nil {
		return nil, nil, err
	}
	for _, st := range stats() {
		if err := g.AddStat(st); err != nil {
			return nil, nil, err
		}
	}

	purchases := opts.Purchases
	if purchases == nil {
		purchases = SampleCatalog(opts.ReincarnationCost)
	}
	for _, p := range purchases {
		if err := g.AddPurchase(p); err != nil {
			return nil, nil, err
		}
	}
	return g, g.Link(), nil
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

func registerDependencies(reg *generic.Registry) error {
	currencies := []*generic.Currency{
		{
			Dependency: generic.BalanceCurrent(Circles, "Circles", KeyCircles),
			Icon:       "⚫",
			Production: func(g *generic.Game, s *generic.Save) float64 { return g.Production(s) },
		},
		{
			Dependency: generic.BalanceCurrent(Triangles, "Triangles", KeyTriangles),
			Icon:       "▼",
			Unlocked: func(_ *generic.Game, s *generic.Save) bool {
				return s.BalanceOf(KeyTriangles).Lifetime > 0
			},
		},
		{
			Dependency: generic.BalanceCurrent(Squares, "Squares", KeySquares),
			Icon:       "⬛",
			Pending:    func(g *generic.Game, s *generic.Save) float64 { return g.PendingPrestige(s) },
			Unlocked: func(g *generic.Game, s *generic.Save) bool {
				return s.BalanceOf(KeySquares).Lifetime > 0 || g.PendingPrestige(s) > 0
			},
		},
	}
	for _, c := range currencies {
		if err := reg.RegisterCurrency(c); err != nil {
			return err
		}
	}

	for _, d := range []*generic.Dependency{
		generic.BalanceTotal(TotalCircles, "Total Circles", KeyCircles),
		generic.BalanceTotal(ManualCircles, "Manual Circles", KeyManualCircles),
		generic.BalanceTotal(TotalTriangles, "Total Triangles", KeyTriangles),
		generic.CounterCurrent(Clicks, "Clicks", KeyClicks),
		generic.CounterCurrent(TriangleClicks, "Triangle Clicks", KeyTriangleClicks),
		generic.BalanceLifetime(LifetimeCircles, "Lifetime Circles", KeyCircles),
		generic.BalanceLifetime(LifetimeManualCircles, "Lifetime Manual Circles", KeyManualCircles),
		generic.BalanceLifetime(LifetimeTriangles, "Lifetime Triangles", KeyTriangles),
		generic.BalanceLifetime(LifetimeSquares, "Lifetime Squares", KeySquares),
		generic.CounterLifetime(LifetimeClicks, "Lifetime Clicks", KeyClicks),
		generic.CounterLifetime(LifetimeTriangleClicks, "Lifetime Triangle Clicks", KeyTriangleClicks),
	} {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// STATS
// =============================================================================

func percent(_ *generic.Game, _ *generic.Save, v float64) float64 { return v / 100 }

func stats() []*generic.Stat {
	return []*generic.Stat{
		{
			ID:          StatProductionToCPC,
			Name:        "% of circles per second gained per click",
			Description: "Clicking grants +{0}% of your circles per second.",
			Additive:    true,
			Transform:   percent,
		},
		{
			ID:          StatCirclesPerClick,
			Name:        "Base circles per click",
			Description: "Gain x{0} base circles from clicking.",
			DefaultBase: 1,
			Transform: func(g *generic.Game, s *generic.Save, v float64) float64 {
				return v + g.Production(s)*g.EffectiveValue(StatProductionToCPC, s)
			},
		},
		{
			ID:          StatProduction,
			Name:        "Building production multiplier",
			Description: "Increases all building production by x{0}.",
			DefaultBase: 1,
		},
		{
			ID:          StatTrianglesPerClick,
			Name:        "Triangle multiplier",
			Description: "Increases the triangles you earn from clicking by x{0}.",
			DefaultBase: 1,
		},
		{
			ID:          StatTriangleChance,
			Name:        "% chance to earn triangles per click",
			Description: "Increases the chance to earn triangles from clicking by +{0}%.",
			Additive:    true,
			DefaultBase: 0.5,
			Transform:   percent,
		},
		{
			ID:          StatSquares,
			Name:        "Square multiplier",
			Description: "Increases the squares you earn from reincarnating by x{0}.",
			DefaultBase: 1,
		},
		{
			ID:          StatOfflineProduction,
			Name:        "% of circles per second gained while offline",
			Description: "Gain +{0}% of your circles per second while offline.",
			Additive:    true,
			DefaultBase: 10,
			Transform:   percent,
		},
		{
			ID:          StatMaxOfflineTime,
			Name:        "Maximum offline time (in hours)",
			Description: "Increases how long you can produce circles while offline by {0} hour(s).",
			Additive:    true,
			DefaultBase: 3,
		},
	}
}
