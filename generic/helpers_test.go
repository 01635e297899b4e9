package generic_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warp/circle-engine/generic"
	"github.com/warp/circle-engine/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// A small two-currency economy: gold is produced by buildings and clicks,
// gems are the prestige currency.
const (
	gold         generic.DependencyID = "gold"
	lifetimeGold generic.DependencyID = "lifetime_gold"
	totalGold    generic.DependencyID = "total_gold"
	gems         generic.DependencyID = "gems"

	statProduction generic.StatID = "production"
	statBonus      generic.StatID = "bonus"
	statOffline    generic.StatID = "offline"
	statMaxOffline generic.StatID = "max_offline"
	statGems       generic.StatID = "gem_multiplier"

	varThreshold = "Prestige.Threshold"
	varPower     = "Prestige.Power"
)

var epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T, purchases ...*generic.Purchase) *generic.Game {
	t.Helper()
	reg := generic.NewRegistry()
	vars := generic.NewVariables()
	vars.Define(varThreshold, 1e9)
	vars.Define(varPower, 0.5)

	g := generic.NewGame(reg, vars, generic.Rules{
		PrimaryCurrency: gold,
		ProductionStat:  statProduction,
		Prestige: generic.PrestigeRules{
			Currency:       gems,
			Basis:          lifetimeGold,
			ThresholdVar:   varThreshold,
			PowerVar:       varPower,
			MultiplierStat: statGems,
			ResetBalances:  []string{"gold"},
			ResetCounters:  []string{"clicks"},
		},
		Offline: generic.OfflineRules{
			MaxDurationStat: statMaxOffline,
			MultiplierStat:  statOffline,
			Ticks:           100,
		},
	})

	require.NoError(t, reg.RegisterCurrency(&generic.Currency{
		Dependency: generic.BalanceCurrent(gold, "Gold", "gold"),
		Icon:       "G",
		Production: func(g *generic.Game, s *generic.Save) float64 { return g.Production(s) },
	}))
	require.NoError(t, reg.RegisterCurrency(&generic.Currency{
		Dependency: generic.BalanceCurrent(gems, "Gems", "gems"),
		Pending:    func(g *generic.Game, s *generic.Save) float64 { return g.PendingPrestige(s) },
	}))
	reg.MustRegister(generic.BalanceTotal(totalGold, "Total Gold", "gold"))
	reg.MustRegister(generic.BalanceLifetime(lifetimeGold, "Lifetime Gold", "gold"))
	reg.MustRegister(generic.CounterLifetime("lifetime_clicks", "Lifetime Clicks", "clicks"))

	percent := func(_ *generic.Game, _ *generic.Save, v float64) float64 { return v / 100 }
	for _, st := range []*generic.Stat{
		{ID: statProduction, Name: "Production", DefaultBase: 1},
		{ID: statBonus, Name: "Bonus", Additive: true, Transform: percent},
		{ID: statOffline, Name: "Offline Production", Additive: true, DefaultBase: 10, Transform: percent},
		{ID: statMaxOffline, Name: "Max Offline Time", Additive: true, DefaultBase: 3},
		{ID: statGems, Name: "Gem Multiplier", DefaultBase: 1},
	} {
		require.NoError(t, g.AddStat(st))
	}

	for _, p := range purchases {
		require.NoError(t, g.AddPurchase(p))
	}
	g.Link()
	return g
}

func building(id generic.PurchaseID, baseCost, scaling, production float64) *generic.Purchase {
	return &generic.Purchase{
		ID:          id,
		Name:        string(id),
		Currency:    gold,
		BaseCost:    baseCost,
		CostScaling: scaling,
		Spec:        generic.Building{BaseProduction: production},
	}
}

func upgrade(id generic.PurchaseID, currency generic.DependencyID, target generic.Target, effect float64) *generic.Purchase {
	return &generic.Purchase{
		ID:          id,
		Name:        string(id),
		Currency:    currency,
		BaseCost:    1,
		CostScaling: 2,
		Spec:        generic.Upgrade{Target: target, BaseEffect: effect},
	}
}

func mustPurchase(t *testing.T, g *generic.Game, id generic.PurchaseID) *generic.Purchase {
	t.Helper()
	p, ok := g.Purchase(id)
	require.True(t, ok, "purchase %s", id)
	return p
}

func newSave() *generic.Save {
	return generic.NewSave("save-1", "user-1", epoch)
}

// newTestSession attaches a stored save to a session driven by a manual clock.
func newTestSession(t *testing.T, g *generic.Game) (*generic.Session, *store.Memory, *generic.ManualClock, *generic.Save) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	user, err := mem.CreateUser(ctx, "tester", epoch)
	require.NoError(t, err)
	sv, err := mem.CreateSave(ctx, user.ID, epoch)
	require.NoError(t, err)

	clock := generic.NewManualClock(epoch)
	sess := generic.NewSession(g, mem)
	sess.Clock = clock
	sess.Attach(user, sv)
	t.Cleanup(sess.Wait)
	return sess, mem, clock, sv
}
