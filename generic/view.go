package generic

import "time"

// View is the derived, display-only state of a save at one instant.
// It is recomputed from scratch on every call.
type View struct {
	SaveID          SaveID
	At              time.Time
	BulkBuy         int
	Production      float64
	PendingPrestige float64
	Currencies      []CurrencyView
	Stats           []StatView
	Purchases       []PurchaseView
}

// CurrencyView is one currency line.
type CurrencyView struct {
	ID         DependencyID
	Name       string
	Icon       string
	Balance    float64
	Production float64
	Pending    float64
	Unlocked   bool
}

// StatView is one stat line.
type StatView struct {
	ID    StatID
	Name  string
	Value float64
}

// PurchaseView is one purchase line with its quote at the bulk-buy intent.
type PurchaseView struct {
	ID          PurchaseID
	Name        string
	Kind        PurchaseKind
	Currency    DependencyID
	Amount      int
	MaxAmount   int
	Unlocked    bool
	Maxed       bool
	CanAfford   bool
	QuoteCount  int
	QuoteCost   float64
	Requirement float64
	Production  float64 // Buildings: production of all owned units
	Target      string  // Upgrades: resolved target, empty if missing
}

// View computes the derived state of s for the given bulk-buy intent.
func (g *Game) View(s *Save, bulkBuy int, at time.Time) View {
	v := View{At: at, BulkBuy: bulkBuy}
	if s == nil {
		return v
	}
	v.SaveID = s.ID
	v.Production = g.Production(s)
	v.PendingPrestige = g.PendingPrestige(s)

	for _, c := range g.Registry.Currencies() {
		v.Currencies = append(v.Currencies, CurrencyView{
			ID:         c.ID,
			Name:       c.DisplayName(),
			Icon:       c.Icon,
			Balance:    c.Value(s),
			Production: c.ProductionRate(g, s),
			Pending:    c.PendingAmount(g, s),
			Unlocked:   c.IsUnlocked(g, s),
		})
	}

	for _, st := range g.statOrder {
		v.Stats = append(v.Stats, StatView{ID: st.ID, Name: st.Name, Value: g.EffectiveValue(st.ID, s)})
	}

	for _, p := range g.purchases {
		q := g.Quote(p, s, bulkBuy)
		pv := PurchaseView{
			ID:          p.ID,
			Name:        p.Name,
			Kind:        p.Kind(),
			Currency:    p.Currency,
			Amount:      g.Amount(p, s),
			MaxAmount:   p.MaxAmount,
			Unlocked:    g.IsUnlocked(p, s),
			Maxed:       g.IsMaxed(p, s),
			CanAfford:   g.CanAfford(p, s, bulkBuy),
			QuoteCount:  q.Count,
			QuoteCost:   q.Cost,
			Requirement: p.RequirementAt(g.Amount(p, s)),
		}
		switch p.Spec.(type) {
		case Building:
			pv.Production = g.BuildingProduction(p, s)
		case Upgrade:
			if t, _, ok := g.TargetOf(p); ok {
				pv.Target = t.String()
			}
		}
		v.Purchases = append(v.Purchases, pv)
	}
	return v
}
