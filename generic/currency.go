package generic

// Currency is a read-write dependency that can be spent. It adds a
// display icon, a passive production rate and a claimable pending amount.
// The functions take the game explicitly because production and pending
// amounts depend on the catalog and stats.
type Currency struct {
	*Dependency
	Icon string

	Production func(g *Game, s *Save) float64 // Per second, nil = none
	Pending    func(g *Game, s *Save) float64 // Claimable, nil = none
	Unlocked   func(g *Game, s *Save) bool    // Shown to the player, nil = always
}

// ProductionRate returns the passive production per second.
func (c *Currency) ProductionRate(g *Game, s *Save) float64 {
	if c == nil || c.Production == nil || s == nil {
		return 0
	}
	return c.Production(g, s)
}

// PendingAmount returns the amount claimable by an explicit action.
func (c *Currency) PendingAmount(g *Game, s *Save) float64 {
	if c == nil || c.Pending == nil || s == nil {
		return 0
	}
	return c.Pending(g, s)
}

// IsUnlocked reports whether the currency should be shown.
func (c *Currency) IsUnlocked(g *Game, s *Save) bool {
	if c == nil {
		return false
	}
	if c.Unlocked == nil {
		return true
	}
	return c.Unlocked(g, s)
}
