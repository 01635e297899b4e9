/*
types.go - Circle Clicker identifiers

PURPOSE:
  Names every dependency, stat, balance, counter and variable of the
  Circle Clicker economy so the catalog, the click action and the HTTP
  layer agree on them.

STORAGE KEYS:
  Balances (generic.Balance: current, total, lifetime):
    circles, manual_circles, triangles, squares
  Counters (generic.Counter: current, lifetime):
    clicks, triangle_clicks

  manual_circles is never spent, so its total is the incarnation amount.

SEE ALSO:
  - domain.go: Registration of dependencies and stats
  - catalog.go: Sample buildings and upgrades
*/
package circles

import "github.com/warp/circle-engine/generic"

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Currencies.
const (
	Circles   generic.DependencyID = "Circles"
	Triangles generic.DependencyID = "Triangles"
	Squares   generic.DependencyID = "Squares"
)

// Read-only dependencies.
const (
	TotalCircles           generic.DependencyID = "TotalCircles"
	ManualCircles          generic.DependencyID = "ManualCircles"
	TotalTriangles         generic.DependencyID = "TotalTriangles"
	Clicks                 generic.DependencyID = "Clicks"
	TriangleClicks         generic.DependencyID = "TriangleClicks"
	LifetimeCircles        generic.DependencyID = "LifetimeCircles"
	LifetimeManualCircles  generic.DependencyID = "LifetimeManualCircles"
	LifetimeTriangles      generic.DependencyID = "LifetimeTriangles"
	LifetimeSquares        generic.DependencyID = "LifetimeSquares"
	LifetimeClicks         generic.DependencyID = "LifetimeClicks"
	LifetimeTriangleClicks generic.DependencyID = "LifetimeTriangleClicks"
)

// LeaderboardDependencies are the dependencies players are ranked by.
var LeaderboardDependencies = []generic.DependencyID{
	LifetimeCircles,
	LifetimeTriangles,
	LifetimeSquares,
	LifetimeClicks,
}

// =============================================================================
// STATS
// =============================================================================

const (
	StatProductionToCPC   generic.StatID = "ProductionToCPC"
	StatCirclesPerClick   generic.StatID = "CirclesPerClick"
	StatProduction        generic.StatID = "Production"
	StatTrianglesPerClick generic.StatID = "TrianglesPerClick"
	StatTriangleChance    generic.StatID = "TriangleChance"
	StatSquares           generic.StatID = "Squares"
	StatOfflineProduction generic.StatID = "OfflineProduction"
	StatMaxOfflineTime    generic.StatID = "MaxOfflineTime"
)

// =============================================================================
// STORAGE KEYS AND VARIABLES
// =============================================================================

// Balance and counter keys inside a save. They are persisted; do not
// rename them.
const (
	KeyCircles        = "circles"
	KeyManualCircles  = "manual_circles"
	KeyTriangles      = "triangles"
	KeySquares        = "squares"
	KeyClicks         = "clicks"
	KeyTriangleClicks = "triangle_clicks"
)

const (
	VarReincarnationCost = "ReincarnationCost"
	VarSquarePower       = "SquarePower"
)

// Defaults for the prestige variables.
const (
	DefaultReincarnationCost = 1_000_000_000
	DefaultSquarePower       = 0.5
)

// PrestigeBasis selects what the square reward is computed from.
type PrestigeBasis string

const (
	// BasisLifetime uses lifetime circles: the reward keeps growing across
	// incarnations.
	BasisLifetime PrestigeBasis = "lifetime"
	// BasisIncarnation uses circles earned in the current incarnation.
	BasisIncarnation PrestigeBasis = "incarnation"
)

// Dependency returns the dependency the basis reads.
func (b PrestigeBasis) Dependency() generic.DependencyID {
	if b == BasisIncarnation {
		return TotalCircles
	}
	return LifetimeCircles
}
