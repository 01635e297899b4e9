package circles

import (
	"fmt"
	"math"

	"github.com/warp/circle-engine/generic"
)

// FactoryCount is the number of buildings in the sample catalog.
const FactoryCount = 10

// FactoryID returns the purchase id of the n-th circle factory (1-based).
func FactoryID(n int) generic.PurchaseID {
	return generic.PurchaseID(fmt.Sprintf("circle-factory-%d", n))
}

// BetterFactoryID returns the id of the upgrade doubling the n-th factory.
func BetterFactoryID(n int) generic.PurchaseID {
	return generic.PurchaseID(fmt.Sprintf("better-circle-factory-%d", n))
}

// Sample upgrade ids.
const (
	EnhancedCursor               generic.PurchaseID = "enhanced-cursor"
	FactoryPiping                generic.PurchaseID = "factory-piping"
	SquareHeaven                 generic.PurchaseID = "square-heaven"
	TriangleDetector             generic.PurchaseID = "triangle-detector"
	MoreTriangles                generic.PurchaseID = "more-triangles"
	TriangleFactories            generic.PurchaseID = "triangle-factories"
	TriangleCursor               generic.PurchaseID = "triangle-cursor"
	QuadHeaven                   generic.PurchaseID = "quad-heaven"
	ReincarnatedFactories        generic.PurchaseID = "reincarnated-factories"
	ReincarnatedTriangles        generic.PurchaseID = "reincarnated-triangles"
	ReincarnatedCursor           generic.PurchaseID = "reincarnated-cursor"
	ReincarnatedTriangleDetector generic.PurchaseID = "reincarnated-triangle-detector"
	ReincarnatedBeds             generic.PurchaseID = "reincarnated-beds"
	ReincarnatedWorkers          generic.PurchaseID = "reincarnated-workers"
)

// SampleCatalog returns the default buildings and upgrades. reincarnationCost
// prices the upgrades that unlock at the prestige threshold.
func SampleCatalog(reincarnationCost float64) []*generic.Purchase {
	var out []*generic.Purchase

	// Buildings, each followed by its "Better" upgrade.
	var prev generic.PurchaseID
	for i := 0; i < FactoryCount; i++ {
		n := i + 1
		fi := float64(i)
		costScaling := 1.125 + fi*0.001

		factory := &generic.Purchase{
			ID:          FactoryID(n),
			Name:        fmt.Sprintf("Circle Factory %d.0", n),
			Currency:    Circles,
			BaseCost:    10 * math.Pow(10+(fi-1)*costScaling, fi),
			CostScaling: costScaling,
			Spec:        generic.Building{BaseProduction: math.Pow(6+(fi-1)*costScaling/3, fi)},
		}
		if prev != "" {
			factory.Requirement = atLeast(generic.PurchaseDependencyID(prev), 1)
		}
		prev = factory.ID

		upgradeScaling := math.Pow(costScaling, 10) * (1.02 + fi*0.002)
		out = append(out, factory, &generic.Purchase{
			ID:   BetterFactoryID(n),
			Name: "Better " + factory.Name,
			Requirement: &generic.Requirement{
				Dependency: factory.DependencyID(),
				Curve:      generic.Curve{Base: 10, Scaling: 10, Additive: true},
			},
			Currency:    Circles,
			BaseCost:    factory.BaseCost * upgradeScaling * 4 * math.Pow(1.075, fi),
			CostScaling: upgradeScaling,
			Spec:        generic.Upgrade{Target: generic.BuildingTarget(factory.ID), BaseEffect: 2},
		})
	}

	// Circle upgrades.
	out = append(out,
		&generic.Purchase{
			ID:          EnhancedCursor,
			Name:        "Enhanced Cursor",
			Requirement: &generic.Requirement{Dependency: ManualCircles, Curve: generic.Curve{Base: 50, Scaling: 2.96}},
			Currency:    Circles,
			BaseCost:    75,
			CostScaling: 2.95,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatCirclesPerClick), BaseEffect: 2},
		},
		&generic.Purchase{
			ID:          FactoryPiping,
			Name:        "Factory Piping",
			Requirement: &generic.Requirement{Dependency: LifetimeClicks, Curve: generic.Curve{Base: 100, Scaling: 2.75}},
			Currency:    Circles,
			BaseCost:    250,
			CostScaling: 100,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatProductionToCPC), BaseEffect: 1},
		},
		&generic.Purchase{
			ID:          SquareHeaven,
			Name:        "Square Heaven",
			Requirement: atLeast(LifetimeCircles, reincarnationCost),
			Currency:    Circles,
			BaseCost:    reincarnationCost * 200,
			CostScaling: 200,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatSquares), BaseEffect: 1.4},
		},
	)

	// Triangle upgrades.
	out = append(out,
		&generic.Purchase{
			ID:          TriangleDetector,
			Name:        "Triangle Detector",
			Requirement: atLeast(TotalTriangles, 1),
			Currency:    Triangles,
			BaseCost:    1,
			CostScaling: 1.5,
			MaxAmount:   30,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatTriangleChance), BaseEffect: 0.1},
		},
		&generic.Purchase{
			ID:          MoreTriangles,
			Name:        "More Triangles",
			Requirement: atLeast(TotalTriangles, 5),
			Currency:    Triangles,
			BaseCost:    2.5,
			CostScaling: 1.8,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatTrianglesPerClick), BaseEffect: 1.5},
		},
		&generic.Purchase{
			ID:          TriangleFactories,
			Name:        "Triangle Factories",
			Requirement: atLeast(TotalTriangles, 36),
			Currency:    Triangles,
			BaseCost:    5,
			CostScaling: 4,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatProduction), BaseEffect: 1.25},
		},
		&generic.Purchase{
			ID:          TriangleCursor,
			Name:        "Triangle Cursor",
			Requirement: atLeast(TotalTriangles, 343),
			Currency:    Triangles,
			BaseCost:    100,
			CostScaling: 6,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatCirclesPerClick), BaseEffect: 1.625},
		},
		&generic.Purchase{
			ID:          QuadHeaven,
			Name:        "Quad Heaven",
			Requirement: atLeast(LifetimeCircles, reincarnationCost),
			Currency:    Triangles,
			BaseCost:    15_000,
			CostScaling: 15,
			Spec:        generic.Upgrade{Target: generic.StatTarget(StatSquares), BaseEffect: 1.4},
		},
	)

	// Square upgrades survive reincarnation.
	out = append(out,
		squareUpgrade(ReincarnatedFactories, "Reincarnated Factories", 0.5, 4, 0, StatProduction, 2),
		squareUpgrade(ReincarnatedTriangles, "Reincarnated Triangles", 0.75, 6, 0, StatTrianglesPerClick, 1.75),
		squareUpgrade(ReincarnatedCursor, "Reincarnated Cursor", 1, 5, 0, StatCirclesPerClick, 2.25),
		squareUpgrade(ReincarnatedTriangleDetector, "Reincarnated Triangle Detector", 1.25, 8, 5, StatTriangleChance, 0.3),
		squareUpgrade(ReincarnatedBeds, "Reincarnated Beds", 5, 9, 0, StatMaxOfflineTime, 1),
		squareUpgrade(ReincarnatedWorkers, "Reincarnated Workers", 6, 10, 5, StatOfflineProduction, 4),
	)
	return out
}

// atLeast is a constant requirement.
func atLeast(dep generic.DependencyID, amount float64) *generic.Requirement {
	return &generic.Requirement{Dependency: dep, Curve: generic.Curve{Base: amount, Scaling: 1}}
}

func squareUpgrade(id generic.PurchaseID, name string, cost, scaling float64, maxAmount int, target generic.StatID, effect float64) *generic.Purchase {
	return &generic.Purchase{
		ID:          id,
		Name:        name,
		Currency:    Squares,
		BaseCost:    cost,
		CostScaling: scaling,
		MaxAmount:   maxAmount,
		Spec:        generic.Upgrade{Target: generic.StatTarget(target), BaseEffect: effect},
	}
}
