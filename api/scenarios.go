/*
scenarios.go - Demo save loaders for testing and demonstrations

PURPOSE:
  Creates a demo user with one save prepared at an interesting point of
  the game, so every feature can be shown without hours of clicking.

AVAILABLE SCENARIOS:
  fresh-start:           Empty save, 10 circles to buy the first factory
  first-factories:       A few factories and the first better factory
  triangle-hunter:       Triangle upgrades in progress, triangles unlocked
  ready-to-reincarnate:  Past the reincarnation threshold with square upgrades affordable
  long-absence:          Last saved 10 hours ago; attach it to watch offline catch-up

HOW SCENARIOS WORK:
  1. Create user "Demo: <name>"
  2. Create a save slot
  3. Apply the scenario's preparation to the save through the engine
  4. Write it with SaveChanges

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "long-absence"}

ADDING NEW SCENARIOS:
  Add an entry to 'scenarios' with its prepare function.

SEE ALSO:
  - handlers.go: Attach the returned save to play it
  - circles/catalog.go: Purchase ids used below
*/
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/warp/circle-engine/circles"
	"github.com/warp/circle-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// LoadScenarioResponse names the created user and save.
type LoadScenarioResponse struct {
	Scenario ScenarioDTO `json:"scenario"`
	User     UserDTO     `json:"user"`
	Save     SaveDTO     `json:"save"`
}

type scenario struct {
	ScenarioDTO
	prepare func(g *generic.Game, s *generic.Save, now time.Time)
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "fresh-start",
			Name:        "Fresh Start",
			Description: "Empty save with enough circles for the first factory",
		},
		prepare: func(g *generic.Game, s *generic.Save, _ time.Time) {
			s.Balance(circles.KeyCircles).Set(10)
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "first-factories",
			Name:        "First Factories",
			Description: "Three factory tiers running, first better factory bought",
		},
		prepare: func(g *generic.Game, s *generic.Save, _ time.Time) {
			own(g, s, circles.FactoryID(1), 15)
			own(g, s, circles.FactoryID(2), 6)
			own(g, s, circles.FactoryID(3), 1)
			own(g, s, circles.BetterFactoryID(1), 1)
			own(g, s, circles.EnhancedCursor, 2)
			s.Balance(circles.KeyCircles).Set(5_000)
			s.Balance(circles.KeyManualCircles).Set(400)
			s.Counter(circles.KeyClicks).Add(350)
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "triangle-hunter",
			Name:        "Triangle Hunter",
			Description: "Triangle detector and cursor upgrades in progress",
		},
		prepare: func(g *generic.Game, s *generic.Save, _ time.Time) {
			for n := 1; n <= 5; n++ {
				own(g, s, circles.FactoryID(n), 20-2*n)
			}
			own(g, s, circles.TriangleDetector, 5)
			own(g, s, circles.MoreTriangles, 2)
			s.Balance(circles.KeyCircles).Set(2e6)
			s.Balance(circles.KeyManualCircles).Set(5e4)
			s.Balance(circles.KeyTriangles).Set(40)
			s.Counter(circles.KeyClicks).Add(6_000)
			s.Counter(circles.KeyTriangleClicks).Add(40)
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "ready-to-reincarnate",
			Name:        "Ready to Reincarnate",
			Description: "Four times the reincarnation threshold earned",
		},
		prepare: func(g *generic.Game, s *generic.Save, _ time.Time) {
			for n := 1; n <= circles.FactoryCount; n++ {
				own(g, s, circles.FactoryID(n), 30-2*n)
			}
			threshold := g.Variables.Get(circles.VarReincarnationCost)
			s.Balance(circles.KeyCircles).Set(4 * threshold)
			s.Balance(circles.KeyTriangles).Set(500)
			s.Counter(circles.KeyClicks).Add(20_000)
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "long-absence",
			Name:        "Long Absence",
			Description: "Last played 10 hours ago; offline production is capped by Max Offline Time",
		},
		prepare: func(g *generic.Game, s *generic.Save, now time.Time) {
			own(g, s, circles.FactoryID(1), 10)
			own(g, s, circles.FactoryID(2), 4)
			s.LastSaved = now.Add(-10 * time.Hour)
		},
	},
}

// own sets an owned amount, clamped to the purchase's cap. Unknown ids
// (custom catalogs) are skipped.
func own(g *generic.Game, s *generic.Save, id generic.PurchaseID, n int) {
	if p, ok := g.Purchase(id); ok {
		g.SetAmount(p, s, n)
	}
}

func findScenario(id string) (scenario, bool) {
	for _, sc := range scenarios {
		if sc.ID == id {
			return sc, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, sc := range scenarios {
		dtos[i] = sc.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario creates a demo user and save for a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	sc, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	u, s, err := h.loadScenario(r.Context(), sc)
	if err != nil {
		writeDomainError(w, "Failed to load scenario", err)
		return
	}
	log.Printf("[Scenario] Loaded %s as save %s of user %s", sc.ID, s.ID, u.ID)
	writeJSON(w, http.StatusCreated, LoadScenarioResponse{
		Scenario: sc.ScenarioDTO,
		User:     toUserDTO(u),
		Save:     toSaveDTO(s, false),
	})
}

func (h *Handler) loadScenario(ctx context.Context, sc scenario) (generic.User, *generic.Save, error) {
	now := h.Session.Clock.Now()
	u, err := h.Store.CreateUser(ctx, "Demo: "+sc.Name, now)
	if err != nil {
		return generic.User{}, nil, err
	}
	s, err := h.Store.CreateSave(ctx, u.ID, now)
	if err != nil {
		return generic.User{}, nil, err
	}
	sc.prepare(h.Game(), s, now)
	if err := h.Store.SaveChanges(ctx, s, nil); err != nil {
		return generic.User{}, nil, err
	}
	return u, s, nil
}
