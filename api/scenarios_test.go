package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circle-engine/circles"
)

func TestListScenarios(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "GET", "/api/scenarios", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]ScenarioDTO](t, rec)
	require.Len(t, list, len(scenarios))
	assert.Equal(t, "fresh-start", list[0].ID)
}

func TestLoadScenario_All(t *testing.T) {
	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			// GIVEN: A fresh server
			ts := setupTestServer(t)

			// WHEN: Loading the scenario
			rec := ts.do(t, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: sc.ID})

			// THEN: A demo user owns one prepared save that can be attached
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			resp := decodeBody[LoadScenarioResponse](t, rec)
			assert.Equal(t, "Demo: "+sc.Name, resp.User.Name)
			assert.Equal(t, resp.User.ID, resp.Save.UserID)

			view := ts.attach(t, resp.User.ID, resp.Save.ID)
			assert.Equal(t, resp.Save.ID, view.SaveID)
		})
	}
}

func TestLoadScenario_Prepared(t *testing.T) {
	ts := setupTestServer(t)
	load := func(id string) LoadScenarioResponse {
		rec := ts.do(t, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
		require.Equal(t, http.StatusCreated, rec.Code)
		return decodeBody[LoadScenarioResponse](t, rec)
	}

	first := load("first-factories")
	assert.Equal(t, 15, first.Save.Owned[string(circles.FactoryID(1))])
	assert.Equal(t, 1, first.Save.Owned[string(circles.BetterFactoryID(1))])
	assert.Equal(t, 5000.0, first.Save.Balances[circles.KeyCircles])

	absent := load("long-absence")
	assert.Equal(t, epoch.Add(-10*time.Hour), absent.Save.LastSaved.UTC())
}

func TestLoadScenario_Unknown(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	users := decodeBody[[]UserDTO](t, ts.do(t, "GET", "/api/users", nil))
	assert.Empty(t, users)
}
