package factory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/circle-engine/circles"
	"github.com/warp/circle-engine/factory"
	"github.com/warp/circle-engine/generic"
)

var testEpoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

const sampleYAML = `
variables:
  ReincarnationCost: 5000
purchases:
  - id: mill
    name: Mill
    kind: building
    currency: Circles
    cost: {base: 100, scaling: 1.126}
    requires: {dependency: "purchase:circle-factory-1", base: 1}
    production: 6
  - id: cursor
    kind: upgrade
    currency: Circles
    cost: {base: 75, scaling: 2.95}
    max_amount: 3
    requires: {dependency: ManualCircles, base: 10, scaling: 5, additive: true}
    target: stat:CirclesPerClick
    effect: 2
`

const sampleJSON = `{
  "purchases": [
    {"id": "mill", "kind": "building", "currency": "Circles", "cost": {"base": 100}, "production": 6},
    {"id": "boost", "kind": "upgrade", "currency": "Squares", "cost": {"base": 1, "scaling": 4},
     "target": "building:mill", "effect": 1.5}
  ]
}`

func TestParse_YAML(t *testing.T) {
	f := factory.NewCatalogFactory()

	cat, err := f.Parse([]byte(sampleYAML), factory.FormatYAML)

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"ReincarnationCost": 5000}, cat.Variables)
	require.Len(t, cat.Purchases, 2)

	mill := cat.Purchases[0]
	assert.Equal(t, generic.KindBuilding, mill.Kind())
	assert.Equal(t, circles.Circles, mill.Currency)
	assert.Equal(t, 1.126, mill.CostScaling)
	b, _ := mill.Building()
	assert.Equal(t, 6.0, b.BaseProduction)
	require.NotNil(t, mill.Requirement)
	assert.Equal(t, generic.Curve{Base: 1, Scaling: 1}, mill.Requirement.Curve, "scaling defaults to a constant threshold")

	cursor := cat.Purchases[1]
	assert.Equal(t, "cursor", cursor.Name, "name defaults to id")
	assert.Equal(t, 3, cursor.MaxAmount)
	assert.Equal(t, generic.Curve{Base: 10, Scaling: 5, Additive: true}, cursor.Requirement.Curve)
	u, _ := cursor.Upgrade()
	assert.Equal(t, generic.StatTarget(circles.StatCirclesPerClick), u.Target)
	assert.Equal(t, 2.0, u.BaseEffect)
}

func TestParse_JSON(t *testing.T) {
	f := factory.NewCatalogFactory()

	cat, err := f.Parse([]byte(sampleJSON), factory.FormatJSON)

	require.NoError(t, err)
	require.Len(t, cat.Purchases, 2)
	assert.Equal(t, 1.0, cat.Purchases[0].CostScaling, "flat price by default")
	assert.Nil(t, cat.Purchases[0].Requirement)
	u, _ := cat.Purchases[1].Upgrade()
	assert.Equal(t, generic.BuildingTarget("mill"), u.Target)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", `{"purchases":[{"id":"x","kind":"gadget","currency":"Circles","cost":{"base":1}}]}`},
		{"bad target", `{"purchases":[{"id":"x","kind":"upgrade","currency":"Circles","cost":{"base":1},"target":"Production"}]}`},
		{"missing currency", `{"purchases":[{"id":"x","kind":"building","cost":{"base":1}}]}`},
		{"negative cost", `{"purchases":[{"id":"x","kind":"building","currency":"Circles","cost":{"base":-1}}]}`},
	}
	f := factory.NewCatalogFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Parse([]byte(tt.doc), factory.FormatJSON)
			assert.ErrorIs(t, err, generic.ErrInvalidCatalog)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestParse_DuplicateID(t *testing.T) {
	doc := `{"purchases":[
		{"id":"x","kind":"building","currency":"Circles","cost":{"base":1}},
		{"id":"x","kind":"building","currency":"Circles","cost":{"base":2}}]}`

	_, err := factory.NewCatalogFactory().Parse([]byte(doc), factory.FormatJSON)

	assert.ErrorIs(t, err, generic.ErrDuplicatePurchase)
}

func TestParse_MalformedDocument(t *testing.T) {
	_, err := factory.NewCatalogFactory().Parse([]byte("purchases: [\n"), factory.FormatYAML)
	assert.Error(t, err)

	_, err = factory.NewCatalogFactory().Parse([]byte("{}"), "toml")
	assert.Error(t, err)
}

func TestEncode_SampleCatalogRoundTrip(t *testing.T) {
	// GIVEN: The built-in catalog encoded in both formats
	f := factory.NewCatalogFactory()
	sample := circles.SampleCatalog(circles.DefaultReincarnationCost)

	for _, format := range []factory.Format{factory.FormatYAML, factory.FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := f.Encode(sample, nil, format)
			require.NoError(t, err)

			// WHEN: Decoding it and building a game from it
			cat, err := f.Parse(data, format)
			require.NoError(t, err)
			g, problems, err := circles.NewGame(circles.Options{Purchases: cat.Purchases})
			require.NoError(t, err)

			// THEN: Every reference resolves and the economy is unchanged
			assert.Empty(t, problems)
			require.Len(t, cat.Purchases, len(sample))
			for i, p := range cat.Purchases {
				assert.Equal(t, sample[i].ID, p.ID)
				assert.InDelta(t, sample[i].CostAt(3), p.CostAt(3), 1e-6*sample[i].CostAt(3))
				assert.Equal(t, sample[i].Spec, p.Spec)
			}

			s := generic.NewSave("s", "u", testEpoch)
			s.Owned[circles.FactoryID(1)] = 4
			s.Owned[circles.BetterFactoryID(1)] = 1
			assert.InDelta(t, 8.0, g.Production(s), 1e-9)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "catalog.yml")
	jsonPath := filepath.Join(dir, "catalog.JSON")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(sampleJSON), 0o644))

	f := factory.NewCatalogFactory()

	cat, err := f.LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, cat.Purchases, 2)

	cat, err = f.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, cat.Purchases, 2)

	_, err = f.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
