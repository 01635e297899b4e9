/*
Package factory provides YAML/JSON to Go catalog conversion.

PURPOSE:
  Converts declarative catalog files into generic.Purchase values and
  variable overrides, so buildings and upgrades can be rebalanced without
  code changes. The reverse direction (ToDefinition, EncodeCatalog)
  serves the catalog endpoint and the -dump-catalog flag.

SCHEMA (YAML; JSON uses the same keys):
  variables:
    ReincarnationCost: 1e9
  purchases:
    - id: circle-factory-2
      name: Circle Factory 2.0
      kind: building
      currency: Circles
      cost: {base: 100, scaling: 1.126}
      requires: {dependency: "purchase:circle-factory-1", base: 1, scaling: 1}
      production: 6
    - id: enhanced-cursor
      name: Enhanced Cursor
      kind: upgrade
      currency: Circles
      cost: {base: 75, scaling: 2.95}
      max_amount: 0                  # 0 = unbounded
      requires: {dependency: ManualCircles, base: 50, scaling: 2.96}
      target: stat:CirclesPerClick   # or building:<purchase id>
      effect: 2

DEFAULTS:
  - cost.scaling: 1 (flat price)
  - requires.scaling: 1 (constant threshold) unless additive

  References (currency, requires, target) are not resolved here;
  generic.Game.Link reports the ones that do not exist.

USAGE:
  f := factory.NewCatalogFactory()
  cat, err := f.LoadFile("catalog.yaml")
  g, problems, err := circles.NewGame(circles.Options{Purchases: cat.Purchases})

SEE ALSO:
  - generic/purchase.go: Purchase type definition
  - circles/catalog.go: Built-in sample catalog
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warp/circle-engine/generic"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// CatalogDefinition is the file representation of a catalog.
type CatalogDefinition struct {
	Variables map[string]float64   `json:"variables,omitempty" yaml:"variables,omitempty"`
	Purchases []PurchaseDefinition `json:"purchases" yaml:"purchases"`
}

// PurchaseDefinition is the file representation of a building or upgrade.
type PurchaseDefinition struct {
	ID          string                 `json:"id" yaml:"id"`
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        string                 `json:"kind" yaml:"kind"` // building, upgrade
	Currency    string                 `json:"currency" yaml:"currency"`
	Cost        CurveDefinition        `json:"cost" yaml:"cost"`
	MaxAmount   int                    `json:"max_amount,omitempty" yaml:"max_amount,omitempty"`
	Requires    *RequirementDefinition `json:"requires,omitempty" yaml:"requires,omitempty"`

	Production float64 `json:"production,omitempty" yaml:"production,omitempty"` // Buildings
	Target     string  `json:"target,omitempty" yaml:"target,omitempty"`         // Upgrades
	Effect     float64 `json:"effect,omitempty" yaml:"effect,omitempty"`         // Upgrades
}

// CurveDefinition is a base value and its per-level scaling.
type CurveDefinition struct {
	Base     float64 `json:"base" yaml:"base"`
	Scaling  float64 `json:"scaling,omitempty" yaml:"scaling,omitempty"`
	Additive bool    `json:"additive,omitempty" yaml:"additive,omitempty"`
}

// RequirementDefinition gates a purchase on a dependency.
type RequirementDefinition struct {
	Dependency      string `json:"dependency" yaml:"dependency"`
	CurveDefinition `json:",inline" yaml:",inline"`
}

// Catalog is a parsed catalog.
type Catalog struct {
	Variables map[string]float64
	Purchases []*generic.Purchase
}

// Format is a catalog encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf guesses the format from a file name. Anything that is not
// .json is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts catalog files to engine purchases.
type CatalogFactory struct{}

// NewCatalogFactory creates a new catalog factory.
func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// LoadFile reads and parses a catalog file.
func (f *CatalogFactory) LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return f.Parse(data, FormatOf(path))
}

// Parse decodes a catalog in the given format.
func (f *CatalogFactory) Parse(data []byte, format Format) (*Catalog, error) {
	var def CatalogDefinition
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &def)
	case FormatYAML:
		err = yaml.Unmarshal(data, &def)
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", format, err)
	}
	return f.FromDefinition(def)
}

// FromDefinition converts a CatalogDefinition to engine purchases.
func (f *CatalogFactory) FromDefinition(def CatalogDefinition) (*Catalog, error) {
	cat := &Catalog{Variables: def.Variables}
	seen := make(map[string]bool, len(def.Purchases))
	for _, pd := range def.Purchases {
		if seen[pd.ID] {
			return nil, fmt.Errorf("%w: %s", generic.ErrDuplicatePurchase, pd.ID)
		}
		seen[pd.ID] = true

		p, err := f.FromPurchaseDefinition(pd)
		if err != nil {
			return nil, err
		}
		cat.Purchases = append(cat.Purchases, p)
	}
	return cat, nil
}

// FromPurchaseDefinition converts one definition to a validated purchase.
func (f *CatalogFactory) FromPurchaseDefinition(pd PurchaseDefinition) (*generic.Purchase, error) {
	p := &generic.Purchase{
		ID:          generic.PurchaseID(pd.ID),
		Name:        pd.Name,
		Description: pd.Description,
		Currency:    generic.DependencyID(pd.Currency),
		BaseCost:    pd.Cost.Base,
		CostScaling: scalingOr(pd.Cost.Scaling, 1),
		MaxAmount:   pd.MaxAmount,
	}
	if p.Name == "" {
		p.Name = pd.ID
	}

	if pd.Requires != nil {
		p.Requirement = &generic.Requirement{
			Dependency: generic.DependencyID(pd.Requires.Dependency),
			Curve:      parseCurve(pd.Requires.CurveDefinition),
		}
	}

	switch pd.Kind {
	case string(generic.KindBuilding):
		p.Spec = generic.Building{BaseProduction: pd.Production}
	case string(generic.KindUpgrade):
		target, err := generic.ParseTarget(pd.Target)
		if err != nil {
			return nil, &generic.CatalogError{PurchaseID: p.ID, Field: "target", Reason: err.Error()}
		}
		p.Spec = generic.Upgrade{Target: target, BaseEffect: pd.Effect}
	default:
		return nil, &generic.CatalogError{PurchaseID: p.ID, Field: "kind", Reason: fmt.Sprintf("unknown kind %q", pd.Kind)}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ToDefinition converts purchases back to their file representation.
func (f *CatalogFactory) ToDefinition(purchases []*generic.Purchase, vars map[string]float64) CatalogDefinition {
	def := CatalogDefinition{Variables: vars}
	for _, p := range purchases {
		pd := PurchaseDefinition{
			ID:          string(p.ID),
			Name:        p.Name,
			Description: p.Description,
			Kind:        string(p.Kind()),
			Currency:    string(p.Currency),
			Cost:        CurveDefinition{Base: p.BaseCost, Scaling: p.CostScaling},
			MaxAmount:   p.MaxAmount,
		}
		if r := p.Requirement; r != nil {
			pd.Requires = &RequirementDefinition{
				Dependency: string(r.Dependency),
				CurveDefinition: CurveDefinition{
					Base:     r.Curve.Base,
					Scaling:  r.Curve.Scaling,
					Additive: r.Curve.Additive,
				},
			}
		}
		switch spec := p.Spec.(type) {
		case generic.Building:
			pd.Production = spec.BaseProduction
		case generic.Upgrade:
			pd.Target = spec.Target.String()
			pd.Effect = spec.BaseEffect
		}
		def.Purchases = append(def.Purchases, pd)
	}
	return def
}

// Encode writes purchases in the given format.
func (f *CatalogFactory) Encode(purchases []*generic.Purchase, vars map[string]float64, format Format) ([]byte, error) {
	def := f.ToDefinition(purchases, vars)
	switch format {
	case FormatJSON:
		return json.MarshalIndent(def, "", "  ")
	case FormatYAML:
		return yaml.Marshal(def)
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseCurve(cd CurveDefinition) generic.Curve {
	c := generic.Curve{Base: cd.Base, Scaling: cd.Scaling, Additive: cd.Additive}
	if !c.Additive {
		c.Scaling = scalingOr(cd.Scaling, 1)
	}
	return c
}

func scalingOr(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
