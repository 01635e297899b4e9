/*
dependency.go - Dependency registry and lookup

PURPOSE:
  A dependency is a named numeric source evaluated against a save: a
  currency balance, a lifetime counter, the owned amount of a purchase.
  Purchases use dependencies both as unlock gates and as the currency
  they are paid with.

HOW IT WORKS:
  1. Domain packages build dependencies with the binding helpers below
  2. They register them once, at game construction
  3. Catalog linking resolves string IDs into *Dependency handles

  Identifiers are unique: Register rejects duplicates with
  ErrDuplicateDependency, MustRegister panics.

USAGE:
  reg := generic.NewRegistry()
  reg.MustRegister(generic.BalanceLifetime("lifetime_circles", "Lifetime Circles", "circles"))

  dep, ok := reg.Lookup("lifetime_circles")
  v := dep.Value(save)

SEE ALSO:
  - currency.go: Currency specialization
  - purchase.go: Purchases as read-write dependencies
  - circles/domain.go: Canonical dependencies
*/
package generic

import (
	"fmt"
	"sync"
)

// =============================================================================
// DEPENDENCY
// =============================================================================

// Dependency is a named numeric source bound to whichever save it is
// evaluated against. A nil setter makes it read-only.
type Dependency struct {
	ID   DependencyID
	Name string

	get func(*Save) float64
	set func(*Save, float64)
}

// NewReadOnly creates a dependency exposing only a getter.
func NewReadOnly(id DependencyID, name string, get func(*Save) float64) *Dependency {
	return &Dependency{ID: id, Name: name, get: get}
}

// NewReadWrite creates a dependency with a getter and a setter.
func NewReadWrite(id DependencyID, name string, get func(*Save) float64, set func(*Save, float64)) *Dependency {
	return &Dependency{ID: id, Name: name, get: get, set: set}
}

// Value evaluates the dependency. A nil dependency or save yields 0.
func (d *Dependency) Value(s *Save) float64 {
	if d == nil || s == nil || d.get == nil {
		return 0
	}
	return d.get(s)
}

// Writable reports whether SetValue has any effect.
func (d *Dependency) Writable() bool {
	return d != nil && d.set != nil
}

// SetValue writes v to the save. Returns false for read-only dependencies.
func (d *Dependency) SetValue(s *Save, v float64) bool {
	if !d.Writable() || s == nil {
		return false
	}
	d.set(s, v)
	return true
}

// DisplayName returns Name, falling back to the ID.
func (d *Dependency) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return string(d.ID)
}

// =============================================================================
// BINDING HELPERS
// =============================================================================

// BalanceCurrent binds the spendable value of a balance (read-write).
func BalanceCurrent(id DependencyID, name, key string) *Dependency {
	return NewReadWrite(id, name,
		func(s *Save) float64 { return s.BalanceOf(key).Current },
		func(s *Save, v float64) { s.Balance(key).Set(v) },
	)
}

// BalanceTotal binds the this-incarnation total of a balance.
func BalanceTotal(id DependencyID, name, key string) *Dependency {
	return NewReadOnly(id, name, func(s *Save) float64 { return s.BalanceOf(key).Total })
}

// BalanceLifetime binds the lifetime total of a balance.
func BalanceLifetime(id DependencyID, name, key string) *Dependency {
	return NewReadOnly(id, name, func(s *Save) float64 { return s.BalanceOf(key).Lifetime })
}

// CounterCurrent binds the current value of a counter.
func CounterCurrent(id DependencyID, name, key string) *Dependency {
	return NewReadOnly(id, name, func(s *Save) float64 { return float64(s.CounterOf(key).Current) })
}

// CounterLifetime binds the lifetime value of a counter.
func CounterLifetime(id DependencyID, name, key string) *Dependency {
	return NewReadOnly(id, name, func(s *Save) float64 { return float64(s.CounterOf(key).Lifetime) })
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds dependencies in registration order, keyed by ID.
type Registry struct {
	mu         sync.RWMutex
	byID       map[DependencyID]*Dependency
	order      []*Dependency
	currencies map[DependencyID]*Currency
	curOrder   []*Currency
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[DependencyID]*Dependency),
		currencies: make(map[DependencyID]*Currency),
	}
}

// Register adds a dependency. IDs must be unique.
func (r *Registry) Register(d *Dependency) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("%w: empty id", ErrUnknownDependency)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDependency, d.ID)
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d)
	return nil
}

// MustRegister registers or panics on a duplicate.
func (r *Registry) MustRegister(d *Dependency) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// RegisterCurrency registers a currency and its underlying dependency.
func (r *Registry) RegisterCurrency(c *Currency) error {
	if c == nil || c.Dependency == nil {
		return fmt.Errorf("%w: nil currency", ErrUnknownDependency)
	}
	if !c.Writable() {
		return fmt.Errorf("currency %s must be writable", c.ID)
	}
	if err := r.Register(c.Dependency); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currencies[c.ID] = c
	r.curOrder = append(r.curOrder, c)
	return nil
}

// Lookup finds a dependency by ID.
func (r *Registry) Lookup(id DependencyID) (*Dependency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// MustLookup finds a dependency or panics.
// Use in tests or when the dependency is known to exist.
func (r *Registry) MustLookup(id DependencyID) *Dependency {
	d, ok := r.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("dependency not registered: %s", id))
	}
	return d
}

// Currency finds a currency by ID.
func (r *Registry) Currency(id DependencyID) (*Currency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.currencies[id]
	return c, ok
}

// List returns all dependencies in registration order.
func (r *Registry) List() []*Dependency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Dependency, len(r.order))
	copy(out, r.order)
	return out
}

// Currencies returns all currencies in registration order.
func (r *Registry) Currencies() []*Currency {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Currency, len(r.curOrder))
	copy(out, r.curOrder)
	return out
}
