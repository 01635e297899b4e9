package generic

import (
	"sort"
	"sync"
)

// Variables is a set of named tunables. A value that was never written
// reads as its defined default (or 0 when undefined).
type Variables struct {
	mu       sync.RWMutex
	defaults map[string]float64
	values   map[string]float64
}

// NewVariables creates an empty variable set.
func NewVariables() *Variables {
	return &Variables{
		defaults: make(map[string]float64),
		values:   make(map[string]float64),
	}
}

// Define sets the compiled-in default of a variable.
func (v *Variables) Define(name string, def float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.defaults[name] = def
}

// Get returns the stored value, else the default.
func (v *Variables) Get(name string) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if val, ok := v.values[name]; ok {
		return val
	}
	return v.defaults[name]
}

// Set stores a value, creating the variable if needed.
func (v *Variables) Set(name string, value float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
}

// Load stores every value from a persisted set.
func (v *Variables) Load(values map[string]float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for k, val := range values {
		v.values[k] = val
	}
}

// Names returns every defined or stored name, sorted.
func (v *Variables) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	seen := make(map[string]struct{}, len(v.defaults)+len(v.values))
	for k := range v.defaults {
		seen[k] = struct{}{}
	}
	for k := range v.values {
		seen[k] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// StatBaseVariable is the variable name holding a stat's base value.
func StatBaseVariable(id StatID) string {
	return "Stat." + string(id) + ".BaseValue"
}
