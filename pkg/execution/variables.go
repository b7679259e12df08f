package execution

import (
	"sync"

	"github.com/aretw0/tendril/pkg/value"
)

// Variables is the mutable state of one component instance. Formulas only ever
// see snapshots of it; setVariable actions write through it.
type Variables struct {
	mu     sync.RWMutex
	values map[string]value.Value
}

// NewVariables creates a store seeded with initial.
func NewVariables(initial map[string]value.Value) *Variables {
	values := make(map[string]value.Value, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Variables{values: values}
}

// Get returns the variable, or null.
func (v *Variables) Get(name string) value.Value {
	if v == nil {
		return value.Null()
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[name]
}

// Set assigns a variable. Last write wins.
func (v *Variables) Set(name string, val value.Value) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = val
}

// Snapshot returns the current variables as an object.
func (v *Variables) Snapshot() value.Value {
	if v == nil {
		return value.Object(nil)
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return value.Object(v.values)
}
