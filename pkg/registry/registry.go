// Package registry maps namespaced names to formula and action handlers.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

// BuiltinNamespace holds the standard handler library.
const BuiltinNamespace = "@tendril"

// ErrForeignNamespace is returned when an overlay is asked to hold a handler outside its namespace.
var ErrForeignNamespace = errors.New("handler outside overlay namespace")

// FormulaHandler implements a formula. It must not mutate its arguments or the context
// and must return null, never panic, on data of the wrong shape.
type FormulaHandler func(args []value.Value, ctx *execution.Context) value.Value

// ActionHandler implements an action. Effects outliving the call must be torn
// down when ctx.Signal fires.
type ActionHandler func(args []value.Value, ctx *execution.Context) error

// Key is a namespaced handler identifier.
type Key struct {
	Namespace string
	Name      string
}

// Builtin is shorthand for a key in BuiltinNamespace.
func Builtin(name string) Key { return Key{Namespace: BuiltinNamespace, Name: name} }

// ParseKey splits "namespace/name". A bare name yields an empty namespace.
func ParseKey(s string) Key {
	ns, name := domain.SplitName("", s)
	return Key{Namespace: ns, Name: name}
}

func (k Key) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + "/" + k.Name
}

// Resolver looks handlers up by exact key.
type Resolver interface {
	ResolveFormula(key Key) (FormulaHandler, error)
	ResolveAction(key Key) (ActionHandler, error)
}

// NotFoundError reports an unresolvable handler. It unwraps to domain.ErrHandlerNotFound.
type NotFoundError struct {
	Kind string
	Key  Key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return domain.ErrHandlerNotFound }

// Registry manages the available handlers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	formulas map[Key]FormulaHandler
	actions  map[Key]ActionHandler
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		formulas: make(map[Key]FormulaHandler),
		actions:  make(map[Key]ActionHandler),
	}
}

// RegisterFormula adds a formula handler. Keys are unique: registering twice fails.
func (r *Registry) RegisterFormula(key Key, fn FormulaHandler) error {
	if key.Name == "" || fn == nil {
		return fmt.Errorf("%w: formula %q", domain.ErrInvalidArgument, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formulas[key]; exists {
		return fmt.Errorf("%w: formula %s", domain.ErrDuplicateHandler, key)
	}
	r.formulas[key] = fn
	return nil
}

// RegisterAction adds an action handler. Keys are unique: registering twice fails.
func (r *Registry) RegisterAction(key Key, fn ActionHandler) error {
	if key.Name == "" || fn == nil {
		return fmt.Errorf("%w: action %q", domain.ErrInvalidArgument, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[key]; exists {
		return fmt.Errorf("%w: action %s", domain.ErrDuplicateHandler, key)
	}
	r.actions[key] = fn
	return nil
}

// MustRegisterFormula is RegisterFormula that panics on error, for init-time wiring.
func (r *Registry) MustRegisterFormula(key Key, fn FormulaHandler) {
	if err := r.RegisterFormula(key, fn); err != nil {
		panic(err)
	}
}

// MustRegisterAction is RegisterAction that panics on error.
func (r *Registry) MustRegisterAction(key Key, fn ActionHandler) {
	if err := r.RegisterAction(key, fn); err != nil {
		panic(err)
	}
}

// ResolveFormula returns the formula handler registered under exactly key.
func (r *Registry) ResolveFormula(key Key) (FormulaHandler, error) {
	r.mu.RLock()
	fn, ok := r.formulas[key]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Kind: "formula", Key: key}
	}
	return fn, nil
}

// ResolveAction returns the action handler registered under exactly key.
func (r *Registry) ResolveAction(key Key) (ActionHandler, error) {
	r.mu.RLock()
	fn, ok := r.actions[key]
	r.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Kind: "action", Key: key}
	}
	return fn, nil
}

// Formulas lists registered formula keys in sorted order.
func (r *Registry) Formulas() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.formulas)
}

// Actions lists registered action keys in sorted order.
func (r *Registry) Actions() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.actions)
}

func sortedKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Namespace != keys[j].Namespace {
			return keys[i].Namespace < keys[j].Namespace
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}
