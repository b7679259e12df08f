// Package stdlib provides the built-in formula and action handlers, registered
// under registry.BuiltinNamespace.
//
// Formula handlers are total: a type mismatch or out-of-range input yields null,
// never a panic or an error. Action handlers fail with domain.ErrInvalidArgument
// when a required argument is unusable.
package stdlib

import (
	"fmt"
	"sort"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/value"
)

// Formulas lists the built-in formula handlers by bare name.
var Formulas = map[string]registry.FormulaHandler{}

// Actions lists the built-in action handlers by bare name.
var Actions = map[string]registry.ActionHandler{}

func formula(name string, fn registry.FormulaHandler) { Formulas[name] = fn }

func action(name string, fn registry.ActionHandler) { Actions[name] = fn }

// Register adds every built-in to r under registry.BuiltinNamespace.
func Register(r *registry.Registry) error {
	for _, name := range sortedNames(Formulas) {
		if err := r.RegisterFormula(registry.Builtin(name), Formulas[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedNames(Actions) {
		if err := r.RegisterAction(registry.Builtin(name), Actions[name]); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding only the built-ins.
func NewRegistry() *registry.Registry {
	r := registry.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// arg returns the i-th argument or null.
func arg(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Null()
	}
	return args[i]
}

// list returns the elements of a list-style call: a single array argument, or
// the arguments themselves.
func list(args []value.Value) []value.Value {
	if len(args) == 1 {
		if items, ok := args[0].AsArray(); ok {
			return items
		}
	}
	return args
}

func invalid(handler, format string, a ...any) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrInvalidArgument, handler, fmt.Sprintf(format, a...))
}
