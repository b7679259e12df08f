package registry

import (
	"errors"
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
)

// Scope layers handlers of one namespace over a base resolver. Handlers
// registered here shadow base entries with the same key for lookups through
// this Scope only; the base is never modified.
type Scope struct {
	namespace string
	base      Resolver
	own       *Registry
}

// Overlay returns a Scope bound to namespace on top of r.
func (r *Registry) Overlay(namespace string) *Scope {
	return NewScope(namespace, r)
}

// NewScope layers a namespace over any resolver.
func NewScope(namespace string, base Resolver) *Scope {
	return &Scope{namespace: namespace, base: base, own: NewRegistry()}
}

// Namespace returns the namespace the scope accepts.
func (s *Scope) Namespace() string { return s.namespace }

// RegisterFormula adds a formula in the scope's namespace.
func (s *Scope) RegisterFormula(key Key, fn FormulaHandler) error {
	if key.Namespace != s.namespace {
		return fmt.Errorf("%w: %s (overlay %s)", ErrForeignNamespace, key, s.namespace)
	}
	return s.own.RegisterFormula(key, fn)
}

// RegisterAction adds an action in the scope's namespace.
func (s *Scope) RegisterAction(key Key, fn ActionHandler) error {
	if key.Namespace != s.namespace {
		return fmt.Errorf("%w: %s (overlay %s)", ErrForeignNamespace, key, s.namespace)
	}
	return s.own.RegisterAction(key, fn)
}

// ResolveFormula checks the scope's own entries, then the base, by exact key.
func (s *Scope) ResolveFormula(key Key) (FormulaHandler, error) {
	fn, err := s.own.ResolveFormula(key)
	if err == nil || s.base == nil || !errors.Is(err, domain.ErrHandlerNotFound) {
		return fn, err
	}
	return s.base.ResolveFormula(key)
}

// ResolveAction checks the scope's own entries, then the base, by exact key.
func (s *Scope) ResolveAction(key Key) (ActionHandler, error) {
	fn, err := s.own.ResolveAction(key)
	if err == nil || s.base == nil || !errors.Is(err, domain.ErrHandlerNotFound) {
		return fn, err
	}
	return s.base.ResolveAction(key)
}

// Formulas lists the keys registered directly in the scope.
func (s *Scope) Formulas() []Key { return s.own.Formulas() }

// Actions lists the keys registered directly in the scope.
func (s *Scope) Actions() []Key { return s.own.Actions() }
