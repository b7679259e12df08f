package domain

import (
	"errors"
	"fmt"
	"sort"
)

// HandlerKind tells whether user-authored handler code is a formula or an action.
type HandlerKind string

const (
	HandlerFormula HandlerKind = "formula"
	HandlerAction  HandlerKind = "action"
)

// Component is the unit of definition: state variables, render bindings,
// reusable formulas, event handlers and custom handler code, all scoped to Namespace.
type Component struct {
	Name      string `json:"name" yaml:"name"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	Variables  map[string]Variable         `json:"variables,omitempty" yaml:"variables,omitempty"`
	Attributes map[string]*Formula         `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Formulas   map[string]ComponentFormula `json:"formulas,omitempty" yaml:"formulas,omitempty"`
	Events     map[string]EventBinding     `json:"events,omitempty" yaml:"events,omitempty"`
	Handlers   []HandlerSource             `json:"handlers,omitempty" yaml:"handlers,omitempty"`
}

// Variable declares a piece of component state.
type Variable struct {
	InitialValue *Formula `json:"initialValue,omitempty" yaml:"initialValue,omitempty"`
}

// ComponentFormula is a named formula callable through an apply node.
// Arguments name the parameters visible as Args.<name>.
type ComponentFormula struct {
	Arguments []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Formula   *Formula `json:"formula" yaml:"formula"`
}

// HandlerSource is user-authored handler code registered in the component namespace.
type HandlerSource struct {
	Name     string      `json:"name" yaml:"name"`
	Kind     HandlerKind `json:"kind" yaml:"kind"`
	Language string      `json:"language,omitempty" yaml:"language,omitempty"`
	Code     string      `json:"code" yaml:"code"`
}

// Validate reports every structural problem in the component, joined.
func (c *Component) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil component", ErrInvalidDefinition)
	}
	var errs []error
	if c.Name == "" {
		errs = append(errs, fmt.Errorf("%w: component without name", ErrInvalidDefinition))
	}
	for _, name := range sortedKeys(c.Variables) {
		if err := c.Variables[name].InitialValue.validate("variables." + name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range sortedKeys(c.Attributes) {
		if err := c.Attributes[name].validate("attributes." + name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range sortedKeys(c.Formulas) {
		if err := c.Formulas[name].Formula.validate("formulas." + name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range sortedKeys(c.Events) {
		if err := validateActions(c.Events[name].Actions, "events."+name); err != nil {
			errs = append(errs, err)
		}
	}
	for i, h := range c.Handlers {
		switch {
		case h.Name == "":
			errs = append(errs, fmt.Errorf("%w: handlers[%d]: missing name", ErrInvalidDefinition, i))
		case h.Kind != HandlerFormula && h.Kind != HandlerAction:
			errs = append(errs, fmt.Errorf("%w: handlers[%d]: unknown kind %q", ErrInvalidDefinition, i, h.Kind))
		}
	}
	return errors.Join(errs...)
}

// Walk visits every formula in the component: variable initial values, attributes,
// component formulas and the formulas held by event actions.
func (c *Component) Walk(visit func(*Formula) bool) {
	for _, name := range sortedKeys(c.Variables) {
		c.Variables[name].InitialValue.Walk(visit)
	}
	for _, name := range sortedKeys(c.Attributes) {
		c.Attributes[name].Walk(visit)
	}
	for _, name := range sortedKeys(c.Formulas) {
		c.Formulas[name].Formula.Walk(visit)
	}
	c.WalkActions(func(a *Action) bool {
		for _, f := range a.Formulas() {
			f.Walk(visit)
		}
		return true
	})
}

// WalkActions visits every action reachable from the component's events.
func (c *Component) WalkActions(visit func(*Action) bool) {
	for _, name := range sortedKeys(c.Events) {
		for _, a := range c.Events[name].Actions {
			a.Walk(visit)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
