package domain

import (
	"fmt"
	"strings"

	"github.com/aretw0/tendril/pkg/value"
)

// FormulaType discriminates Formula nodes.
type FormulaType string

const (
	FormulaValue    FormulaType = "value"
	FormulaPath     FormulaType = "path"
	FormulaFunction FormulaType = "function"
	FormulaSwitch   FormulaType = "switch"
	FormulaAnd      FormulaType = "and"
	FormulaOr       FormulaType = "or"

	// FormulaArray builds an array from its arguments.
	FormulaArray FormulaType = "array"
	// FormulaObject builds an object keyed by argument names.
	FormulaObject FormulaType = "object"
	// FormulaApply calls a component formula by name, exposing arguments under "Args".
	FormulaApply FormulaType = "apply"
)

// Formula is an immutable expression node. Only the fields relevant to Type are set.
type Formula struct {
	Type FormulaType `json:"type" yaml:"type"`

	// Value is the literal of a value node.
	Value value.Value `json:"value,omitempty" yaml:"-"`

	// Path is the key sequence of a path node.
	Path []string `json:"path,omitempty" yaml:"path,omitempty"`

	// Name and Package identify the handler of a function node (or the
	// component formula of an apply node). Name may carry its package as "pkg/name".
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Package string `json:"package,omitempty" yaml:"package,omitempty"`

	Arguments []Argument   `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Cases     []SwitchCase `json:"cases,omitempty" yaml:"cases,omitempty"`
	Default   *Formula     `json:"default,omitempty" yaml:"default,omitempty"`
}

// Argument is a (possibly named) formula argument.
type Argument struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Formula *Formula `json:"formula" yaml:"formula"`
}

// SwitchCase pairs a condition with the formula chosen when it is truthy.
type SwitchCase struct {
	Condition *Formula `json:"condition" yaml:"condition"`
	Formula   *Formula `json:"formula" yaml:"formula"`
}

// Handler splits a function name into its package and bare name.
// An explicit Package wins over a qualified Name.
func (f *Formula) Handler() (pkg, name string) {
	return SplitName(f.Package, f.Name)
}

// SplitName resolves "pkg/name" forms. The last slash separates the package,
// so scoped packages such as "@acme/ui/button" keep their scope.
func SplitName(pkg, name string) (string, string) {
	if pkg != "" {
		return pkg, name
	}
	if i := strings.LastIndex(name, "/"); i > 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Validate checks the structure of the tree rooted at f. A nil formula is valid (it evaluates to null).
func (f *Formula) Validate() error {
	return f.validate("formula")
}

func (f *Formula) validate(at string) error {
	if f == nil {
		return nil
	}
	switch f.Type {
	case FormulaValue, FormulaPath:
		return nil
	case FormulaFunction, FormulaApply:
		if _, name := f.Handler(); name == "" {
			return fmt.Errorf("%w: %s: %s node without name", ErrInvalidDefinition, at, f.Type)
		}
	case FormulaSwitch:
		for i, c := range f.Cases {
			if c.Condition == nil {
				return fmt.Errorf("%w: %s.cases[%d]: missing condition", ErrInvalidDefinition, at, i)
			}
			if err := c.Condition.validate(fmt.Sprintf("%s.cases[%d].condition", at, i)); err != nil {
				return err
			}
			if err := c.Formula.validate(fmt.Sprintf("%s.cases[%d].formula", at, i)); err != nil {
				return err
			}
		}
		return f.Default.validate(at + ".default")
	case FormulaAnd, FormulaOr, FormulaArray, FormulaObject:
	default:
		return fmt.Errorf("%w: %s: %q", ErrUnknownFormula, at, f.Type)
	}
	for i, arg := range f.Arguments {
		if err := arg.Formula.validate(fmt.Sprintf("%s.arguments[%d]", at, i)); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits f and every nested formula in depth-first order. Returning false stops descent below that node.
func (f *Formula) Walk(visit func(*Formula) bool) {
	if f == nil || !visit(f) {
		return
	}
	for _, arg := range f.Arguments {
		arg.Formula.Walk(visit)
	}
	for _, c := range f.Cases {
		c.Condition.Walk(visit)
		c.Formula.Walk(visit)
	}
	f.Default.Walk(visit)
}
