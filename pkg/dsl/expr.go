package dsl

import (
	"sort"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
)

// Val is a literal. Go values convert through value.FromAny.
func Val(x any) *domain.Formula {
	v, ok := x.(value.Value)
	if !ok {
		v = value.FromAny(x)
	}
	return &domain.Formula{Type: domain.FormulaValue, Value: v}
}

// Path reads a key sequence from the scope.
func Path(keys ...string) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaPath, Path: keys}
}

// Var reads a component variable.
func Var(name string, keys ...string) *domain.Formula {
	return Path(append([]string{"Variables", name}, keys...)...)
}

// Attr reads an attribute supplied by the host.
func Attr(name string, keys ...string) *domain.Formula {
	return Path(append([]string{"Attributes", name}, keys...)...)
}

// Event reads the payload of the event being handled.
func Event(keys ...string) *domain.Formula {
	return Path(append([]string{"Event"}, keys...)...)
}

// Call invokes a formula handler with positional arguments.
func Call(name string, args ...*domain.Formula) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaFunction, Name: name, Arguments: positional(args)}
}

// CallNamed invokes a formula handler with named arguments.
func CallNamed(name string, args ...domain.Argument) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaFunction, Name: name, Arguments: args}
}

// Arg names an argument.
func Arg(name string, f *domain.Formula) domain.Argument {
	return domain.Argument{Name: name, Formula: f}
}

// Apply calls a component formula.
func Apply(name string, args ...domain.Argument) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaApply, Name: name, Arguments: args}
}

// And reports whether every operand is truthy, stopping at the first that is not.
func And(operands ...*domain.Formula) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaAnd, Arguments: positional(operands)}
}

// Or reports whether any operand is truthy, stopping at the first that is.
func Or(operands ...*domain.Formula) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaOr, Arguments: positional(operands)}
}

// List builds an array.
func List(items ...*domain.Formula) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaArray, Arguments: positional(items)}
}

// Obj builds an object. Keys are laid out in sorted order.
func Obj(fields map[string]*domain.Formula) *domain.Formula {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]domain.Argument, 0, len(keys))
	for _, k := range keys {
		args = append(args, domain.Argument{Name: k, Formula: fields[k]})
	}
	return &domain.Formula{Type: domain.FormulaObject, Arguments: args}
}

// Case pairs a condition with a result for Switch.
func Case(cond, then *domain.Formula) domain.SwitchCase {
	return domain.SwitchCase{Condition: cond, Formula: then}
}

// Switch picks the first case whose condition is truthy, else def.
func Switch(def *domain.Formula, cases ...domain.SwitchCase) *domain.Formula {
	return &domain.Formula{Type: domain.FormulaSwitch, Cases: cases, Default: def}
}

func positional(fs []*domain.Formula) []domain.Argument {
	args := make([]domain.Argument, len(fs))
	for i, f := range fs {
		args[i] = domain.Argument{Formula: f}
	}
	return args
}
