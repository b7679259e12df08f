// Package validator checks loaded component definitions for references that
// would only fail at evaluation time: unknown handlers, unknown component
// formulas and writes to undeclared variables.
package validator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
)

// Problem is one broken reference inside a component.
type Problem struct {
	Component string
	Message   string
}

func (p Problem) String() string {
	return p.Component + ": " + p.Message
}

// ValidateAll parses every component the loader lists and checks its
// references against resolver.
func ValidateAll(ctx context.Context, loader ports.DefinitionLoader, parser *compiler.Parser, resolver registry.Resolver) error {
	names, err := loader.ListComponents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list components: %w", err)
	}

	var problems []string
	for _, name := range names {
		raw, err := loader.GetComponent(ctx, name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: load error: %v", name, err))
			continue
		}
		c, err := parser.Parse(name, raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		for _, p := range Check(c, resolver) {
			problems = append(problems, p.String())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// Check reports the broken references of c. Handler sources declared by the
// component count as registered in its namespace.
func Check(c *domain.Component, resolver registry.Resolver) []Problem {
	ns := c.Namespace
	if ns == "" {
		ns = registry.BuiltinNamespace
	}
	declared := make(map[registry.Key]domain.HandlerKind, len(c.Handlers))
	for _, h := range c.Handlers {
		declared[registry.Key{Namespace: ns, Name: h.Name}] = h.Kind
	}
	key := func(pkg, name string) registry.Key {
		if pkg == "" {
			pkg = ns
		}
		return registry.Key{Namespace: pkg, Name: name}
	}

	seen := make(map[string]bool)
	var problems []Problem
	report := func(format string, a ...any) {
		msg := fmt.Sprintf(format, a...)
		if !seen[msg] {
			seen[msg] = true
			problems = append(problems, Problem{Component: c.Name, Message: msg})
		}
	}

	c.Walk(func(f *domain.Formula) bool {
		switch f.Type {
		case domain.FormulaFunction:
			k := key(f.Handler())
			if declared[k] == domain.HandlerFormula {
				return true
			}
			if _, err := resolver.ResolveFormula(k); err != nil {
				report("unknown formula %s", k)
			}
		case domain.FormulaApply:
			if _, name := f.Handler(); !hasFormula(c, name) {
				report("unknown component formula %s", name)
			}
		}
		return true
	})

	c.WalkActions(func(a *domain.Action) bool {
		switch a.Type {
		case domain.ActionCustom:
			k := key(a.Handler())
			if declared[k] == domain.HandlerAction {
				return true
			}
			if _, err := resolver.ResolveAction(k); err != nil {
				report("unknown action %s", k)
			}
		case domain.ActionSetVariable:
			if _, ok := c.Variables[a.Variable]; !ok {
				report("setVariable writes undeclared variable %s", a.Variable)
			}
		}
		return true
	})

	sort.Slice(problems, func(i, j int) bool { return problems[i].Message < problems[j].Message })
	return problems
}

func hasFormula(c *domain.Component, name string) bool {
	_, ok := c.Formulas[name]
	return ok
}
