package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
)

// Describe summarizes a component as Markdown: variables, attribute
// bindings, component formulas, event bindings and custom handlers.
func Describe(c *domain.Component) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	if c.Namespace != "" {
		fmt.Fprintf(&b, "Namespace: `%s`\n\n", c.Namespace)
	}

	if len(c.Variables) > 0 {
		b.WriteString("## Variables\n\n")
		for _, name := range keys(c.Variables) {
			fmt.Fprintf(&b, "- `%s` = `%s`\n", name, Formula(c.Variables[name].InitialValue))
		}
		b.WriteString("\n")
	}

	if len(c.Attributes) > 0 {
		b.WriteString("## Attributes\n\n")
		for _, name := range keys(c.Attributes) {
			fmt.Fprintf(&b, "- `%s`: `%s`\n", name, Formula(c.Attributes[name]))
		}
		b.WriteString("\n")
	}

	if len(c.Formulas) > 0 {
		b.WriteString("## Formulas\n\n")
		for _, name := range keys(c.Formulas) {
			cf := c.Formulas[name]
			fmt.Fprintf(&b, "- `%s(%s)`: `%s`\n", name, strings.Join(cf.Arguments, ", "), Formula(cf.Formula))
		}
		b.WriteString("\n")
	}

	if len(c.Events) > 0 {
		b.WriteString("## Events\n\n")
		for _, name := range keys(c.Events) {
			fmt.Fprintf(&b, "### %s\n\n", name)
			writeActions(&b, c.Events[name].Actions, 0)
			b.WriteString("\n")
		}
	}

	if len(c.Handlers) > 0 {
		b.WriteString("## Handlers\n\n")
		for _, h := range c.Handlers {
			fmt.Fprintf(&b, "- `%s` (%s)\n", h.Name, h.Kind)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeActions(b *strings.Builder, actions []*domain.Action, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, a := range actions {
		fmt.Fprintf(b, "%s%d. `%s`", indent, i+1, action.Describe(a))
		switch a.Type {
		case domain.ActionSetVariable, domain.ActionTriggerEvent:
			fmt.Fprintf(b, " ← `%s`\n", Formula(a.Data))
		case domain.ActionCustom:
			args := make([]string, len(a.Arguments))
			for j, arg := range a.Arguments {
				args[j] = argument(arg)
			}
			fmt.Fprintf(b, " (`%s`)\n", strings.Join(args, ", "))
			for _, ev := range keys(a.Events) {
				fmt.Fprintf(b, "%s   - on *%s*\n", indent, ev)
				writeActions(b, a.Events[ev].Actions, depth+2)
			}
		case domain.ActionSequence:
			b.WriteString("\n")
			writeActions(b, a.Actions, depth+1)
		case domain.ActionSwitch:
			b.WriteString("\n")
			for j, c := range a.Cases {
				fmt.Fprintf(b, "%s   - case %d when `%s`\n", indent, j, Formula(c.Condition))
				writeActions(b, c.Actions, depth+2)
			}
			if len(a.Default) > 0 {
				fmt.Fprintf(b, "%s   - default\n", indent)
				writeActions(b, a.Default, depth+2)
			}
		default:
			b.WriteString("\n")
		}
	}
}

// Formula renders a formula as a compact expression, e.g.
// `concatenate("n=", string(Variables.count))`.
func Formula(f *domain.Formula) string {
	if f == nil {
		return "null"
	}
	switch f.Type {
	case domain.FormulaValue:
		text, err := value.Encode(f.Value, 0)
		if err != nil {
			return value.ToString(f.Value)
		}
		return text
	case domain.FormulaPath:
		return strings.Join(f.Path, ".")
	case domain.FormulaFunction:
		pkg, name := f.Handler()
		if pkg != "" {
			name = pkg + "/" + name
		}
		return name + "(" + arguments(f.Arguments, ", ") + ")"
	case domain.FormulaApply:
		_, name := f.Handler()
		return "@" + name + "(" + arguments(f.Arguments, ", ") + ")"
	case domain.FormulaAnd:
		return "(" + arguments(f.Arguments, " && ") + ")"
	case domain.FormulaOr:
		return "(" + arguments(f.Arguments, " || ") + ")"
	case domain.FormulaArray:
		return "[" + arguments(f.Arguments, ", ") + "]"
	case domain.FormulaObject:
		return "{" + arguments(f.Arguments, ", ") + "}"
	case domain.FormulaSwitch:
		parts := make([]string, 0, len(f.Cases)+1)
		for _, c := range f.Cases {
			parts = append(parts, Formula(c.Condition)+" ? "+Formula(c.Formula))
		}
		parts = append(parts, "else "+Formula(f.Default))
		return "switch(" + strings.Join(parts, "; ") + ")"
	}
	return string(f.Type)
}

func arguments(args []domain.Argument, sep string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = argument(a)
	}
	return strings.Join(parts, sep)
}

func argument(a domain.Argument) string {
	if a.Name != "" {
		return a.Name + ": " + Formula(a.Formula)
	}
	return Formula(a.Formula)
}

func keys[M ~map[string]V, V any](m M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
