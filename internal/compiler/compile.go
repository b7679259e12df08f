package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tendril/internal/dto"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
)

func compileComponent(doc dto.Component) (*domain.Component, error) {
	c := &domain.Component{
		Name:      doc.Name,
		Namespace: doc.Namespace,
	}

	if len(doc.Variables) > 0 {
		c.Variables = make(map[string]domain.Variable, len(doc.Variables))
		for _, name := range sortedKeys(doc.Variables) {
			f, err := compileFormula("variables."+name+".initialValue", doc.Variables[name].InitialValue)
			if err != nil {
				return nil, err
			}
			c.Variables[name] = domain.Variable{InitialValue: f}
		}
	}

	if len(doc.Attributes) > 0 {
		c.Attributes = make(map[string]*domain.Formula, len(doc.Attributes))
		for _, name := range sortedKeys(doc.Attributes) {
			f, err := compileFormula("attributes."+name, doc.Attributes[name])
			if err != nil {
				return nil, err
			}
			c.Attributes[name] = f
		}
	}

	if len(doc.Formulas) > 0 {
		c.Formulas = make(map[string]domain.ComponentFormula, len(doc.Formulas))
		for _, name := range sortedKeys(doc.Formulas) {
			cf := doc.Formulas[name]
			f, err := compileFormula("formulas."+name, cf.Formula)
			if err != nil {
				return nil, err
			}
			c.Formulas[name] = domain.ComponentFormula{Arguments: cf.Arguments, Formula: f}
		}
	}

	events, err := compileEvents("events", doc.Events)
	if err != nil {
		return nil, err
	}
	c.Events = events

	for _, h := range doc.Handlers {
		c.Handlers = append(c.Handlers, domain.HandlerSource{
			Name:     h.Name,
			Kind:     domain.HandlerKind(h.Kind),
			Language: h.Language,
			Code:     h.Code,
		})
	}
	return c, nil
}

func compileFormula(at string, raw any) (*domain.Formula, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return &domain.Formula{Type: domain.FormulaValue, Value: value.FromAny(raw)}, nil
	}

	var d dto.Formula
	if err := decode(m, &d); err != nil {
		return nil, invalid(at, "%v", err)
	}
	if d.Type == "" {
		switch {
		case m["path"] != nil:
			d.Type = string(domain.FormulaPath)
		case d.Name != "":
			d.Type = string(domain.FormulaFunction)
		case hasKey(m, "value"):
			d.Type = string(domain.FormulaValue)
		default:
			return nil, invalid(at, "cannot infer formula type from keys %v", sortedKeys(m))
		}
	}

	f := &domain.Formula{
		Type:    domain.FormulaType(d.Type),
		Name:    d.Name,
		Package: d.Package,
	}
	switch f.Type {
	case domain.FormulaValue:
		f.Value = value.FromAny(d.Value)
	case domain.FormulaPath:
		path, err := compilePath(at, d.Path)
		if err != nil {
			return nil, err
		}
		f.Path = path
	}

	for i, rawArg := range d.Arguments {
		arg, err := compileArgument(fmt.Sprintf("%s.arguments[%d]", at, i), rawArg)
		if err != nil {
			return nil, err
		}
		f.Arguments = append(f.Arguments, arg)
	}
	for i, c := range d.Cases {
		path := fmt.Sprintf("%s.cases[%d]", at, i)
		cond, err := compileFormula(path+".condition", c.Condition)
		if err != nil {
			return nil, err
		}
		body, err := compileFormula(path+".formula", c.Formula)
		if err != nil {
			return nil, err
		}
		f.Cases = append(f.Cases, domain.SwitchCase{Condition: cond, Formula: body})
	}
	def, err := compileFormula(at+".default", d.Default)
	if err != nil {
		return nil, err
	}
	f.Default = def
	return f, nil
}

// compileArgument accepts {name, formula} or a bare formula.
func compileArgument(at string, raw any) (domain.Argument, error) {
	if m, ok := raw.(map[string]any); ok && hasKey(m, "formula") {
		var d dto.Argument
		if err := decode(m, &d); err != nil {
			return domain.Argument{}, invalid(at, "%v", err)
		}
		f, err := compileFormula(at+".formula", d.Formula)
		return domain.Argument{Name: d.Name, Formula: f}, err
	}
	f, err := compileFormula(at, raw)
	return domain.Argument{Formula: f}, err
}

func compilePath(at string, raw any) ([]string, error) {
	switch p := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return splitPath(at, p)
	case []any:
		path := make([]string, len(p))
		for i, step := range p {
			switch step.(type) {
			case map[string]any, []any, nil:
				return nil, invalid(at, "path step %d is not a key", i)
			}
			path[i] = fmt.Sprint(step)
		}
		return path, nil
	case []string:
		return p, nil
	default:
		return nil, invalid(at, "path must be a string or a list, got %T", raw)
	}
}

// splitPath reads the shorthand a.b[0]["c.d"] into its keys. Quoted bracket
// steps may contain dots and brackets.
func splitPath(at, p string) ([]string, error) {
	var (
		path []string
		key  strings.Builder
	)
	flush := func() {
		if key.Len() > 0 {
			path = append(path, key.String())
			key.Reset()
		}
	}
	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(p[i:], ']')
			if q := p[i+1:]; len(q) > 0 && (q[0] == '"' || q[0] == '\'') {
				closing := strings.IndexByte(q[1:], q[0])
				if closing < 0 || len(q) < closing+3 || q[closing+2] != ']' {
					return nil, invalid(at, "unterminated quoted step in path %q", p)
				}
				path = append(path, q[1:closing+1])
				i += closing + 3
				continue
			}
			if end < 0 {
				return nil, invalid(at, "unterminated bracket in path %q", p)
			}
			path = append(path, strings.TrimSpace(p[i+1:i+end]))
			i += end
		default:
			key.WriteByte(c)
		}
	}
	flush()
	return path, nil
}

func compileAction(at string, raw any) (*domain.Action, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, invalid(at, "action must be a map, got %T", raw)
	}
	var d dto.Action
	if err := decode(m, &d); err != nil {
		return nil, invalid(at, "%v", err)
	}
	if d.Type == "" && d.Name != "" {
		d.Type = string(domain.ActionCustom)
	}

	a := &domain.Action{
		Type:     domain.ActionType(d.Type),
		Name:     d.Name,
		Package:  d.Package,
		Variable: d.Variable,
		Event:    d.Event,
	}
	var err error
	for i, rawArg := range d.Arguments {
		arg, err := compileArgument(fmt.Sprintf("%s.arguments[%d]", at, i), rawArg)
		if err != nil {
			return nil, err
		}
		a.Arguments = append(a.Arguments, arg)
	}
	if a.Events, err = compileEvents(at+".events", d.Events); err != nil {
		return nil, err
	}
	if a.Actions, err = compileActions(at+".actions", d.Actions); err != nil {
		return nil, err
	}
	for i, c := range d.Cases {
		path := fmt.Sprintf("%s.cases[%d]", at, i)
		cond, err := compileFormula(path+".condition", c.Condition)
		if err != nil {
			return nil, err
		}
		body, err := compileActions(path+".actions", c.Actions)
		if err != nil {
			return nil, err
		}
		a.Cases = append(a.Cases, domain.ActionCase{Condition: cond, Actions: body})
	}
	if a.Default, err = compileActions(at+".default", d.Default); err != nil {
		return nil, err
	}
	if a.Data, err = compileFormula(at+".data", d.Data); err != nil {
		return nil, err
	}
	return a, nil
}

func compileActions(at string, raw []any) ([]*domain.Action, error) {
	var out []*domain.Action
	for i, r := range raw {
		a, err := compileAction(fmt.Sprintf("%s[%d]", at, i), r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// compileEvents accepts either a list of actions or {actions: [...]} per event.
func compileEvents(at string, raw map[string]any) (map[string]domain.EventBinding, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]domain.EventBinding, len(raw))
	for _, name := range sortedKeys(raw) {
		path := at + "." + name
		var list []any
		switch b := raw[name].(type) {
		case nil:
		case []any:
			list = b
		case map[string]any:
			var binding struct {
				Actions []any `mapstructure:"actions"`
			}
			if err := decode(b, &binding); err != nil {
				return nil, invalid(path, "%v", err)
			}
			list = binding.Actions
		default:
			return nil, invalid(path, "event binding must be a list or a map, got %T", b)
		}
		actions, err := compileActions(path+".actions", list)
		if err != nil {
			return nil, err
		}
		out[name] = domain.EventBinding{Actions: actions}
	}
	return out, nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
