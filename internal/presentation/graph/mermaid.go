package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
)

// Overlay highlights runtime state on top of the static graph.
type Overlay struct {
	// Emitted are component events the host has seen.
	Emitted []string
	// Current is the event being handled.
	Current string
}

// GenerateMermaid renders the event bindings of a component as a Mermaid flowchart.
// Shapes:
// - Component event: ((Circle))
// - Custom action: [[Subroutine]]
// - Switch: {Rhombus}
// - setVariable: [/Parallelogram/]
// - triggerEvent: >Flag]
// Sequences are drawn as chains; handler completion events are dotted edges.
func GenerateMermaid(c *domain.Component, overlay *Overlay) string {
	w := &writer{}
	w.line("graph TD")

	events := make([]string, 0, len(c.Events))
	for name := range c.Events {
		events = append(events, name)
	}
	sort.Strings(events)

	emits := make(map[string]string)
	for _, event := range events {
		id := "ev_" + sanitizeMermaidID(event)
		w.line("    %s((\"%s\"))", id, escape(event))
		w.chain(id, "", c.Events[event].Actions, emits)
	}

	if overlay != nil {
		w.line("")
		w.line("    %%%% Overlay Styles")
		w.line("    classDef emitted fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;")
		w.line("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;")
		seen := make(map[string]bool)
		for _, name := range overlay.Emitted {
			for _, id := range strings.Fields(emits[name]) {
				if !seen[id] {
					seen[id] = true
					w.line("    class %s emitted;", id)
				}
			}
		}
		if overlay.Current != "" {
			if _, ok := c.Events[overlay.Current]; ok {
				w.line("    class ev_%s current;", sanitizeMermaidID(overlay.Current))
			}
		}
	}
	return w.String()
}

type writer struct {
	strings.Builder
	next int
}

func (w *writer) line(format string, a ...any) {
	fmt.Fprintf(w, format, a...)
	w.WriteByte('\n')
}

// chain links from to each action in order. label decorates the first edge.
func (w *writer) chain(from, label string, actions []*domain.Action, emits map[string]string) {
	prev := from
	for i, a := range actions {
		id := w.node(a, emits)
		if i == 0 {
			w.edge(prev, id, label)
		} else {
			w.edge(prev, id, "")
		}
		prev = id
	}
}

func (w *writer) edge(from, to, label string) {
	switch {
	case label == "":
		w.line("    %s --> %s", from, to)
	case strings.HasPrefix(label, "on "):
		w.line("    %s -. \"%s\" .-> %s", from, escape(label), to)
	default:
		w.line("    %s -- \"%s\" --> %s", from, escape(label), to)
	}
}

func (w *writer) node(a *domain.Action, emits map[string]string) string {
	w.next++
	id := fmt.Sprintf("a%d", w.next)

	switch a.Type {
	case domain.ActionCustom:
		pkg, name := a.Handler()
		if pkg != "" {
			name = pkg + "/" + name
		}
		w.line("    %s[[\"%s\"]]", id, escape(name))
		for _, event := range sortedEvents(a.Events) {
			w.chain(id, "on "+event, a.Events[event].Actions, emits)
		}
	case domain.ActionSequence:
		w.line("    %s[\"sequence\"]", id)
		w.chain(id, "", a.Actions, emits)
	case domain.ActionSwitch:
		w.line("    %s{\"switch\"}", id)
		for i, c := range a.Cases {
			w.chain(id, fmt.Sprintf("case %d", i), c.Actions, emits)
		}
		if len(a.Default) > 0 {
			w.chain(id, "default", a.Default, emits)
		}
	case domain.ActionSetVariable:
		w.line("    %s[/\"set %s\"/]", id, escape(a.Variable))
	case domain.ActionTriggerEvent:
		w.line("    %s>\"emit %s\"]", id, escape(a.Event))
		emits[a.Event] += " " + id
	default:
		w.line("    %s[\"%s\"]", id, escape(string(a.Type)))
	}
	return id
}

func sortedEvents(m map[string]domain.EventBinding) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "@", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
