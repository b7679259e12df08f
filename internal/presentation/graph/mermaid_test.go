package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/tendril/internal/presentation/graph"
	"github.com/aretw0/tendril/pkg/domain"
)

func emit(event string) *domain.Action {
	return &domain.Action{Type: domain.ActionTriggerEvent, Event: event}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name      string
		component *domain.Component
		overlay   *graph.Overlay
		contains  []string
	}{
		{
			name: "Event Shape",
			component: &domain.Component{Events: map[string]domain.EventBinding{
				"on-click": {Actions: []*domain.Action{emit("clicked")}},
			}},
			contains: []string{
				`ev_on_click(("on-click"))`,
				`a1>"emit clicked"]`,
				"ev_on_click --> a1",
			},
		},
		{
			name: "Sequence Chain",
			component: &domain.Component{Events: map[string]domain.EventBinding{
				"click": {Actions: []*domain.Action{
					{Type: domain.ActionSetVariable, Variable: "count"},
					emit("done"),
				}},
			}},
			contains: []string{
				`a1[/"set count"/]`,
				"ev_click --> a1",
				"a1 --> a2",
			},
		},
		{
			name: "Custom Action Events",
			component: &domain.Component{Events: map[string]domain.EventBinding{
				"click": {Actions: []*domain.Action{{
					Type: domain.ActionCustom,
					Name: "@tendril/sleep",
					Events: map[string]domain.EventBinding{
						"tick": {Actions: []*domain.Action{emit("slept")}},
					},
				}}},
			}},
			contains: []string{
				`a1[["@tendril/sleep"]]`,
				`a1 -. "on tick" .-> a2`,
			},
		},
		{
			name: "Switch Labels",
			component: &domain.Component{Events: map[string]domain.EventBinding{
				"check": {Actions: []*domain.Action{{
					Type:    domain.ActionSwitch,
					Cases:   []domain.ActionCase{{Actions: []*domain.Action{emit("yes")}}},
					Default: []*domain.Action{emit(`say "no"`)},
				}}},
			}},
			contains: []string{
				`a1{"switch"}`,
				`a1 -- "case 0" --> a2`,
				`a1 -- "default" --> a3`,
				`a3>"emit say 'no'"]`,
			},
		},
		{
			name: "Overlay",
			component: &domain.Component{Events: map[string]domain.EventBinding{
				"click": {Actions: []*domain.Action{emit("done")}},
			}},
			overlay: &graph.Overlay{Emitted: []string{"done", "done", "unknown"}, Current: "click"},
			contains: []string{
				"class a1 emitted;",
				"class ev_click current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.component, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("GenerateMermaid() missing header:\n%v", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}

	got := graph.GenerateMermaid(&domain.Component{Events: map[string]domain.EventBinding{
		"click": {Actions: []*domain.Action{emit("done")}},
	}}, &graph.Overlay{Emitted: []string{"done", "done"}})
	if n := strings.Count(got, "class a1 emitted;"); n != 1 {
		t.Errorf("emitted class applied %d times, want 1", n)
	}
}
