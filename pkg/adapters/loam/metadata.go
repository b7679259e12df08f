package loam

// ComponentMetadata is the frontmatter of a component document. Shapes below
// the top level are left to the definition compiler, so every shorthand the
// YAML files accept is accepted here too.
type ComponentMetadata struct {
	Name       string         `json:"name" mapstructure:"name"`
	Namespace  string         `json:"namespace,omitempty" mapstructure:"namespace"`
	Variables  map[string]any `json:"variables,omitempty" mapstructure:"variables"`
	Attributes map[string]any `json:"attributes,omitempty" mapstructure:"attributes"`
	Formulas   map[string]any `json:"formulas,omitempty" mapstructure:"formulas"`
	Events     map[string]any `json:"events,omitempty" mapstructure:"events"`
	Handlers   []any          `json:"handlers,omitempty" mapstructure:"handlers"`
}
