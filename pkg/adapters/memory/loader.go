package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// Loader implements ports.DefinitionLoader using an in-memory map.
type Loader struct {
	components map[string][]byte
}

// NewLoader creates a Loader from raw definitions (YAML or JSON text) keyed by component name.
func NewLoader(data map[string]string) *Loader {
	components := make(map[string][]byte, len(data))
	for k, v := range data {
		components[k] = []byte(v)
	}
	return &Loader{components: components}
}

// NewFromComponents creates a Loader from domain objects, serializing them to JSON.
func NewFromComponents(components ...*domain.Component) (*Loader, error) {
	data := make(map[string][]byte, len(components))
	for _, c := range components {
		if c == nil || c.Name == "" {
			return nil, fmt.Errorf("component missing name")
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal component %s: %w", c.Name, err)
		}
		data[c.Name] = raw
	}
	return &Loader{components: data}, nil
}

// GetComponent returns the raw definition of a component.
func (l *Loader) GetComponent(_ context.Context, name string) ([]byte, error) {
	content, ok := l.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrDefinitionNotFound, name)
	}
	return content, nil
}

// ListComponents returns all component names in sorted order.
func (l *Loader) ListComponents(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(l.components))
	for k := range l.components {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}
