package ports

import (
	"context"
	"errors"
)

// ErrDefinitionNotFound is returned by a DefinitionLoader for an unknown component.
var ErrDefinitionNotFound = errors.New("definition not found")

// DefinitionLoader defines how the engine retrieves component definitions.
type DefinitionLoader interface {
	// GetComponent returns the raw definition (YAML or JSON) of a component by name.
	GetComponent(ctx context.Context, name string) ([]byte, error)

	// ListComponents returns the names of every available component.
	ListComponents(ctx context.Context) ([]string, error)
}
