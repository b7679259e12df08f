package dsl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
)

// Builder collects component definitions.
type Builder struct {
	components map[string]*ComponentBuilder
}

// New creates a new definition builder.
func New() *Builder {
	return &Builder{
		components: make(map[string]*ComponentBuilder),
	}
}

// Add starts a component definition.
// If the component already exists, it returns the existing builder.
func (b *Builder) Add(name string) *ComponentBuilder {
	if cb, ok := b.components[name]; ok {
		return cb
	}
	cb := &ComponentBuilder{
		component: domain.Component{Name: name},
	}
	b.components[name] = cb
	return cb
}

// Components returns the built components sorted by name.
func (b *Builder) Components() []*domain.Component {
	names := make([]string, 0, len(b.components))
	for name := range b.components {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*domain.Component, 0, len(names))
	for _, name := range names {
		out = append(out, b.components[name].Build())
	}
	return out
}

// Build validates every component and compiles them into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	components := b.Components()

	var errs []error
	for _, c := range components {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	loader, err := memory.NewFromComponents(components...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
