// Package middleware wraps a ports.Backend with payload transformations:
// encryption at rest and masking of sensitive fields.
package middleware

import (
	"context"

	"github.com/aretw0/tendril/pkg/ports"
)

// Middleware wraps a Backend to add behavior.
type Middleware func(ports.Backend) ports.Backend

// Chain applies middlewares so the first one listed sees payloads first on Save.
// Chain(mask, encrypt)(b) masks, then encrypts, then writes to b.
func Chain(backend ports.Backend, mws ...Middleware) ports.Backend {
	for i := len(mws) - 1; i >= 0; i-- {
		backend = mws[i](backend)
	}
	return backend
}

// passthrough forwards everything except payload transforms.
type passthrough struct {
	next ports.Backend
}

func (p passthrough) Delete(ctx context.Context, key string) error {
	return p.next.Delete(ctx, key)
}

func (p passthrough) Clear(ctx context.Context) error {
	return p.next.Clear(ctx)
}

func (p passthrough) List(ctx context.Context) ([]string, error) {
	return p.next.List(ctx)
}
