package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when the key holds no entry.
var ErrNotFound = errors.New("key not found")

// Backend persists opaque payloads by key. It backs the local and session
// storages handed to action and formula handlers.
type Backend interface {
	// Load returns the payload stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores payload under key, replacing any previous entry.
	Save(ctx context.Context, key string, payload []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by the backend.
	Clear(ctx context.Context) error

	// List returns the keys currently stored, in no particular order.
	List(ctx context.Context) ([]string, error)
}
