// Package storage is the durable-storage contract seen by handlers: values are
// stored as JSON text by key over a pluggable ports.Backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/value"
)

// Storage reads and writes Values by key. Concurrent writers race with
// last-write-wins; there is no isolation between invocations.
type Storage struct {
	backend ports.Backend
	logger  *slog.Logger
}

// Option configures a Storage.
type Option func(*Storage)

// WithLogger reports unreadable entries and backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// New wraps backend. A nil backend yields a Storage whose reads return null and whose writes fail.
func New(backend ports.Backend, opts ...Option) *Storage {
	s := &Storage{
		backend: backend,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrUnavailable is returned by writes on a Storage without a backend.
var ErrUnavailable = errors.New("storage unavailable")

// Backend exposes the wrapped backend.
func (s *Storage) Backend() ports.Backend {
	if s == nil {
		return nil
	}
	return s.backend
}

// Set stores v under key as JSON text.
func (s *Storage) Set(ctx context.Context, key string, v value.Value) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	if s == nil || s.backend == nil {
		return ErrUnavailable
	}
	text, err := value.Encode(v, 0)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.backend.Save(ctx, key, []byte(text)); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key. Absent keys, corrupt entries and
// backend failures all read as null; reads never fail.
func (s *Storage) Get(ctx context.Context, key string) value.Value {
	if key == "" || s == nil || s.backend == nil {
		return value.Null()
	}
	raw, err := s.backend.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn("storage read failed", "key", key, "error", err)
		}
		return value.Null()
	}
	v, err := value.Decode(string(raw), value.DecodeOptions{})
	if err != nil {
		s.logger.Warn("storage entry unreadable", "key", key, "error", err)
		return value.Null()
	}
	return v
}

// Delete removes key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrInvalidKey
	}
	if s == nil || s.backend == nil {
		return ErrUnavailable
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every key.
func (s *Storage) Clear(ctx context.Context) error {
	if s == nil || s.backend == nil {
		return ErrUnavailable
	}
	if err := s.backend.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Keys lists the stored keys.
func (s *Storage) Keys(ctx context.Context) ([]string, error) {
	if s == nil || s.backend == nil {
		return nil, nil
	}
	return s.backend.List(ctx)
}
