// Package cli wires configuration into a running engine for the tendril
// commands: logger, local storage backend with its middleware, metrics and
// lifecycle hooks.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/adapters/bolt"
	"github.com/aretw0/tendril/pkg/adapters/file"
	loamadapter "github.com/aretw0/tendril/pkg/adapters/loam"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/aretw0/tendril/pkg/persistence/middleware"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// Stack is an engine together with the resources it was built from.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	Engine   *tendril.Engine
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Backend  ports.Backend

	closers []io.Closer
}

// Close releases the storage backend.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, logging.Format(cfg.Format)), nil
}

// NewStack builds the engine described by cfg. Extra options are applied
// after the configured ones.
func NewStack(cfg config.Config, logger *slog.Logger, opts ...tendril.Option) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	st := &Stack{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	backend, closer, err := OpenBackend(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		st.closers = append(st.closers, closer)
	}
	st.Backend = backend

	st.Metrics, err = observability.NewMetrics(st.Registry)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	hooks := []domain.LifecycleHooks{st.Metrics.Hooks()}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		hooks = append(hooks, observability.LogHooks(logger))
	}

	engineOpts := []tendril.Option{
		tendril.WithLogger(logger),
		tendril.WithHooks(observability.Combine(hooks...)),
		tendril.WithLocalStorage(storage.New(backend, storage.WithLogger(logger))),
		tendril.WithScriptTimeout(cfg.Script.Timeout),
	}
	if cfg.MaxDepth > 0 {
		engineOpts = append(engineOpts, tendril.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.Format == config.FormatLoam {
		loader, err := loamadapter.Open(cfg.Definitions)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		engineOpts = append(engineOpts, tendril.WithLoader(loader))
	}
	engineOpts = append(engineOpts, opts...)

	st.Engine, err = tendril.New(cfg.Definitions, engineOpts...)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	logger.Debug("engine ready",
		"definitions", cfg.Definitions,
		"format", cfg.Format,
		"storage", cfg.Storage.Backend,
		"encrypted", cfg.Storage.EncryptionKey != "",
		"masked_patterns", len(cfg.Storage.Mask),
	)
	return st, nil
}

// OpenBackend opens the configured local storage backend wrapped in its
// masking and encryption middleware. The closer is nil when there is nothing
// to release.
func OpenBackend(cfg config.StorageConfig) (ports.Backend, io.Closer, error) {
	var (
		backend ports.Backend
		closer  io.Closer
	)
	switch cfg.Backend {
	case config.BackendMemory, "":
		backend = memory.NewStore()
	case config.BackendFile:
		backend = file.NewStore(cfg.Path)
	case config.BackendBolt:
		store, err := bolt.Open(cfg.Path, cfg.Bucket)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = store, store
	case config.BackendRedis:
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		backend, closer = store, store
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.Backend)
	}

	active, fallback, err := cfg.Keys()
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.Mask) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Mask))
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return middleware.Chain(backend, mws...), closer, nil
}
