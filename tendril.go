package tendril

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/runtime"
	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/adapters/file"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/stdlib"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/jonboulle/clockwork"
)

// Version is the release of the module, overridden at build time with -ldflags.
var Version = "0.1.0-dev"

// Request and result types are shared with the runtime.
type (
	Scope          = runtime.Scope
	RenderRequest  = runtime.RenderRequest
	RenderResult   = runtime.RenderResult
	EvalRequest    = runtime.EvalRequest
	TriggerRequest = runtime.TriggerRequest
)

// Engine is the high-level entry point for the Tendril library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime     *runtime.Engine
	loader      ports.DefinitionLoader
	registry    *registry.Registry
	runtimeOpts []runtime.EngineOption
	logger      *slog.Logger
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom DefinitionLoader, bypassing the default directory loader.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRegistry replaces the built-in handler registry. Register extra
// handlers on stdlib.NewRegistry() to keep the built-ins.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return runtimeOption(runtime.WithLifecycleHooks(hooks))
}

// WithClock replaces the wall clock used by timers and date formulas.
func WithClock(clock clockwork.Clock) Option {
	return runtimeOption(runtime.WithClock(clock))
}

// WithSessionStorage shares one session storage across sessions.
func WithSessionStorage(s *storage.Storage) Option {
	return runtimeOption(runtime.WithSessionStorage(s))
}

// WithLocalStorage sets the persistent storage.
func WithLocalStorage(s *storage.Storage) Option {
	return runtimeOption(runtime.WithLocalStorage(s))
}

// WithMaxDepth bounds nested component formula applications.
func WithMaxDepth(depth int) Option {
	return runtimeOption(runtime.WithMaxDepth(depth))
}

// WithScriptTimeout bounds each call of a user-authored handler.
func WithScriptTimeout(d time.Duration) Option {
	return runtimeOption(runtime.WithScriptTimeout(d))
}

// WithEqual injects the equality used by lookup formulas such as includes and indexOf.
func WithEqual(equal func(a, b value.Value) bool) Option {
	return runtimeOption(runtime.WithEqual(equal))
}

func runtimeOption(opt runtime.EngineOption) Option {
	return func(eng *Engine) {
		eng.runtimeOpts = append(eng.runtimeOpts, opt)
	}
}

// New initializes a new Tendril Engine.
// By default, components are read from the YAML/JSON files under dir.
// If WithLoader is provided, dir can be empty and is only used as the engine name.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if dir == "" {
			return nil, fmt.Errorf("dir is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)
		eng.loader = file.NewLoader(absPath)
	} else if dir != "" {
		eng.Name = filepath.Base(dir)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("app", eng.Name)
	}
	if eng.registry == nil {
		eng.registry = stdlib.NewRegistry()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLoader(eng.loader),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(eng.registry, runtimeOpts...)

	return eng, nil
}

// Load makes a component available by name, compiling its custom handlers.
func (e *Engine) Load(c *domain.Component) error {
	return e.runtime.Load(c)
}

// LoadDefinition parses a YAML or JSON definition and loads it.
func (e *Engine) LoadDefinition(name string, raw []byte) (*domain.Component, error) {
	return e.runtime.LoadDefinition(name, raw)
}

// LoadAll loads every component the loader lists and returns how many loaded.
func (e *Engine) LoadAll(ctx context.Context) (int, error) {
	return e.runtime.LoadAll(ctx)
}

// Render evaluates every attribute binding of a component.
func (e *Engine) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	return e.runtime.Render(ctx, req)
}

// Evaluate computes one formula, optionally inside a component.
func (e *Engine) Evaluate(ctx context.Context, req EvalRequest) (value.Value, error) {
	return e.runtime.Evaluate(ctx, req)
}

// Trigger runs the actions bound to a component event.
func (e *Engine) Trigger(ctx context.Context, req TriggerRequest) (*action.Run, error) {
	return e.runtime.Trigger(ctx, req)
}

// Teardown aborts every run of a session and forgets its state.
func (e *Engine) Teardown(sessionID string) bool {
	return e.runtime.Teardown(sessionID)
}

// Component returns a loaded component definition.
func (e *Engine) Component(name string) (*domain.Component, bool) {
	return e.runtime.Component(name)
}

// Components lists loaded component names.
func (e *Engine) Components() []string {
	return e.runtime.Components()
}

// ActiveSessions is the number of sessions with live scopes.
func (e *Engine) ActiveSessions() int {
	return e.runtime.ActiveSessions()
}

// Loader returns the underlying DefinitionLoader used by the engine.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}

// Registry returns the registry built-in and host handlers resolve from.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}
