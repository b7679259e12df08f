package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/jonboulle/clockwork"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers formula, action and event hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock replaces the wall clock (timers, dates, run timestamps).
func WithClock(clock clockwork.Clock) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLoader sets where components missing from memory are loaded from.
func WithLoader(loader ports.DefinitionLoader) EngineOption {
	return func(e *Engine) {
		e.loader = loader
	}
}

// WithSessionStorage shares one session storage across every session.
// Without it each session gets its own in-memory storage, dropped on teardown.
func WithSessionStorage(s *storage.Storage) EngineOption {
	return func(e *Engine) {
		e.sessionStorage = s
	}
}

// WithLocalStorage sets the persistent storage.
func WithLocalStorage(s *storage.Storage) EngineOption {
	return func(e *Engine) {
		e.localStorage = s
	}
}

// WithMaxDepth bounds nested component formula applications.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithScriptTimeout bounds each custom handler call.
func WithScriptTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.scriptTimeout = d
	}
}

// WithEqual injects the comparison used by lookup formulas.
func WithEqual(equal func(a, b value.Value) bool) EngineOption {
	return func(e *Engine) {
		e.equal = equal
	}
}
