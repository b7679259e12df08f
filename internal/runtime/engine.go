// Package runtime is the engine core behind the tendril facade: it compiles
// component definitions, binds their custom handlers into per-namespace
// overlays, and runs render passes and event triggers inside session scopes.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/adapters/script"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/formula"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/session"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/jonboulle/clockwork"
)

// Engine holds loaded components and the session manager.
type Engine struct {
	base     registry.Resolver
	loader   ports.DefinitionLoader
	parser   *compiler.Parser
	sessions *session.Manager

	evaluator *formula.Evaluator
	executor  *action.Executor
	scripts   *script.Compiler

	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	clock         clockwork.Clock
	equal         func(a, b value.Value) bool
	maxDepth      int
	scriptTimeout time.Duration

	sessionStorage *storage.Storage
	localStorage   *storage.Storage

	mu            sync.RWMutex
	components    map[string]*component
	sessionStores map[string]*storage.Storage
}

// component is a loaded definition bound to its namespace overlay.
type component struct {
	def       *domain.Component
	namespace string
	evaluator *formula.Evaluator
	executor  *action.Executor
}

// NewEngine creates an engine resolving built-in handlers through base.
func NewEngine(base registry.Resolver, opts ...EngineOption) *Engine {
	e := &Engine{
		base:          base,
		parser:        compiler.NewParser(),
		logger:        logging.NewNop(),
		clock:         clockwork.NewRealClock(),
		components:    make(map[string]*component),
		sessionStores: make(map[string]*storage.Storage),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.sessions = session.NewManager(session.WithLogger(e.logger))
	e.evaluator = formula.New(base,
		formula.WithLogger(e.logger),
		formula.WithHooks(e.hooks),
		formula.WithMaxDepth(e.maxDepth),
	)
	e.executor = action.New(e.evaluator,
		action.WithLogger(e.logger),
		action.WithHooks(e.hooks),
	)
	scriptOpts := []script.Option{script.WithLogger(e.logger)}
	if e.scriptTimeout > 0 {
		scriptOpts = append(scriptOpts, script.WithTimeout(e.scriptTimeout))
	}
	e.scripts = script.NewCompiler(scriptOpts...)
	return e
}

// Load validates c, compiles its custom handlers into an overlay of its
// namespace and makes it available by name. Loading a name again replaces
// the previous definition; running sessions keep their variables.
func (e *Engine) Load(c *domain.Component) error {
	if err := c.Validate(); err != nil {
		return err
	}

	ns := c.Namespace
	if ns == "" {
		ns = registry.BuiltinNamespace
	}
	scope := registry.NewScope(ns, e.base)
	if err := e.scripts.Register(scope, ns, c.Handlers); err != nil {
		return fmt.Errorf("component %s: %w", c.Name, err)
	}

	loaded := &component{
		def:       c,
		namespace: ns,
		evaluator: e.evaluator.WithResolver(scope),
		executor:  e.executor.WithResolver(scope),
	}

	e.mu.Lock()
	_, replaced := e.components[c.Name]
	e.components[c.Name] = loaded
	e.mu.Unlock()

	e.logger.Debug("component loaded",
		"component", c.Name,
		"namespace", ns,
		"handlers", len(c.Handlers),
		"replaced", replaced,
	)
	return nil
}

// LoadDefinition parses raw YAML or JSON and loads the result.
func (e *Engine) LoadDefinition(name string, raw []byte) (*domain.Component, error) {
	c, err := e.parser.Parse(name, raw)
	if err != nil {
		return nil, err
	}
	return c, e.Load(c)
}

// LoadAll loads every component the loader lists. Failures do not stop the
// remaining components; they are returned joined.
func (e *Engine) LoadAll(ctx context.Context) (int, error) {
	if e.loader == nil {
		return 0, errors.New("no definition loader configured")
	}
	names, err := e.loader.ListComponents(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list components: %w", err)
	}

	var errs []error
	loaded := 0
	for _, name := range names {
		if _, err := e.fetch(ctx, name); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// Component returns a loaded definition.
func (e *Engine) Component(name string) (*domain.Component, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.components[name]
	if !ok {
		return nil, false
	}
	return c.def, true
}

// Components lists loaded component names in order.
func (e *Engine) Components() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.components))
	for name := range e.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespace returns the namespace unqualified names resolve in for a
// loaded component.
func (e *Engine) Namespace(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.components[name]
	if !ok {
		return "", false
	}
	return c.namespace, true
}

// lookup returns a loaded component, falling back to the loader.
func (e *Engine) lookup(ctx context.Context, name string) (*component, error) {
	e.mu.RLock()
	c, ok := e.components[name]
	e.mu.RUnlock()
	if ok {
		return c, nil
	}
	if e.loader == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, name)
	}
	return e.fetch(ctx, name)
}

func (e *Engine) fetch(ctx context.Context, name string) (*component, error) {
	raw, err := e.loader.GetComponent(ctx, name)
	if errors.Is(err, ports.ErrDefinitionNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load component %s: %w", name, err)
	}
	def, err := e.LoadDefinition(name, raw)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", name, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.components[def.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, name)
	}
	return c, nil
}

// Teardown aborts every run of the session and drops its variables and
// session storage. It reports whether the session was active.
func (e *Engine) Teardown(sessionID string) bool {
	e.mu.Lock()
	delete(e.sessionStores, sessionID)
	e.mu.Unlock()
	return e.sessions.Teardown(sessionID)
}

// ActiveSessions is the number of sessions with live scopes.
func (e *Engine) ActiveSessions() int {
	return e.sessions.Active()
}

// sessionStore returns the session storage for sessionID.
func (e *Engine) sessionStore(sessionID string) *storage.Storage {
	if e.sessionStorage != nil {
		return e.sessionStorage
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessionStores[sessionID]
	if !ok {
		s = storage.New(memory.NewStore(), storage.WithLogger(e.logger))
		if sessionID != "" {
			e.sessionStores[sessionID] = s
		}
	}
	return s
}
