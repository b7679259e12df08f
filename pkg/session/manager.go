package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

// entry is the state of one session.
type entry struct {
	mu sync.Mutex // held by WithLock and Serialize

	signal *execution.AbortSignal
	abort  func()
	sites  map[string]*scope // call site -> scope shared by its unsuperseded runs
	vars   map[string]*execution.Variables
	refs   int
	torn   bool
}

// scope is the abort scope of the runs at one call site.
type scope struct {
	signal *execution.AbortSignal
	abort  func()
}

// Manager tracks live sessions. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire returns the live entry for sessionID, creating it when needed, and
// takes a reference. Callers must pair it with release.
func (m *Manager) acquire(sessionID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok || e.torn {
		signal, abort := execution.NewAbortController(context.Background())
		e = &entry{
			signal: signal,
			abort:  abort,
			sites:  make(map[string]*scope),
			vars:   make(map[string]*execution.Variables),
		}
		m.sessions[sessionID] = e
	}
	e.refs++
	return e
}

// release drops a reference; torn entries without references are forgotten.
func (m *Manager) release(sessionID string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs <= 0 && e.torn && m.sessions[sessionID] == e {
		delete(m.sessions, sessionID)
	}
}

// Begin returns the abort scope of a run started at callSite. Runs at one call
// site share a scope until a run with supersede aborts it and opens a fresh
// one. The scope stays live after the run's synchronous part returns, so
// pending effects keep running until superseded or torn down. The returned
// release func drops the caller's reference and is idempotent.
func (m *Manager) Begin(sessionID, callSite string, supersede bool) (*execution.AbortSignal, func()) {
	e := m.acquire(sessionID)

	m.mu.Lock()
	site, ok := e.sites[callSite]
	if ok && supersede {
		site.abort()
		m.logger.Debug("runs superseded", "session_id", sessionID, "call_site", callSite)
		ok = false
	}
	if !ok {
		signal, abort := execution.NewAbortController(e.signal.Context())
		site = &scope{signal: signal, abort: abort}
		e.sites[callSite] = site
	}
	m.mu.Unlock()

	var once sync.Once
	return site.signal, func() { once.Do(func() { m.release(sessionID, e) }) }
}

// WithLock runs fn while holding the session's lock, creating the session
// when needed. Top-level triggers of one session never interleave.
func (m *Manager) WithLock(sessionID string, fn func()) {
	e := m.acquire(sessionID)
	defer m.release(sessionID, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Serialize runs fn under the lock of a live session. It reports false
// without running fn once the session is gone.
func (m *Manager) Serialize(sessionID string, fn func()) bool {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if !ok || e.torn {
		m.mu.Unlock()
		return false
	}
	e.refs++
	m.mu.Unlock()
	defer m.release(sessionID, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
	return true
}

// Variables returns the variables of a component instance in the session.
// seed supplies the initial values on first use and may be nil.
func (m *Manager) Variables(sessionID, component string, seed func() map[string]value.Value) *execution.Variables {
	e := m.acquire(sessionID)
	defer m.release(sessionID, e)

	m.mu.Lock()
	vars, ok := e.vars[component]
	m.mu.Unlock()
	if ok {
		return vars
	}

	var initial map[string]value.Value
	if seed != nil {
		initial = seed()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if vars, ok := e.vars[component]; ok {
		return vars
	}
	vars = execution.NewVariables(initial)
	e.vars[component] = vars
	return vars
}

// Teardown aborts every run of the session and discards its variables.
// It reports whether the session existed.
func (m *Manager) Teardown(sessionID string) bool {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if !ok || e.torn {
		m.mu.Unlock()
		return false
	}
	e.torn = true
	if e.refs <= 0 {
		delete(m.sessions, sessionID)
	}
	sites := len(e.sites)
	m.mu.Unlock()

	e.abort()
	m.logger.Debug("session torn down", "session_id", sessionID, "call_sites", sites)
	return true
}

// Active returns the number of tracked sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
