package runner

import (
	"log/slog"

	"github.com/aretw0/tendril/pkg/value"
)

// DefaultSessionID is used when no session is configured, so variables and
// delayed effects survive between commands.
const DefaultSessionID = "repl"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithSessionID sets the session commands run in.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithAttributes sets the host attributes of the component instance.
func WithAttributes(attrs map[string]value.Value) Option {
	return func(r *Runner) {
		r.Attributes = attrs
	}
}

// WithKeepSession leaves the session alive when Run returns.
func WithKeepSession(keep bool) Option {
	return func(r *Runner) {
		r.KeepSession = keep
	}
}

// WithData sets extra fields merged into the top of the data scope.
func WithData(data map[string]value.Value) Option {
	return func(r *Runner) {
		r.Data = data
	}
}
