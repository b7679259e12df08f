package runner

import (
	"context"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
)

// Op names a runner command.
type Op string

const (
	OpEval     Op = "eval"
	OpRender   Op = "render"
	OpTrigger  Op = "trigger"
	OpTeardown Op = "teardown"
	OpHelp     Op = "help"
	OpQuit     Op = "quit"
)

// Command is one parsed request.
type Command struct {
	Op        Op
	Formula   *domain.Formula
	Event     string
	Payload   value.Value
	Supersede bool
}

// Result is the outcome of a command. Exactly one of Value, Render or Run is
// set on success; Err is set otherwise.
type Result struct {
	Op     Op
	Value  value.Value
	Render *tendril.RenderResult
	Run    *action.Run
	Err    error
}

// IOHandler defines the strategy for interacting with the host.
// This allows switching between Text (console) and JSON (structured) modes.
type IOHandler interface {
	// Input reads the next command. It returns io.EOF when the input ends.
	// A malformed command is reported as a *CommandError so the loop can
	// answer it and continue.
	Input(ctx context.Context) (Command, error)

	// Output presents the result of a command.
	Output(ctx context.Context, res Result) error

	// Event presents a component event. It may be called concurrently with
	// Input and Output by delayed effects.
	Event(ctx context.Context, component string, event string, payload value.Value) error
}

// CommandError reports input that could not be parsed into a Command.
type CommandError struct {
	Input string
	Err   error
}

func (e *CommandError) Error() string {
	return "invalid command: " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
