package runtime

import (
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

// Scope describes where an evaluation happens. SessionID selects the
// component variables and abort scopes; an empty SessionID evaluates
// against fresh variables that are discarded afterwards.
type Scope struct {
	Component string `json:"component"`
	SessionID string `json:"session_id,omitempty"`

	// Attributes are the host-supplied inputs of the component instance,
	// visible to path formulas as "Attributes".
	Attributes map[string]value.Value `json:"attributes,omitempty"`
	// Data is merged into the top of the data scope.
	Data map[string]value.Value `json:"data,omitempty"`

	Env  execution.Env  `json:"-"`
	Root execution.Root `json:"-"`
}

// RenderRequest evaluates every attribute binding of a component.
type RenderRequest struct {
	Scope
}

// RenderResult holds the rendered attributes. A binding that failed renders
// as null and its error is kept in Errors; other bindings are unaffected.
type RenderResult struct {
	Component  string                 `json:"component"`
	Attributes map[string]value.Value `json:"attributes"`
	Variables  value.Value            `json:"variables"`
	Errors     map[string]error       `json:"-"`
}

// EvalRequest evaluates one formula. Without a Component the formula sees
// only Data and Attributes and resolves handlers in the built-in namespace.
type EvalRequest struct {
	Scope
	Formula *domain.Formula
}

// TriggerRequest fires a component event.
type TriggerRequest struct {
	Scope
	Event   string
	Payload value.Value

	// CallSite identifies the trigger origin for supersede decisions.
	// It defaults to "<component>#<event>".
	CallSite string
	// Supersede aborts the in-flight run started from the same call site.
	Supersede bool

	// Emit receives component events, including those raised by delayed
	// effects after Trigger returns.
	Emit execution.EmitFunc
}
