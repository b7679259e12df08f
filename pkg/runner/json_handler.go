package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/value"
)

// Request is one JSON line read by JSONHandler.
type Request struct {
	Op        Op              `json:"op"`
	Formula   json.RawMessage `json:"formula,omitempty"`
	Event     string          `json:"event,omitempty"`
	Payload   value.Value     `json:"payload"`
	Supersede bool            `json:"supersede,omitempty"`
}

// Response is one JSON line written by JSONHandler. Type is "result" for
// command results and "event" for component events.
type Response struct {
	Type  string `json:"type"`
	Op    Op     `json:"op,omitempty"`
	Error string `json:"error,omitempty"`

	Value      *value.Value           `json:"value,omitempty"`
	Attributes map[string]value.Value `json:"attributes,omitempty"`
	Errors     map[string]string      `json:"errors,omitempty"`
	RunID      string                 `json:"run_id,omitempty"`
	Status     action.Status          `json:"status,omitempty"`

	Component string       `json:"component,omitempty"`
	Event     string       `json:"event,omitempty"`
	Payload   *value.Value `json:"payload,omitempty"`
}

// JSONHandler implements the IOHandler interface for JSON Lines.
type JSONHandler struct {
	lines   *lineReader
	parser  *compiler.Parser
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		lines:   newLineReader(r),
		parser:  compiler.NewParser(),
		encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Input(ctx context.Context) (Command, error) {
	for {
		line, err := h.lines.ReadLine(ctx)
		if err != nil {
			return Command{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := h.parse(line)
		if err != nil {
			return Command{}, &CommandError{Input: line, Err: err}
		}
		return cmd, nil
	}
}

func (h *JSONHandler) parse(line string) (Command, error) {
	line, err := SanitizeInput(line)
	if err != nil {
		return Command{}, err
	}
	dec := json.NewDecoder(strings.NewReader(line))
	dec.DisallowUnknownFields()
	var req Request
	if err := dec.Decode(&req); err != nil {
		return Command{}, fmt.Errorf("malformed request: %w", err)
	}

	cmd := Command{Op: req.Op, Event: req.Event, Payload: req.Payload, Supersede: req.Supersede}
	switch req.Op {
	case OpEval:
		if len(req.Formula) == 0 {
			return Command{}, errors.New("eval requires a formula")
		}
		if cmd.Formula, err = h.parser.ParseFormula(req.Formula); err != nil {
			return Command{}, err
		}
	case OpTrigger:
		if req.Event == "" {
			return Command{}, errors.New("trigger requires an event")
		}
	case OpRender, OpTeardown, OpHelp, OpQuit:
	default:
		return Command{}, fmt.Errorf("unknown op %q", req.Op)
	}
	return cmd, nil
}

func (h *JSONHandler) Output(ctx context.Context, res Result) error {
	resp := Response{Type: "result", Op: res.Op}
	switch {
	case res.Err != nil:
		resp.Error = res.Err.Error()
	case res.Op == OpEval, res.Op == OpTeardown:
		v := res.Value
		resp.Value = &v
	case res.Op == OpRender:
		resp.Attributes = res.Render.Attributes
		if len(res.Render.Errors) > 0 {
			resp.Errors = make(map[string]string, len(res.Render.Errors))
			for name, err := range res.Render.Errors {
				resp.Errors[name] = err.Error()
			}
		}
	case res.Op == OpTrigger:
		resp.RunID = res.Run.ID
		resp.Status = res.Run.Status
		if res.Run.Err != nil {
			resp.Error = res.Run.Err.Error()
		}
	}
	return h.encode(resp)
}

func (h *JSONHandler) Event(ctx context.Context, component, event string, payload value.Value) error {
	return h.encode(Response{
		Type:      "event",
		Component: component,
		Event:     event,
		Payload:   &payload,
	})
}

func (h *JSONHandler) encode(resp Response) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(resp)
}
