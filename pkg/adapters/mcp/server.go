// Package mcp exposes the engine to Model Context Protocol clients: tools to
// render components, trigger events and evaluate formulas, and a resource
// listing the loaded component definitions.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ComponentsURI is the resource holding every loaded definition.
const ComponentsURI = "tendril://components"

// Engine is the part of tendril.Engine exposed over MCP.
type Engine interface {
	Components() []string
	Component(name string) (*domain.Component, bool)
	Render(ctx context.Context, req tendril.RenderRequest) (*tendril.RenderResult, error)
	Evaluate(ctx context.Context, req tendril.EvalRequest) (value.Value, error)
	Trigger(ctx context.Context, req tendril.TriggerRequest) (*action.Run, error)
	Teardown(sessionID string) bool
}

// RenderResponse is the structured result of render_component.
type RenderResponse struct {
	Component  string            `json:"component" jsonschema_description:"Rendered component"`
	Attributes map[string]any    `json:"attributes" jsonschema_description:"Attribute values; failed bindings are null"`
	Variables  any               `json:"variables" jsonschema_description:"Component variables after rendering"`
	Errors     map[string]string `json:"errors,omitempty" jsonschema_description:"Failure message per failed attribute"`
}

// EmittedEvent is a component event raised during a run.
type EmittedEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// TriggerResponse is the structured result of trigger_event.
type TriggerResponse struct {
	RunID   string         `json:"run_id" jsonschema_description:"Identifier of the run"`
	Status  string         `json:"status" jsonschema_description:"pending, running, completed, failed or aborted"`
	Error   string         `json:"error,omitempty" jsonschema_description:"Failure of the run, if any"`
	Emitted []EmittedEvent `json:"emitted" jsonschema_description:"Component events emitted before the call returned"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	parser    *compiler.Parser
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		parser:    compiler.NewParser(),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("tendril-mcp", strings.TrimSpace(tendril.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List the names of the loaded components."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, _ := json.Marshal(s.engine.Components())
		return mcp.NewToolResultText(string(raw)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("render_component",
		mcp.WithDescription("Evaluate every attribute binding of a component."),
		mcp.WithString("component", mcp.Required(), mcp.Description("Component name")),
		mcp.WithString("session_id", mcp.Description("Session whose variables are used (optional)")),
		mcp.WithString("attributes", mcp.Description("JSON object of host attributes (optional)")),
		mcp.WithString("data", mcp.Description("JSON object of extra scope fields (optional)")),
		mcp.WithOutputSchema[RenderResponse](),
	), mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(mcp.NewTool("trigger_event",
		mcp.WithDescription("Run the actions bound to a component event."),
		mcp.WithString("component", mcp.Required(), mcp.Description("Component name")),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name")),
		mcp.WithString("session_id", mcp.Description("Session the run belongs to (optional)")),
		mcp.WithString("payload", mcp.Description("JSON event payload (optional)")),
		mcp.WithBoolean("supersede", mcp.Description("Abort the previous run from the same call site")),
		mcp.WithOutputSchema[TriggerResponse](),
	), mcp.NewStructuredToolHandler(s.handleTrigger))

	s.mcpServer.AddTool(mcp.NewTool("evaluate_formula",
		mcp.WithDescription("Evaluate a formula written in YAML or JSON and return the result as JSON."),
		mcp.WithString("formula", mcp.Required(), mcp.Description("Formula definition")),
		mcp.WithString("component", mcp.Description("Evaluate within this component (optional)")),
		mcp.WithString("session_id", mcp.Description("Session whose variables are used (optional)")),
		mcp.WithString("attributes", mcp.Description("JSON object of host attributes (optional)")),
		mcp.WithString("data", mcp.Description("JSON object of extra scope fields (optional)")),
	), s.handleEvaluate)

	s.mcpServer.AddTool(mcp.NewTool("teardown_session",
		mcp.WithDescription("Abort the runs of a session and forget its variables."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, _ := request.GetArguments()["session_id"].(string)
		if s.engine.Teardown(id) {
			return mcp.NewToolResultText("session torn down"), nil
		}
		return mcp.NewToolResultText("no such session"), nil
	})
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RenderResponse, error) {
	scope, err := scopeFrom(args)
	if err != nil {
		return RenderResponse{}, err
	}
	res, err := s.engine.Render(ctx, tendril.RenderRequest{Scope: scope})
	if err != nil {
		return RenderResponse{}, fmt.Errorf("render failed: %w", err)
	}

	resp := RenderResponse{
		Component:  res.Component,
		Attributes: make(map[string]any, len(res.Attributes)),
		Variables:  res.Variables.Any(),
	}
	for name, v := range res.Attributes {
		resp.Attributes[name] = v.Any()
	}
	if len(res.Errors) > 0 {
		resp.Errors = make(map[string]string, len(res.Errors))
		for name, err := range res.Errors {
			resp.Errors[name] = err.Error()
		}
	}
	return resp, nil
}

func (s *Server) handleTrigger(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (TriggerResponse, error) {
	scope, err := scopeFrom(args)
	if err != nil {
		return TriggerResponse{}, err
	}
	event, _ := args["event"].(string)
	if event == "" {
		return TriggerResponse{}, errors.New("event is required")
	}
	payload, err := valueArg(args, "payload")
	if err != nil {
		return TriggerResponse{}, err
	}
	supersede, _ := args["supersede"].(bool)

	run, err := s.engine.Trigger(ctx, tendril.TriggerRequest{
		Scope:     scope,
		Event:     event,
		Payload:   payload,
		Supersede: supersede,
		CallSite:  "mcp:" + scope.Component + "#" + event,
	})
	if err != nil {
		return TriggerResponse{}, fmt.Errorf("trigger failed: %w", err)
	}

	resp := TriggerResponse{
		RunID:   run.ID,
		Status:  string(run.Status),
		Emitted: []EmittedEvent{},
	}
	if run.Err != nil {
		resp.Error = run.Err.Error()
	}
	for _, e := range run.Emitted() {
		resp.Emitted = append(resp.Emitted, EmittedEvent{Event: e.Event, Payload: e.Payload.Any()})
	}
	return resp, nil
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	text, _ := args["formula"].(string)
	f, err := s.parser.ParseFormula([]byte(text))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid formula: %v", err)), nil
	}
	scope, err := scopeFrom(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	v, err := s.engine.Evaluate(ctx, tendril.EvalRequest{Scope: scope, Formula: f})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}
	out, err := value.Encode(v, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ComponentsURI, "Loaded component definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		defs := make(map[string]*domain.Component)
		for _, name := range s.engine.Components() {
			if c, ok := s.engine.Component(name); ok {
				defs[name] = c
			}
		}
		raw, err := json.Marshal(defs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode components: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ComponentsURI,
				MIMEType: "application/json",
				Text:     string(raw),
			},
		}, nil
	})
}

// -- Argument helpers --

func scopeFrom(args map[string]any) (tendril.Scope, error) {
	var scope tendril.Scope
	scope.Component, _ = args["component"].(string)
	scope.SessionID, _ = args["session_id"].(string)

	var err error
	if scope.Attributes, err = objectArg(args, "attributes"); err != nil {
		return scope, err
	}
	if scope.Data, err = objectArg(args, "data"); err != nil {
		return scope, err
	}
	return scope, nil
}

// valueArg accepts a JSON string or an already decoded value.
func valueArg(args map[string]any, name string) (value.Value, error) {
	switch raw := args[name].(type) {
	case nil:
		return value.Null(), nil
	case string:
		if raw == "" {
			return value.Null(), nil
		}
		v, err := value.Decode(raw, value.DecodeOptions{})
		if err != nil {
			return value.Null(), fmt.Errorf("%s is not valid JSON: %w", name, err)
		}
		return v, nil
	default:
		return value.FromAny(raw), nil
	}
}

func objectArg(args map[string]any, name string) (map[string]value.Value, error) {
	v, err := valueArg(args, name)
	if err != nil || v.IsNull() {
		return nil, err
	}
	fields, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("%s must be a JSON object", name)
	}
	return fields, nil
}
