// Package http serves the engine over HTTP: server-side rendering of component
// attributes, event triggers, session teardown and a per-session SSE stream of
// component events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/presentation/graph"
	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Engine is the part of tendril.Engine the server drives.
type Engine interface {
	Components() []string
	Component(name string) (*domain.Component, bool)
	Render(ctx context.Context, req tendril.RenderRequest) (*tendril.RenderResult, error)
	Trigger(ctx context.Context, req tendril.TriggerRequest) (*action.Run, error)
	Teardown(sessionID string) bool
}

// Server holds the HTTP handlers.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
	cors    bool
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCORS allows cross-origin requests from any origin.
func WithCORS(enabled bool) Option {
	return func(s *Server) {
		s.cors = enabled
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	r.Route("/components", func(r chi.Router) {
		r.Get("/", server.ListComponents)
		r.Get("/{name}/graph", server.GetGraph)
		r.Post("/{name}/render", server.Render)
		r.Post("/{name}/events/{event}", server.Trigger)
	})
	r.Route("/sessions/{session}", func(r chi.Router) {
		r.Delete("/", server.Teardown)
		r.Get("/events", server.SubscribeEvents)
	})

	if server.cors {
		return enableCORS(r)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RenderBody is the body of POST /components/{name}/render.
type RenderBody struct {
	SessionID  string                 `json:"session_id"`
	Attributes map[string]value.Value `json:"attributes"`
	Data       map[string]value.Value `json:"data"`
}

// RenderResponse carries rendered attributes; failed bindings are null and
// listed in Errors.
type RenderResponse struct {
	Component  string                 `json:"component"`
	Attributes map[string]value.Value `json:"attributes"`
	Variables  value.Value            `json:"variables"`
	Errors     map[string]string      `json:"errors,omitempty"`
}

// TriggerBody is the body of POST /components/{name}/events/{event}.
type TriggerBody struct {
	SessionID  string                 `json:"session_id"`
	Payload    value.Value            `json:"payload"`
	CallSite   string                 `json:"call_site"`
	Supersede  bool                   `json:"supersede"`
	Attributes map[string]value.Value `json:"attributes"`
	Data       map[string]value.Value `json:"data"`
}

// TriggerResponse summarizes the synchronous part of a run. Events emitted
// later are delivered on the session stream.
type TriggerResponse struct {
	RunID   string           `json:"run_id"`
	Status  action.Status    `json:"status"`
	Error   string           `json:"error,omitempty"`
	Emitted []action.Emitted `json:"emitted"`
}

// Render handles POST /components/{name}/render.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var body RenderBody
	if !s.decode(w, r, &body) {
		return
	}

	res, err := s.Engine.Render(r.Context(), tendril.RenderRequest{Scope: tendril.Scope{
		Component:  chi.URLParam(r, "name"),
		SessionID:  body.SessionID,
		Attributes: body.Attributes,
		Data:       body.Data,
		Env:        execution.Env{Server: execution.ServerEnvFromRequest(r)},
	}})
	if err != nil {
		s.fail(w, "Render", err)
		return
	}

	resp := RenderResponse{
		Component:  res.Component,
		Attributes: res.Attributes,
		Variables:  res.Variables,
	}
	if len(res.Errors) > 0 {
		resp.Errors = make(map[string]string, len(res.Errors))
		for name, err := range res.Errors {
			resp.Errors[name] = err.Error()
		}
	}
	s.respond(w, "Render", resp)
}

// Trigger handles POST /components/{name}/events/{event}.
func (s *Server) Trigger(w http.ResponseWriter, r *http.Request) {
	var body TriggerBody
	if !s.decode(w, r, &body) {
		return
	}

	component := chi.URLParam(r, "name")
	sessionID := body.SessionID
	run, err := s.Engine.Trigger(r.Context(), tendril.TriggerRequest{
		Scope: tendril.Scope{
			Component:  component,
			SessionID:  sessionID,
			Attributes: body.Attributes,
			Data:       body.Data,
			Env:        execution.Env{Server: execution.ServerEnvFromRequest(r)},
		},
		Event:     chi.URLParam(r, "event"),
		Payload:   body.Payload,
		CallSite:  body.CallSite,
		Supersede: body.Supersede,
		Emit: func(event string, payload value.Value) {
			if sessionID == "" {
				return
			}
			text, err := value.Encode(payload, 0)
			if err != nil {
				s.logger.Warn("Trigger: payload not encodable", "event", event, "error", err)
				return
			}
			s.Streams.Broadcast(sessionID, Message{Component: component, Event: event, Payload: text})
		},
	})
	if err != nil {
		s.fail(w, "Trigger", err)
		return
	}

	resp := TriggerResponse{
		RunID:   run.ID,
		Status:  run.Status,
		Emitted: run.Emitted(),
	}
	if run.Err != nil {
		resp.Error = run.Err.Error()
	}
	s.respond(w, "Trigger", resp)
}

// Teardown handles DELETE /sessions/{session}.
func (s *Server) Teardown(w http.ResponseWriter, r *http.Request) {
	torn := s.Engine.Teardown(chi.URLParam(r, "session"))
	s.respond(w, "Teardown", map[string]bool{"torn_down": torn})
}

// ListComponents handles GET /components.
func (s *Server) ListComponents(w http.ResponseWriter, r *http.Request) {
	s.respond(w, "ListComponents", map[string][]string{"components": s.Engine.Components()})
}

// GetGraph handles GET /components/{name}/graph, answering a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, ok := s.Engine.Component(name)
	if !ok {
		s.fail(w, "GetGraph", fmt.Errorf("%w: %s", domain.ErrComponentNotFound, name))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(c, nil))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, "GetHealth", map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, "GetInfo", map[string]string{
		"app":     "tendril-http",
		"version": strings.TrimSpace(tendril.Version),
	})
}

// SubscribeEvents handles GET /sessions/{session}/events (SSE). The optional
// "events" query parameter is a comma-separated allow list of event names.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "session")
	var allow map[string]bool
	if filter := r.URL.Query().Get("events"); filter != "" {
		allow = make(map[string]bool)
		for _, name := range strings.Split(filter, ",") {
			allow[strings.TrimSpace(name)] = true
		}
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if allow != nil && !allow[msg.Event] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: {\"component\":%q,\"payload\":%s}\n\n", msg.Event, msg.Component, msg.Payload)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, op string, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error(op+" response encode failed", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrComponentNotFound), errors.Is(err, domain.ErrEventNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDefinition), errors.Is(err, domain.ErrUnknownFormula), errors.Is(err, domain.ErrUnknownAction):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}
