package domain

import (
	"context"
	"time"

	"github.com/aretw0/tendril/pkg/value"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventFormula        EventType = "formula"
	EventActionStart    EventType = "action_start"
	EventActionEnd      EventType = "action_end"
	EventComponentEvent EventType = "component_event"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// FormulaEvent reports one formula handler invocation.
type FormulaEvent struct {
	EventBase
	Handler string `json:"handler"`
	// IsError is set when the handler panicked and its result degraded to null.
	IsError bool `json:"is_error,omitempty"`
}

// ActionEvent reports the start or end of an action handler invocation.
type ActionEvent struct {
	EventBase
	Handler  string        `json:"handler"`
	Status   string        `json:"status,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Err      error         `json:"-"`
}

// ComponentEvent reports an event emitted to the host by a triggerEvent action.
type ComponentEvent struct {
	EventBase
	Component string      `json:"component"`
	Event     string      `json:"event"`
	Payload   value.Value `json:"payload"`
}

// LifecycleHooks defines callbacks for engine observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnFormula        func(context.Context, *FormulaEvent)
	OnActionStart    func(context.Context, *ActionEvent)
	OnActionEnd      func(context.Context, *ActionEvent)
	OnEventTriggered func(context.Context, *ComponentEvent)
}
