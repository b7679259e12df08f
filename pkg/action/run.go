package action

import (
	"sync"
	"time"

	"github.com/aretw0/tendril/pkg/value"
)

// Status is the lifecycle state of a triggered action graph.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	// StatusAborted is terminal but not a failure.
	StatusAborted Status = "aborted"
)

// Terminal reports whether s is completed, failed or aborted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAborted
}

// Emitted is a component event handed to the host during a run.
type Emitted struct {
	Event   string      `json:"event"`
	Payload value.Value `json:"payload"`
	At      time.Time   `json:"at"`
}

// Run records one top-level trigger. Events emitted by asynchronous effects
// keep accumulating after Trigger returns; read them through Emitted.
type Run struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	Status     Status    `json:"status"`
	Err        error     `json:"-"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	mu      sync.Mutex
	emitted []Emitted
}

func (r *Run) record(e Emitted) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitted = append(r.emitted, e)
}

// Emitted returns a copy of the events emitted so far.
func (r *Run) Emitted() []Emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emitted, len(r.emitted))
	copy(out, r.emitted)
	return out
}

// Duration is the synchronous part of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
