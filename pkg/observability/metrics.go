package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine collectors.
type Metrics struct {
	FormulaCalls   *prometheus.CounterVec
	ActionRuns     *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	Events         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FormulaCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tendril",
			Name:      "formula_calls_total",
			Help:      "Formula handler invocations by handler and whether the handler panicked.",
		}, []string{"handler", "error"}),
		ActionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tendril",
			Name:      "action_runs_total",
			Help:      "Finished action handler invocations by handler and terminal status.",
		}, []string{"handler", "status"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tendril",
			Name:      "action_duration_seconds",
			Help:      "Synchronous duration of action handler invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tendril",
			Name:      "component_events_total",
			Help:      "Component events emitted to the host.",
		}, []string{"component", "event"}),
	}
	for _, c := range []prometheus.Collector{m.FormulaCalls, m.ActionRuns, m.ActionDuration, m.Events} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFormula: func(_ context.Context, e *domain.FormulaEvent) {
			m.FormulaCalls.WithLabelValues(e.Handler, strconv.FormatBool(e.IsError)).Inc()
		},
		OnActionEnd: func(_ context.Context, e *domain.ActionEvent) {
			m.ActionRuns.WithLabelValues(e.Handler, e.Status).Inc()
			m.ActionDuration.WithLabelValues(e.Handler).Observe(e.Duration.Seconds())
		},
		OnEventTriggered: func(_ context.Context, e *domain.ComponentEvent) {
			m.Events.WithLabelValues(e.Component, e.Event).Inc()
		},
	}
}
