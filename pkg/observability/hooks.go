package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tendril/pkg/domain"
)

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnFormula = chain(out.OnFormula, h.OnFormula)
		out.OnActionStart = chain(out.OnActionStart, h.OnActionStart)
		out.OnActionEnd = chain(out.OnActionEnd, h.OnActionEnd)
		out.OnEventTriggered = chain(out.OnEventTriggered, h.OnEventTriggered)
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}

// LogHooks logs action ends and emitted component events at debug level,
// and formula panics at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFormula: func(ctx context.Context, e *domain.FormulaEvent) {
			if e.IsError {
				logger.WarnContext(ctx, "formula degraded to null", "handler", e.Handler, "run_id", e.RunID)
			}
		},
		OnActionEnd: func(ctx context.Context, e *domain.ActionEvent) {
			logger.DebugContext(ctx, "action finished",
				"handler", e.Handler,
				"status", e.Status,
				"duration", e.Duration,
				"run_id", e.RunID,
			)
		},
		OnEventTriggered: func(ctx context.Context, e *domain.ComponentEvent) {
			logger.DebugContext(ctx, "component event",
				"component", e.Component,
				"event", e.Event,
				"run_id", e.RunID,
			)
		},
	}
}
