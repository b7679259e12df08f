package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()
	hooks.OnFormula(ctx, &domain.FormulaEvent{Handler: "@tendril/add"})
	hooks.OnFormula(ctx, &domain.FormulaEvent{Handler: "@tendril/add"})
	hooks.OnFormula(ctx, &domain.FormulaEvent{Handler: "app/boom", IsError: true})
	hooks.OnActionEnd(ctx, &domain.ActionEvent{Handler: "@tendril/sleep", Status: "completed", Duration: time.Millisecond})
	hooks.OnActionEnd(ctx, &domain.ActionEvent{Handler: "@tendril/sleep", Status: "failed"})
	hooks.OnEventTriggered(ctx, &domain.ComponentEvent{Component: "cart", Event: "checkout"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FormulaCalls.WithLabelValues("@tendril/add", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FormulaCalls.WithLabelValues("app/boom", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionRuns.WithLabelValues("@tendril/sleep", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("cart", "checkout")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ActionDuration))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestCombine(t *testing.T) {
	var order []string
	first := domain.LifecycleHooks{
		OnActionEnd: func(context.Context, *domain.ActionEvent) { order = append(order, "first") },
	}
	second := domain.LifecycleHooks{
		OnActionEnd: func(context.Context, *domain.ActionEvent) { order = append(order, "second") },
		OnFormula:   func(context.Context, *domain.FormulaEvent) { order = append(order, "formula") },
	}

	hooks := observability.Combine(first, domain.LifecycleHooks{}, second)
	hooks.OnActionEnd(context.Background(), &domain.ActionEvent{})
	hooks.OnFormula(context.Background(), &domain.FormulaEvent{})

	assert.Equal(t, []string{"first", "second", "formula"}, order)
	assert.Nil(t, hooks.OnActionStart)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(logging.NewWriter(&buf, slog.LevelDebug, logging.FormatText))

	hooks.OnFormula(context.Background(), &domain.FormulaEvent{Handler: "ok"})
	assert.Empty(t, buf.String())

	hooks.OnFormula(context.Background(), &domain.FormulaEvent{Handler: "app/boom", IsError: true})
	assert.Contains(t, buf.String(), "handler=app/boom")
}
