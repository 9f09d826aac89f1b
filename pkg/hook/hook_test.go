package hook

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/pattern"
	"github.com/stretchr/testify/require"
)

func TestRunOrdersByPriority(t *testing.T) {
	r := New(100 * time.Millisecond)
	var order []string

	r.Register("low", PhasePost, PriorityLow, func(ctx context.Context, data map[string]any) Result {
		order = append(order, "low")
		return Result{Success: true}
	})
	r.Register("high", PhasePost, PriorityHigh, func(ctx context.Context, data map[string]any) Result {
		order = append(order, "high")
		return Result{Success: true}
	})

	r.Run(context.Background(), PhasePost, nil)
	require.Equal(t, []string{"high", "low"}, order)
}

func TestRunOnlyMatchingPhase(t *testing.T) {
	r := New(100 * time.Millisecond)
	called := false
	r.Register("pre-only", PhasePre, PriorityNormal, func(ctx context.Context, data map[string]any) Result {
		called = true
		return Result{Success: true}
	})

	r.Run(context.Background(), PhasePost, nil)
	require.False(t, called)
}

func TestRunTimesOutSlowHook(t *testing.T) {
	r := New(10 * time.Millisecond)
	r.Register("slow", PhasePost, PriorityNormal, func(ctx context.Context, data map[string]any) Result {
		time.Sleep(100 * time.Millisecond)
		return Result{Success: true}
	})

	results := r.Run(context.Background(), PhasePost, nil)
	require.Len(t, results, 1)
	require.False(t, results[0].Success)
}

func TestRunRecoversPanickingHook(t *testing.T) {
	r := New(100 * time.Millisecond)
	r.Register("panicky", PhasePost, PriorityNormal, func(ctx context.Context, data map[string]any) Result {
		panic("boom")
	})

	results := r.Run(context.Background(), PhasePost, nil)
	require.Len(t, results, 1)
	require.False(t, results[0].Success)
}

func TestPostTaskHookCollectsPattern(t *testing.T) {
	collector := pattern.NewCollector(t.TempDir())
	r := New(time.Second)
	RegisterPostTaskHook(r, collector)

	results := r.Run(context.Background(), PhasePost, map[string]any{"task_id": "t1"})
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	require.NotEmpty(t, results[0].Metadata["pattern_id"])

	stats := collector.GetStatistics()
	require.Equal(t, 1, stats.Collected)
}

func TestPostTaskHookRoutesErrorsToErrorCollector(t *testing.T) {
	collector := pattern.NewCollector(t.TempDir())
	r := New(time.Second)
	RegisterPostTaskHook(r, collector)

	results := r.Run(context.Background(), PhaseError, map[string]any{"error": "boom"})
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
}
