package hook

import (
	"context"

	"github.com/cuemby/moai-flow-core/pkg/pattern"
)

// RegisterPostTaskHook binds the Pattern Collector to the registry at
// post/error, low priority: it runs last so higher-priority hooks (e.g.
// notifications) see the raw operation outcome first (spec.md §4.14).
func RegisterPostTaskHook(r *Registry, collector *pattern.Collector) {
	collect := func(ctx context.Context, data map[string]any) Result {
		var patternID string
		var ok bool
		if _, isError := data["error"]; isError {
			patternID, ok = collector.CollectErrorOccurrence(data)
		} else {
			patternID, ok = collector.CollectTaskCompletion(data)
		}
		return Result{Success: ok, Metadata: map[string]any{"pattern_id": patternID}}
	}

	r.Register("post-task-pattern-collector", PhasePost, PriorityLow, collect)
	r.Register("post-task-pattern-collector", PhaseError, PriorityLow, collect)
}
