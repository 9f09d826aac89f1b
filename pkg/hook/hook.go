// Package hook implements a generic hook registry keyed by phase and
// priority, plus the Post-Task Hook that feeds the Pattern Collector
// (spec.md §4.14).
package hook

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/log"
)

// Phase names when in an operation's lifecycle a hook runs.
type Phase string

const (
	PhasePre   Phase = "pre"
	PhasePost  Phase = "post"
	PhaseError Phase = "error"
)

// Priority orders hooks within the same phase; lower runs first.
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityNormal Priority = 1
	PriorityLow    Priority = 2
)

// Result is what a hook reports back to the registry. A hook never panics
// or returns a raw error to its caller: failures are reported through
// Success/Err instead, so one misbehaving hook can't abort the others.
type Result struct {
	Success  bool
	Metadata map[string]any
	Err      error
}

// Func is a single hook implementation, given the context data for the
// operation it's attached to.
type Func func(ctx context.Context, data map[string]any) Result

type entry struct {
	name     string
	phase    Phase
	priority Priority
	fn       Func
}

// Registry holds registered hooks and runs them per phase in priority
// order, each under its own timeout.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	timeout time.Duration
}

// New creates a Registry whose hooks each get timeout to complete.
func New(timeout time.Duration) *Registry {
	return &Registry{timeout: timeout}
}

// Register attaches fn to run during phase at priority.
func (r *Registry) Register(name string, phase Phase, priority Priority, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{name: name, phase: phase, priority: priority, fn: fn})
}

// Run executes every hook registered for phase, highest priority first,
// each bounded by the registry's timeout. A hook that times out or panics
// is recorded as a failed Result rather than propagated.
func (r *Registry) Run(ctx context.Context, phase Phase, data map[string]any) []Result {
	r.mu.Lock()
	var matched []entry
	for _, e := range r.entries {
		if e.phase == phase {
			matched = append(matched, e)
		}
	}
	r.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].priority < matched[j].priority })

	results := make([]Result, 0, len(matched))
	for _, e := range matched {
		results = append(results, r.runOne(ctx, e, data))
	}
	return results
}

func (r *Registry) runOne(ctx context.Context, e entry, data map[string]any) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithComponent("hook").Warn().Str("hook", e.name).Interface("panic", rec).Msg("hook panicked")
			result = Result{Success: false}
		}
	}()

	hookCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() { done <- e.fn(hookCtx, data) }()

	select {
	case res := <-done:
		if res.Err != nil {
			log.WithComponent("hook").Warn().Str("hook", e.name).Err(res.Err).Msg("hook reported failure")
		}
		return res
	case <-hookCtx.Done():
		log.WithComponent("hook").Warn().Str("hook", e.name).Msg("hook timed out")
		return Result{Success: false, Err: hookCtx.Err()}
	}
}
