// Package lifecycle implements Agent Lifecycle bookkeeping: spawn,
// heartbeat, idle/failed/terminate transitions, and health scanning
// (spec.md §4.4).
package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/errs"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/google/uuid"
)

// EventSink receives lifecycle events for durable recording. The Event
// Store implements this; lifecycle depends only on the interface so it
// never imports pkg/storage directly.
type EventSink interface {
	InsertEvent(evt swarmtypes.Event) (uint64, error)
}

// Registry tracks the set of currently-known agents and emits lifecycle
// events as they transition. A terminated agent id never re-enters the
// registry under the same id.
type Registry struct {
	mu     sync.Mutex
	agents map[string]*swarmtypes.Agent
	done   map[string]bool
	sink   EventSink
}

// New creates an empty Registry. sink may be nil, in which case lifecycle
// transitions are tracked but not durably recorded.
func New(sink EventSink) *Registry {
	return &Registry{
		agents: make(map[string]*swarmtypes.Agent),
		done:   make(map[string]bool),
		sink:   sink,
	}
}

// Spawn registers a new agent as "spawned" and emits a spawn event.
func (r *Registry) Spawn(agentType string, metadata map[string]string) (string, error) {
	agentID := uuid.NewString()

	r.mu.Lock()
	r.agents[agentID] = &swarmtypes.Agent{
		ID:              agentID,
		Type:            agentType,
		Status:          swarmtypes.AgentSpawned,
		LastHeartbeatTS: time.Now(),
		Metadata:        metadata,
	}
	r.mu.Unlock()

	r.emit(swarmtypes.EventAgentSpawned, agentID, map[string]any{"type": agentType})
	return agentID, nil
}

// Heartbeat updates LastHeartbeatTS and transitions spawned -> active.
func (r *Registry) Heartbeat(agentID string) error {
	r.mu.Lock()
	agent, ok := r.agents[agentID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("agent %s: %w", agentID, errs.NotFound)
	}
	if agent.Status == swarmtypes.AgentTerminated {
		r.mu.Unlock()
		return fmt.Errorf("agent %s is terminated: %w", agentID, errs.InvalidArgument)
	}
	agent.LastHeartbeatTS = time.Now()
	if agent.Status == swarmtypes.AgentSpawned {
		agent.Status = swarmtypes.AgentActive
	}
	r.mu.Unlock()

	r.emit(swarmtypes.EventAgentHeartbeat, agentID, nil)
	return nil
}

// MarkIdle transitions an agent to idle.
func (r *Registry) MarkIdle(agentID string) error {
	if err := r.setStatus(agentID, swarmtypes.AgentIdle); err != nil {
		return err
	}
	r.emit(swarmtypes.EventAgentIdle, agentID, nil)
	return nil
}

// MarkFailed transitions an agent to failed, recording reason.
func (r *Registry) MarkFailed(agentID, reason string) error {
	if err := r.setStatus(agentID, swarmtypes.AgentFailed); err != nil {
		return err
	}
	r.emit(swarmtypes.EventAgentFailed, agentID, map[string]any{"reason": reason})
	return nil
}

// Terminate transitions an agent to terminated and marks its id as done:
// it can never re-enter the registry under the same id.
func (r *Registry) Terminate(agentID string, durationMS int64) error {
	r.mu.Lock()
	agent, ok := r.agents[agentID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("agent %s: %w", agentID, errs.NotFound)
	}
	agent.Status = swarmtypes.AgentTerminated
	r.done[agentID] = true
	r.mu.Unlock()

	r.emit(swarmtypes.EventAgentTerminated, agentID, map[string]any{"duration_ms": durationMS})
	return nil
}

func (r *Registry) setStatus(agentID string, status swarmtypes.AgentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("agent %s: %w", agentID, errs.NotFound)
	}
	if agent.Status == swarmtypes.AgentTerminated {
		return fmt.Errorf("agent %s is terminated: %w", agentID, errs.InvalidArgument)
	}
	agent.Status = status
	return nil
}

// Get returns a copy of the agent record, or NotFound.
func (r *Registry) Get(agentID string) (swarmtypes.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[agentID]
	if !ok {
		return swarmtypes.Agent{}, fmt.Errorf("agent %s: %w", agentID, errs.NotFound)
	}
	return *agent, nil
}

// List returns a snapshot of every known agent (including terminated ones
// still held in memory).
func (r *Registry) List() []swarmtypes.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]swarmtypes.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, *a)
	}
	return out
}

// Remove drops an agent from the in-memory registry (used by deregister).
func (r *Registry) Remove(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, agentID)
}

// HealthScan returns the ids of spawned/active/idle agents (every agent
// that is neither terminated nor failed) whose last heartbeat is
// older than failureThreshold relative to now. It never mutates agent
// status; callers decide whether and how to mark them failed.
func (r *Registry) HealthScan(now time.Time, failureThreshold time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []string
	for id, agent := range r.agents {
		if agent.Status == swarmtypes.AgentTerminated || agent.Status == swarmtypes.AgentFailed {
			continue
		}
		if now.Sub(agent.LastHeartbeatTS) > failureThreshold {
			stale = append(stale, id)
		}
	}
	return stale
}

func (r *Registry) emit(eventType swarmtypes.EventType, agentID string, payload map[string]any) {
	if r.sink == nil {
		return
	}
	_, _ = r.sink.InsertEvent(swarmtypes.Event{
		Type:    eventType,
		AgentID: agentID,
		TS:      time.Now(),
		Payload: payload,
	})
}
