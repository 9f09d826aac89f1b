package storage

import "github.com/cuemby/moai-flow-core/pkg/swarmtypes"

// Store is the persistence surface the rest of the coordination core
// depends on. lifecycle.EventSink and consensus.EventSink are both
// satisfied by InsertEvent alone.
type Store interface {
	// Event Store (spec.md §4.1)
	InsertEvent(evt swarmtypes.Event) (uint64, error)
	ListEvents(afterEventID uint64, limit int) ([]swarmtypes.Event, error)
	CleanupOldEvents(olderThanDays int) (int, error)

	// Agent registry
	RegisterAgent(agent swarmtypes.Agent) error
	UpdateAgentStatus(agentID string, status swarmtypes.AgentStatus) error
	GetAgent(agentID string) (swarmtypes.Agent, error)
	ListAgents() ([]swarmtypes.Agent, error)

	// Session memory
	PersistSessionState(sessionID string, state map[string]any) error
	LoadSessionState(sessionID string) (map[string]any, error)

	// Proposal log: durable record of resolved consensus decisions
	AppendProposalLog(result swarmtypes.ConsensusResult) error
	ListProposalLog(limit int) ([]swarmtypes.ConsensusResult, error)

	// Semantic knowledge: opaque key/value facts accumulated across sessions
	PutSemanticKnowledge(key string, value any) error
	GetSemanticKnowledge(key string) (any, bool, error)

	Vacuum() error
	Close() error
}
