// Package swarmtypes holds the data model shared across the coordination
// core: agents, events, proposals, votes, and consensus results (spec.md §3).
package swarmtypes

import "time"

// AgentStatus is the lifecycle state of an Agent.
type AgentStatus string

const (
	AgentSpawned    AgentStatus = "spawned"
	AgentActive     AgentStatus = "active"
	AgentIdle       AgentStatus = "idle"
	AgentFailed     AgentStatus = "failed"
	AgentTerminated AgentStatus = "terminated"
)

// Agent is the registry's view of a swarm participant. Agents are identified
// by an opaque string id; the core never holds a live object reference to
// whatever emits votes and receives broadcasts on the agent's behalf.
type Agent struct {
	ID              string            `json:"agent_id"`
	Type            string            `json:"type"`
	Status          AgentStatus       `json:"status"`
	Capabilities    []string          `json:"capabilities,omitempty"`
	LastHeartbeatTS time.Time         `json:"last_heartbeat_ts"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// EventType names the kind of record written to the Event Store.
type EventType string

const (
	EventAgentSpawned     EventType = "agent.spawned"
	EventAgentHeartbeat   EventType = "agent.heartbeat"
	EventAgentIdle        EventType = "agent.idle"
	EventAgentFailed      EventType = "agent.failed"
	EventAgentTerminated  EventType = "agent.terminated"
	EventProposalCreated  EventType = "proposal.created"
	EventProposalResolved EventType = "proposal.resolved"
	EventVoteRecorded     EventType = "vote.recorded"
)

// Event is an immutable, append-only record. event_id is assigned by the
// Event Store and is strictly monotonic within a single writer.
type Event struct {
	EventID uint64            `json:"event_id"`
	Type    EventType         `json:"type"`
	AgentID string            `json:"agent_id,omitempty"`
	TS      time.Time         `json:"ts"`
	Payload map[string]any    `json:"payload,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// VoteChoice is an agent's stated opinion on a proposal.
type VoteChoice string

const (
	VoteFor     VoteChoice = "FOR"
	VoteAgainst VoteChoice = "AGAINST"
	VoteAbstain VoteChoice = "ABSTAIN"
)

// Vote records one agent's opinion on one proposal. At most one vote is
// accepted per (ProposalID, AgentID) pair.
type Vote struct {
	ProposalID string            `json:"proposal_id"`
	AgentID    string            `json:"agent_id"`
	Choice     VoteChoice        `json:"vote"`
	Weight     float64           `json:"weight"`
	TS         time.Time         `json:"ts"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Proposal is the input to consensus.
type Proposal struct {
	ProposalID   string         `json:"proposal_id"`
	Data         any            `json:"data"`
	Participants []string       `json:"participants"`
	Algorithm    string         `json:"algorithm_name"`
	Threshold    float64        `json:"threshold,omitempty"`
	TimeoutMS    int            `json:"timeout_ms"`
	CreatedTS    time.Time      `json:"created_ts"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Decision is the tagged-variant outcome of a consensus run.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
	DecisionTimeout  Decision = "timeout"
)

// ConsensusResult is immutable once returned to the caller.
type ConsensusResult struct {
	ProposalID    string         `json:"proposal_id"`
	Decision      Decision       `json:"decision"`
	VotesFor      int            `json:"votes_for"`
	VotesAgainst  int            `json:"votes_against"`
	VotesAbstain  int            `json:"votes_abstain"`
	Threshold     float64        `json:"threshold"`
	Participants  []string       `json:"participants"`
	AlgorithmUsed string         `json:"algorithm_used"`
	DurationMS    int64          `json:"duration_ms"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TopologyKind names one of the supported communication graph shapes.
type TopologyKind string

const (
	TopologyHierarchical TopologyKind = "hierarchical"
	TopologyMesh         TopologyKind = "mesh"
	TopologyStar         TopologyKind = "star"
	TopologyRing         TopologyKind = "ring"
	TopologyAdaptive     TopologyKind = "adaptive"
)

// TopologyInfo is a snapshot returned by get_topology_info().
type TopologyInfo struct {
	Topology TopologyKind `json:"topology"`
	Members  []string     `json:"members"`
	Edges    [][2]string  `json:"edges"`
}

// BroadcastMessageType names the envelope kind used on Topology Manager
// broadcasts (spec.md §6.2).
type BroadcastMessageType string

const (
	MessageConsensusRequest BroadcastMessageType = "consensus_request"
	MessageHeartbeat        BroadcastMessageType = "heartbeat"
	MessageApp              BroadcastMessageType = "app"
)

// BroadcastMessage is the envelope carried by Topology Manager broadcasts.
type BroadcastMessage struct {
	Type       BroadcastMessageType `json:"type"`
	ProposalID string               `json:"proposal_id,omitempty"`
	Proposal   *Proposal            `json:"proposal,omitempty"`
	Algorithm  string               `json:"algorithm,omitempty"`
	TimeoutMS  int                  `json:"timeout_ms,omitempty"`
	From       string               `json:"from"`
	TS         time.Time            `json:"ts"`
	Body       any                  `json:"body,omitempty"`
}

// PatternType names the kind of observation recorded by the Pattern Collector.
type PatternType string

const (
	PatternTaskCompletion  PatternType = "task_completion"
	PatternErrorOccurrence PatternType = "error_occurrence"
	PatternAgentUsage      PatternType = "agent_usage"
	PatternUserCorrection  PatternType = "user_correction"
)

// Pattern is a durable, append-only observation.
type Pattern struct {
	PatternID string         `json:"pattern_id"`
	Type      PatternType    `json:"type"`
	TS        time.Time      `json:"ts"`
	Data      map[string]any `json:"data"`
	Context   map[string]any `json:"context,omitempty"`
}
