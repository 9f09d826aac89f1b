// Package swarm provides the Swarm Coordinator: a facade over agent
// lifecycle, topology, consensus, and token budget that is the single
// entry point the rest of the system (and the demonstration CLI) drives
// (spec.md §4.12). It follows the teacher's Manager: validate config in
// the constructor, fail fast, and hold every subsystem as a field rather
// than re-deriving them per call.
package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/config"
	"github.com/cuemby/moai-flow-core/pkg/consensus"
	"github.com/cuemby/moai-flow-core/pkg/errs"
	"github.com/cuemby/moai-flow-core/pkg/lifecycle"
	"github.com/cuemby/moai-flow-core/pkg/log"
	"github.com/cuemby/moai-flow-core/pkg/storage"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/cuemby/moai-flow-core/pkg/tokenbudget"
	"github.com/cuemby/moai-flow-core/pkg/topology"
)

// Coordinator wires together the Agent Lifecycle registry, Topology
// Manager, Consensus registry, and Token Budget into the swarm's single
// operating surface. Its topology kind is immutable for the coordinator's
// lifetime (spec.md §4.12 invariant).
type Coordinator struct {
	cfg       config.Config
	store     storage.Store
	lifecycle *lifecycle.Registry
	topology  *topology.Manager
	consensus *consensus.Registry
	budget    *tokenbudget.Budget
}

// New validates cfg and assembles a Coordinator over store. It registers
// the standard consensus algorithm set (quorum, weighted, byzantine, crdt,
// raft) so request_consensus works out of the box for any proposal naming
// one of them.
func New(cfg config.Config, store storage.Store) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid coordinator config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("coordinator requires a non-nil store: %w", errs.InvalidArgument)
	}

	lifecycleRegistry := lifecycle.New(store)
	consensusRegistry := consensus.New(store)
	consensusRegistry.Register(consensus.Quorum{})
	consensusRegistry.Register(consensus.Weighted{})
	consensusRegistry.Register(consensus.Byzantine{})
	consensusRegistry.Register(consensus.CRDTConsensus{})
	consensusRegistry.Register(consensus.NewRaft())

	c := &Coordinator{
		cfg:       cfg,
		store:     store,
		lifecycle: lifecycleRegistry,
		topology:  topology.New(cfg.Topology),
		consensus: consensusRegistry,
		budget:    tokenbudget.New(cfg.TotalTokenBudget),
	}

	log.Logger.Info().Str("topology", string(cfg.Topology)).Int("max_agents", cfg.MaxAgents).Msg("swarm coordinator initialized")
	return c, nil
}

// RegisterAgent spawns an agent in the lifecycle registry, admits it to
// the topology, and records it in the store. It does not allocate any
// token budget to the new agent; that takes a separate AllocateTokens call.
func (c *Coordinator) RegisterAgent(agentType string, metadata map[string]string) (string, error) {
	if len(c.lifecycle.List()) >= c.cfg.MaxAgents {
		return "", fmt.Errorf("swarm at max_agents capacity (%d): %w", c.cfg.MaxAgents, errs.InvalidArgument)
	}

	agentID, err := c.lifecycle.Spawn(agentType, metadata)
	if err != nil {
		return "", err
	}
	c.topology.AddMember(agentID)

	agent, err := c.lifecycle.Get(agentID)
	if err == nil {
		_ = c.store.RegisterAgent(agent)
	}
	return agentID, nil
}

// DeregisterAgent terminates the agent and removes it from the topology.
func (c *Coordinator) DeregisterAgent(agentID string, durationMS int64) error {
	if err := c.lifecycle.Terminate(agentID, durationMS); err != nil {
		return err
	}
	c.topology.RemoveMember(agentID)
	return nil
}

// Broadcast fans a message out across the topology from the given agent.
func (c *Coordinator) Broadcast(from string, message *swarmtypes.BroadcastMessage, exclude map[string]struct{}) (int, error) {
	return c.topology.Broadcast(from, message, exclude)
}

// RequestConsensus drives a proposal through its named algorithm. At least
// one participant is required; the registry itself enforces this.
func (c *Coordinator) RequestConsensus(ctx context.Context, proposal swarmtypes.Proposal) (swarmtypes.ConsensusResult, error) {
	if proposal.Algorithm == "" {
		proposal.Algorithm = c.cfg.DefaultAlgorithm
	}
	if proposal.TimeoutMS == 0 {
		proposal.TimeoutMS = c.cfg.ConsensusTimeoutMS
	}
	if proposal.Threshold == 0 {
		switch proposal.Algorithm {
		case "quorum":
			proposal.Threshold = c.cfg.QuorumThreshold
		case "weighted":
			proposal.Threshold = c.cfg.WeightedThreshold
		}
	}
	if proposal.Algorithm == "byzantine" {
		if _, ok := proposal.Metadata["byzantine_f"]; !ok {
			metadata := make(map[string]any, len(proposal.Metadata)+1)
			for k, v := range proposal.Metadata {
				metadata[k] = v
			}
			metadata["byzantine_f"] = c.cfg.ByzantineF
			proposal.Metadata = metadata
		}
	}

	result, err := c.consensus.RequestConsensus(ctx, proposal)
	if err != nil {
		return swarmtypes.ConsensusResult{}, err
	}
	_ = c.store.AppendProposalLog(result)
	return result, nil
}

// RecordVote submits agentID's vote on an active proposal.
func (c *Coordinator) RecordVote(vote swarmtypes.Vote) error {
	return c.consensus.RecordVote(vote)
}

// GetTopologyInfo returns a snapshot of the current communication graph.
func (c *Coordinator) GetTopologyInfo() swarmtypes.TopologyInfo {
	return c.topology.GetInfo()
}

// HealthScan reports agent ids whose heartbeat is older than threshold.
func (c *Coordinator) HealthScan(threshold time.Duration) []string {
	return c.lifecycle.HealthScan(time.Now(), threshold)
}

// AllocateTokens grants amount tokens to agentID's budget.
func (c *Coordinator) AllocateTokens(agentID string, amount int) error {
	return c.budget.Allocate(agentID, amount)
}

// ConsumeTokens charges amount tokens against agentID's allocation.
func (c *Coordinator) ConsumeTokens(agentID string, amount int) error {
	return c.budget.Consume(agentID, amount)
}

// ConsensusStats returns registry-wide proposal counters.
func (c *Coordinator) ConsensusStats() consensus.Stats {
	return c.consensus.Stats()
}

// AgentCountsByStatus implements metrics.Source.
func (c *Coordinator) AgentCountsByStatus() map[swarmtypes.AgentStatus]int {
	counts := make(map[swarmtypes.AgentStatus]int)
	for _, a := range c.lifecycle.List() {
		counts[a.Status]++
	}
	return counts
}

// TopologyMemberCount implements metrics.Source.
func (c *Coordinator) TopologyMemberCount() int {
	return len(c.topology.GetInfo().Members)
}

// TokenBudgetSnapshot implements metrics.Source.
func (c *Coordinator) TokenBudgetSnapshot() (allocated, consumed int) {
	_, allocations, consumedMap := c.budget.Snapshot()
	for _, v := range allocations {
		allocated += v
	}
	for _, v := range consumedMap {
		consumed += v
	}
	return allocated, consumed
}
