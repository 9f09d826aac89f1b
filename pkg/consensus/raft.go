package consensus

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/consensus/raftfsm"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
)

// DefaultRaftApplyTimeout bounds how long a single vote replication waits
// for the in-memory raft cluster to commit it.
const DefaultRaftApplyTimeout = 500 * time.Millisecond

// VoteReplicator is implemented by algorithms that need to observe every
// vote as it arrives, ahead of Evaluate being called. The registry calls
// ReplicateVote before re-running Evaluate.
type VoteReplicator interface {
	ReplicateVote(proposal swarmtypes.Proposal, vote swarmtypes.Vote) error
}

// Raft backs consensus with one real raft.Raft node per participant,
// connected over raft.InmemTransport, so request_consensus gets a genuine
// leader election and majority log commit instead of a simulated one
// (spec.md §4.9). The final decision is ordinary majority-of-committed-
// votes, computed from the replicated log rather than the registry's
// local vote map.
type Raft struct {
	mu       sync.Mutex
	clusters map[string]*raftfsm.Cluster
}

// NewRaft creates an algorithm with no clusters yet; one is created lazily
// per proposal id the first time a vote is replicated for it.
func NewRaft() *Raft {
	return &Raft{clusters: make(map[string]*raftfsm.Cluster)}
}

func (Raft) Name() string { return "raft" }

func (r *Raft) clusterFor(proposal swarmtypes.Proposal) (*raftfsm.Cluster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clusters[proposal.ProposalID]; ok {
		return c, nil
	}
	c, err := raftfsm.NewCluster(proposal.Participants)
	if err != nil {
		return nil, fmt.Errorf("bootstrap raft cluster for proposal %s: %w", proposal.ProposalID, err)
	}
	if _, err := c.WaitForLeader(DefaultRaftApplyTimeout); err != nil {
		return nil, err
	}
	r.clusters[proposal.ProposalID] = c
	return c, nil
}

// ReplicateVote replicates vote through the proposal's raft cluster,
// blocking until it is committed to a majority.
func (r *Raft) ReplicateVote(proposal swarmtypes.Proposal, vote swarmtypes.Vote) error {
	cluster, err := r.clusterFor(proposal)
	if err != nil {
		return err
	}
	return cluster.Propose(raftfsm.VoteEntry{
		ProposalID: proposal.ProposalID,
		AgentID:    vote.AgentID,
		Choice:     string(vote.Choice),
		Weight:     vote.Weight,
	}, DefaultRaftApplyTimeout)
}

// Evaluate tallies the committed raft log for the proposal rather than the
// registry's local vote map: the replicated log is the source of truth.
func (r *Raft) Evaluate(proposal swarmtypes.Proposal, _ map[string]swarmtypes.Vote) (swarmtypes.ConsensusResult, bool) {
	r.mu.Lock()
	cluster, ok := r.clusters[proposal.ProposalID]
	r.mu.Unlock()

	threshold := proposal.Threshold
	if threshold <= 0 {
		threshold = DefaultQuorumThreshold
	}
	total := len(proposal.Participants)
	if !ok || total == 0 {
		return swarmtypes.ConsensusResult{}, false
	}

	committed := cluster.CommittedEntries(proposal.ProposalID)
	votes := make(map[string]swarmtypes.Vote, len(committed))
	for _, e := range committed {
		votes[e.AgentID] = swarmtypes.Vote{
			ProposalID: e.ProposalID,
			AgentID:    e.AgentID,
			Choice:     swarmtypes.VoteChoice(e.Choice),
			Weight:     e.Weight,
		}
	}

	leaderID, stats := cluster.Info()
	metadata := map[string]any{
		"algorithm":    "raft",
		"leader":       leaderID,
		"term":         stats["term"],
		"commit_index": stats["commit_index"],
	}

	forCount, _, _ := tally(votes)
	ratio := float64(forCount) / float64(total)
	if ratio > threshold {
		return baseResult(proposal, "raft", threshold, votes, swarmtypes.DecisionApproved, metadata), true
	}
	if len(votes) >= total {
		return baseResult(proposal, "raft", threshold, votes, swarmtypes.DecisionRejected, metadata), true
	}
	remaining := total - len(votes)
	bestCase := float64(forCount+remaining) / float64(total)
	if bestCase <= threshold {
		return baseResult(proposal, "raft", threshold, votes, swarmtypes.DecisionRejected, metadata), true
	}
	return swarmtypes.ConsensusResult{}, false
}

// Close shuts down every raft cluster this algorithm instance has created.
func (r *Raft) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clusters {
		c.Shutdown()
	}
}
