package consensus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/errs"
	"github.com/cuemby/moai-flow-core/pkg/log"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
)

// EventSink receives consensus events for durable recording.
type EventSink interface {
	InsertEvent(evt swarmtypes.Event) (uint64, error)
}

type proposalState struct {
	proposal  swarmtypes.Proposal
	algorithm Algorithm
	votes     map[string]swarmtypes.Vote
	suspected []string
	result    *swarmtypes.ConsensusResult
	done      chan struct{}
}

// AlgorithmStats is a point-in-time snapshot of counters scoped to a
// single consensus algorithm.
type AlgorithmStats struct {
	Requested int
	Approved  int
	Rejected  int
	TimedOut  int
}

// Stats is a point-in-time snapshot of registry-wide counters (spec.md
// §4.6 stats()).
type Stats struct {
	Requested     int
	Approved      int
	Rejected      int
	TimedOut      int
	ByAlgorithm   map[string]AlgorithmStats
	AvgDurationMS float64
	ApprovalRate  float64
}

// Registry drives proposals through registered algorithms: it tracks
// active proposals, records votes, and resolves a decision once an
// algorithm's Evaluate call reports one (or the proposal times out).
type Registry struct {
	mu              sync.Mutex
	algorithms      map[string]Algorithm
	active          map[string]*proposalState
	sink            EventSink
	stats           Stats
	totalDurationMS int64
}

// New creates an empty Registry. sink may be nil.
func New(sink EventSink) *Registry {
	return &Registry{
		algorithms: make(map[string]Algorithm),
		active:     make(map[string]*proposalState),
		sink:       sink,
		stats:      Stats{ByAlgorithm: make(map[string]AlgorithmStats)},
	}
}

// Register makes algorithm available under its Name().
func (r *Registry) Register(algorithm Algorithm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.algorithms[algorithm.Name()] = algorithm
}

// RequestConsensus creates a proposal and blocks until Algorithm.Evaluate
// reaches a decision, ctx is cancelled, or proposal.TimeoutMS elapses
// (whichever happens first). A proposal with zero participants is rejected
// up front: consensus is never requested over an empty set.
func (r *Registry) RequestConsensus(ctx context.Context, proposal swarmtypes.Proposal) (swarmtypes.ConsensusResult, error) {
	if len(proposal.Participants) == 0 {
		return swarmtypes.ConsensusResult{}, fmt.Errorf("proposal %s has no participants: %w", proposal.ProposalID, errs.InvalidArgument)
	}

	r.mu.Lock()
	algorithm, ok := r.algorithms[proposal.Algorithm]
	if !ok {
		r.mu.Unlock()
		return swarmtypes.ConsensusResult{}, fmt.Errorf("unknown consensus algorithm %q: %w", proposal.Algorithm, errs.InvalidArgument)
	}
	if _, exists := r.active[proposal.ProposalID]; exists {
		r.mu.Unlock()
		return swarmtypes.ConsensusResult{}, fmt.Errorf("proposal %s: %w", proposal.ProposalID, errs.AlreadyExists)
	}
	if proposal.CreatedTS.IsZero() {
		proposal.CreatedTS = time.Now()
	}
	state := &proposalState{
		proposal:  proposal,
		algorithm: algorithm,
		votes:     make(map[string]swarmtypes.Vote),
		done:      make(chan struct{}),
	}
	r.active[proposal.ProposalID] = state
	r.stats.Requested++
	r.mu.Unlock()

	log.WithConsensus(proposal.ProposalID, proposal.Algorithm).Info().
		Int("participants", len(proposal.Participants)).
		Msg("consensus requested")

	r.emit(swarmtypes.EventProposalCreated, "", map[string]any{
		"proposal_id": proposal.ProposalID,
		"algorithm":   proposal.Algorithm,
	})

	start := time.Now()
	runCtx := ctx
	var cancel context.CancelFunc
	if proposal.TimeoutMS > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(proposal.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	var result swarmtypes.ConsensusResult
	select {
	case <-state.done:
		r.mu.Lock()
		result = *state.result
		r.mu.Unlock()
	case <-runCtx.Done():
		result = baseResult(proposal, proposal.Algorithm, proposal.Threshold, state.votes, swarmtypes.DecisionTimeout, nil)
	}
	result.DurationMS = time.Since(start).Milliseconds()

	r.mu.Lock()
	if len(state.suspected) > 0 {
		if result.Metadata == nil {
			result.Metadata = make(map[string]any, 1)
		}
		result.Metadata["suspected_agents"] = append([]string(nil), state.suspected...)
	}
	delete(r.active, proposal.ProposalID)

	algoStats := r.stats.ByAlgorithm[proposal.Algorithm]
	algoStats.Requested++
	r.totalDurationMS += result.DurationMS
	switch result.Decision {
	case swarmtypes.DecisionApproved:
		r.stats.Approved++
		algoStats.Approved++
	case swarmtypes.DecisionRejected:
		r.stats.Rejected++
		algoStats.Rejected++
	case swarmtypes.DecisionTimeout:
		r.stats.TimedOut++
		algoStats.TimedOut++
	}
	r.stats.ByAlgorithm[proposal.Algorithm] = algoStats
	if r.stats.Requested > 0 {
		r.stats.AvgDurationMS = float64(r.totalDurationMS) / float64(r.stats.Requested)
		r.stats.ApprovalRate = float64(r.stats.Approved) / float64(r.stats.Requested)
	}
	r.mu.Unlock()

	resolvedLog := log.WithConsensus(proposal.ProposalID, proposal.Algorithm).Info()
	if len(state.suspected) > 0 {
		resolvedLog = resolvedLog.Strs("suspected_agents", state.suspected)
	}
	resolvedLog.Str("decision", string(result.Decision)).
		Int64("duration_ms", result.DurationMS).
		Msg("consensus resolved")

	r.emit(swarmtypes.EventProposalResolved, "", map[string]any{
		"proposal_id": proposal.ProposalID,
		"decision":    string(result.Decision),
	})
	return result, nil
}

// RecordVote records agentID's vote on an active proposal. At most one
// vote per (proposal, agent) is accepted; a second vote from the same
// agent is rejected as AlreadyExists rather than silently overwritten.
func (r *Registry) RecordVote(vote swarmtypes.Vote) error {
	r.mu.Lock()
	state, ok := r.active[vote.ProposalID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("proposal %s: %w", vote.ProposalID, errs.NotFound)
	}
	if _, voted := state.votes[vote.AgentID]; voted {
		state.suspected = append(state.suspected, vote.AgentID)
		r.mu.Unlock()
		return fmt.Errorf("agent %s already voted on %s: %w", vote.AgentID, vote.ProposalID, errs.AlreadyExists)
	}
	isParticipant := false
	for _, p := range state.proposal.Participants {
		if p == vote.AgentID {
			isParticipant = true
			break
		}
	}
	if !isParticipant {
		state.suspected = append(state.suspected, vote.AgentID)
		r.mu.Unlock()
		return fmt.Errorf("agent %s is not a participant of %s: %w", vote.AgentID, vote.ProposalID, errs.InvalidArgument)
	}
	if vote.TS.IsZero() {
		vote.TS = time.Now()
	}
	// A vote choice outside the recognized set is itself a sign of a
	// misbehaving (or buggy) participant: rather than reject it outright,
	// count it as AGAINST and flag the agent as suspected, so a faulty
	// vote can't simply be withheld from the tally by sending garbage.
	switch vote.Choice {
	case swarmtypes.VoteFor, swarmtypes.VoteAgainst, swarmtypes.VoteAbstain:
	default:
		state.suspected = append(state.suspected, vote.AgentID)
		vote.Choice = swarmtypes.VoteAgainst
	}
	state.votes[vote.AgentID] = vote
	algorithm := state.algorithm
	proposal := state.proposal
	r.mu.Unlock()

	log.WithConsensus(vote.ProposalID, proposal.Algorithm).Debug().
		Str("agent_id", vote.AgentID).
		Str("choice", string(vote.Choice)).
		Msg("vote recorded")

	r.emit(swarmtypes.EventVoteRecorded, vote.AgentID, map[string]any{
		"proposal_id": vote.ProposalID,
		"choice":      string(vote.Choice),
	})

	if replicator, ok := algorithm.(VoteReplicator); ok {
		if err := replicator.ReplicateVote(proposal, vote); err != nil {
			return fmt.Errorf("replicate vote: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok = r.active[vote.ProposalID]
	if !ok || state.result != nil {
		return nil
	}
	votesCopy := make(map[string]swarmtypes.Vote, len(state.votes))
	for k, v := range state.votes {
		votesCopy[k] = v
	}
	if result, decided := algorithm.Evaluate(state.proposal, votesCopy); decided {
		state.result = &result
		close(state.done)
	}
	return nil
}

// Stats returns a snapshot of registry-wide counters.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
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
