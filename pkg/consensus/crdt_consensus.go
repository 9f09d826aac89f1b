package consensus

import (
	"github.com/cuemby/moai-flow-core/pkg/crdt"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
)

// DefaultCRDTThreshold is used when a proposal does not specify one.
const DefaultCRDTThreshold = 0.5

// CRDTConsensus tallies FOR votes in a G-Counter, one increment per voting
// agent keyed by that agent's replica id. Merging the per-agent counters is
// commutative and idempotent, so the same result is reached no matter what
// order votes are observed or re-delivered in (spec.md §4.11). AGAINST and
// ABSTAIN votes are not kept in counters; abstentions are counted straight
// from the vote map to shrink the denominator.
type CRDTConsensus struct{}

func (CRDTConsensus) Name() string { return "crdt" }

func (c CRDTConsensus) Evaluate(proposal swarmtypes.Proposal, votes map[string]swarmtypes.Vote) (swarmtypes.ConsensusResult, bool) {
	threshold := proposal.Threshold
	if threshold <= 0 {
		threshold = DefaultCRDTThreshold
	}
	total := len(proposal.Participants)
	if total == 0 {
		return baseResult(proposal, c.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	forCounter := crdt.NewGCounter("crdt-consensus")
	for agentID, vote := range votes {
		if vote.Choice != swarmtypes.VoteFor {
			continue
		}
		single := crdt.NewGCounter(agentID)
		single.Increment(1)
		forCounter = forCounter.Merge(single)
	}

	// Abstentions are excluded from the denominator: they neither count
	// toward nor against the FOR ratio, they just shrink the electorate.
	_, _, abstainCount := tally(votes)
	effectiveTotal := total - abstainCount
	if effectiveTotal <= 0 {
		return baseResult(proposal, c.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	forCount := forCounter.Value()
	ratio := float64(forCount) / float64(effectiveTotal)
	if ratio > threshold {
		return baseResult(proposal, c.Name(), threshold, votes, swarmtypes.DecisionApproved, nil), true
	}
	if len(votes) >= total {
		return baseResult(proposal, c.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	// Best case for the remaining, still-unvoted participants: every one of
	// them votes FOR, so neither the numerator nor the denominator shrinks
	// any further than it already has.
	remaining := total - len(votes)
	bestCase := float64(int64(remaining)+forCount) / float64(effectiveTotal)
	if bestCase <= threshold {
		return baseResult(proposal, c.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}
	return swarmtypes.ConsensusResult{}, false
}
