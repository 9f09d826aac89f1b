package consensus

import "github.com/cuemby/moai-flow-core/pkg/swarmtypes"

// DefaultQuorumThreshold is used when a proposal does not specify one.
const DefaultQuorumThreshold = 0.5

// Quorum approves a proposal once strictly more than threshold of all
// participants (not just those who voted) have voted FOR.
type Quorum struct{}

func (Quorum) Name() string { return "quorum" }

func (q Quorum) Evaluate(proposal swarmtypes.Proposal, votes map[string]swarmtypes.Vote) (swarmtypes.ConsensusResult, bool) {
	threshold := proposal.Threshold
	if threshold <= 0 {
		threshold = DefaultQuorumThreshold
	}
	total := len(proposal.Participants)
	if total == 0 {
		return baseResult(proposal, q.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	forCount, _, _ := tally(votes)
	ratio := float64(forCount) / float64(total)
	if ratio > threshold {
		return baseResult(proposal, q.Name(), threshold, votes, swarmtypes.DecisionApproved, nil), true
	}

	// Once all participants have voted and the FOR ratio didn't clear the
	// bar, the outcome can never improve: reject now.
	if len(votes) >= total {
		return baseResult(proposal, q.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	// Early exit: even if every remaining participant votes FOR, the
	// threshold still can't be cleared.
	remaining := total - len(votes)
	bestCase := float64(forCount+remaining) / float64(total)
	if bestCase <= threshold {
		return baseResult(proposal, q.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	return swarmtypes.ConsensusResult{}, false
}
