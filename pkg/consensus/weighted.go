package consensus

import "github.com/cuemby/moai-flow-core/pkg/swarmtypes"

// DefaultWeightedThreshold is used when a proposal does not specify one.
const DefaultWeightedThreshold = 0.6

// Weighted approves a proposal once the sum of FOR vote weights reaches
// (is at least) threshold times the sum of all participants' weights. Voters that never
// cast a vote carry their full weight as non-participating, i.e. they
// count toward the denominator but not the FOR numerator, the same as a
// participant who never votes at all under Quorum.
type Weighted struct{}

func (Weighted) Name() string { return "weighted" }

func weightOf(proposal swarmtypes.Proposal, agentID string) float64 {
	if proposal.Metadata != nil {
		if raw, ok := proposal.Metadata["weights"]; ok {
			if weights, ok := raw.(map[string]float64); ok {
				if w, ok := weights[agentID]; ok {
					return w
				}
			}
		}
	}
	return 1.0
}

func (w Weighted) Evaluate(proposal swarmtypes.Proposal, votes map[string]swarmtypes.Vote) (swarmtypes.ConsensusResult, bool) {
	threshold := proposal.Threshold
	if threshold <= 0 {
		threshold = DefaultWeightedThreshold
	}

	var totalWeight, forWeight, castWeight float64
	for _, agentID := range proposal.Participants {
		totalWeight += weightOf(proposal, agentID)
	}
	if totalWeight == 0 {
		return baseResult(proposal, w.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}
	for agentID, vote := range votes {
		wt := weightOf(proposal, agentID)
		castWeight += wt
		if vote.Choice == swarmtypes.VoteFor {
			forWeight += wt
		}
	}

	ratio := forWeight / totalWeight
	if ratio >= threshold {
		return baseResult(proposal, w.Name(), threshold, votes, swarmtypes.DecisionApproved, nil), true
	}

	if len(votes) >= len(proposal.Participants) {
		return baseResult(proposal, w.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	remainingWeight := totalWeight - castWeight
	bestCase := (forWeight + remainingWeight) / totalWeight
	if bestCase < threshold {
		return baseResult(proposal, w.Name(), threshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	return swarmtypes.ConsensusResult{}, false
}
