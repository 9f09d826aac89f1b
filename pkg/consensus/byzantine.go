package consensus

import "github.com/cuemby/moai-flow-core/pkg/swarmtypes"

// Byzantine approves a proposal once strictly more than 2/3 of all
// participants have voted FOR, the standard BFT safety threshold tolerating
// f faulty participants out of 3f+1 (spec.md §4.10). f is read from
// proposal.Metadata["byzantine_f"] (the config's byzantine_f), defaulting
// to MaxFaulty(total) when unset. A proposal whose participant set can't
// even reach 2f+1 members is rejected up front as DecisionTimeout: no
// amount of voting can make it BFT-safe. Duplicate votes, votes from a
// non-participant, and malformed (unrecognized) vote choices are all
// signs of a misbehaving participant; the registry tracks the offending
// agent ids and attaches them to the final result as
// metadata["suspected_agents"] regardless of which algorithm resolved it.
type Byzantine struct{}

func (Byzantine) Name() string { return "byzantine" }

const byzantineThreshold = 2.0 / 3.0

func byzantineF(proposal swarmtypes.Proposal, total int) int {
	if proposal.Metadata != nil {
		if raw, ok := proposal.Metadata["byzantine_f"]; ok {
			if f, ok := raw.(int); ok && f >= 0 {
				return f
			}
		}
	}
	return MaxFaulty(total)
}

func (b Byzantine) Evaluate(proposal swarmtypes.Proposal, votes map[string]swarmtypes.Vote) (swarmtypes.ConsensusResult, bool) {
	total := len(proposal.Participants)
	if total == 0 {
		return baseResult(proposal, b.Name(), byzantineThreshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	f := byzantineF(proposal, total)
	needed := 2*f + 1
	if total < needed {
		return baseResult(proposal, b.Name(), byzantineThreshold, votes, swarmtypes.DecisionTimeout, nil), true
	}

	forCount, _, _ := tally(votes)
	ratio := float64(forCount) / float64(total)
	if ratio > byzantineThreshold {
		return baseResult(proposal, b.Name(), byzantineThreshold, votes, swarmtypes.DecisionApproved, nil), true
	}

	if len(votes) >= total {
		return baseResult(proposal, b.Name(), byzantineThreshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	remaining := total - len(votes)
	bestCase := float64(forCount+remaining) / float64(total)
	if bestCase <= byzantineThreshold {
		return baseResult(proposal, b.Name(), byzantineThreshold, votes, swarmtypes.DecisionRejected, nil), true
	}

	return swarmtypes.ConsensusResult{}, false
}

// MaxFaulty returns the largest f such that n participants can tolerate f
// Byzantine-faulty members under the standard n = 3f+1 bound.
func MaxFaulty(participants int) int {
	return (participants - 1) / 3
}
