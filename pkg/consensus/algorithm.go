// Package consensus implements the pluggable consensus algorithms and the
// registry that drives proposals through them (spec.md §4.6-§4.11).
package consensus

import "github.com/cuemby/moai-flow-core/pkg/swarmtypes"

// Algorithm evaluates the votes collected so far for a proposal and reports
// whether a final decision has been reached. Quorum, Weighted, Byzantine,
// and CRDT consensus are all pure functions of the vote set; Raft (raft.go)
// additionally replicates the decision through a real raft.Raft log before
// it ever reaches Evaluate.
type Algorithm interface {
	Name() string
	Evaluate(proposal swarmtypes.Proposal, votes map[string]swarmtypes.Vote) (swarmtypes.ConsensusResult, bool)
}

func tally(votes map[string]swarmtypes.Vote) (forCount, againstCount, abstainCount int) {
	for _, v := range votes {
		switch v.Choice {
		case swarmtypes.VoteFor:
			forCount++
		case swarmtypes.VoteAgainst:
			againstCount++
		case swarmtypes.VoteAbstain:
			abstainCount++
		}
	}
	return
}

func baseResult(proposal swarmtypes.Proposal, algorithm string, threshold float64, votes map[string]swarmtypes.Vote, decision swarmtypes.Decision, metadata map[string]any) swarmtypes.ConsensusResult {
	f, a, ab := tally(votes)
	return swarmtypes.ConsensusResult{
		ProposalID:    proposal.ProposalID,
		Decision:      decision,
		VotesFor:      f,
		VotesAgainst:  a,
		VotesAbstain:  ab,
		Threshold:     threshold,
		Participants:  proposal.Participants,
		AlgorithmUsed: algorithm,
		Metadata:      metadata,
	}
}
