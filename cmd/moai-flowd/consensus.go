package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/spf13/cobra"
)

var consensusCmd = &cobra.Command{
	Use:   "consensus",
	Short: "Drive proposals through the consensus registry",
}

var (
	proposalID      string
	proposalAlgo    string
	proposalParts   string
	proposalTimeout int
	proposalThresh  float64
)

var consensusProposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Submit a new proposal and block until it resolves",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		coord, store, err := openCoordinator(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		participants := strings.Split(proposalParts, ",")
		proposal := swarmtypes.Proposal{
			ProposalID:   proposalID,
			Participants: participants,
			Algorithm:    proposalAlgo,
			Threshold:    proposalThresh,
			TimeoutMS:    proposalTimeout,
			CreatedTS:    time.Now(),
		}

		result, err := coord.RequestConsensus(cmd.Context(), proposal)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var (
	voteAgent string
	voteValue string
)

var consensusVoteCmd = &cobra.Command{
	Use:   "vote [proposal-id]",
	Short: "Cast a single agent's vote on an active proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		coord, store, err := openCoordinator(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		vote := swarmtypes.Vote{
			ProposalID: args[0],
			AgentID:    voteAgent,
			Choice:     swarmtypes.VoteChoice(strings.ToUpper(voteValue)),
			Weight:     1,
			TS:         time.Now(),
		}
		return coord.RecordVote(vote)
	},
}

func init() {
	consensusProposeCmd.Flags().StringVar(&proposalID, "id", "", "proposal id (required)")
	consensusProposeCmd.Flags().StringVar(&proposalAlgo, "algorithm", "quorum", "consensus algorithm: quorum, weighted, byzantine, crdt, raft")
	consensusProposeCmd.Flags().StringVar(&proposalParts, "participants", "", "comma-separated participant agent ids (required)")
	consensusProposeCmd.Flags().IntVar(&proposalTimeout, "timeout-ms", 0, "override the config's consensus timeout")
	consensusProposeCmd.Flags().Float64Var(&proposalThresh, "threshold", 0, "override the algorithm's default threshold")
	_ = consensusProposeCmd.MarkFlagRequired("id")
	_ = consensusProposeCmd.MarkFlagRequired("participants")

	consensusVoteCmd.Flags().StringVar(&voteAgent, "agent", "", "voting agent id (required)")
	consensusVoteCmd.Flags().StringVar(&voteValue, "choice", "for", "FOR, AGAINST, or ABSTAIN")
	_ = consensusVoteCmd.MarkFlagRequired("agent")

	consensusCmd.AddCommand(consensusProposeCmd)
	consensusCmd.AddCommand(consensusVoteCmd)
}
