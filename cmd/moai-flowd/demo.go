package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/spf13/cobra"
)

var demoAgentCount int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Spawn a small swarm and run one consensus round end to end",
	Long: `demo spawns demoAgentCount agents into the configured topology, opens a
quorum proposal naming them all as participants, casts a FOR vote from
every agent, and prints the resolved ConsensusResult. Useful for
exercising the whole stack without a long-running daemon, since
consensus propose/vote normally require a shared process.`,
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

		var participants []string
		for i := 0; i < demoAgentCount; i++ {
			agentID, err := coord.RegisterAgent("worker", nil)
			if err != nil {
				return err
			}
			participants = append(participants, agentID)
		}

		proposal := swarmtypes.Proposal{
			ProposalID:   fmt.Sprintf("demo-%d", time.Now().UnixNano()),
			Participants: participants,
			Algorithm:    "quorum",
			TimeoutMS:    2000,
			CreatedTS:    time.Now(),
		}

		resultCh := make(chan swarmtypes.ConsensusResult, 1)
		errCh := make(chan error, 1)
		go func() {
			result, err := coord.RequestConsensus(cmd.Context(), proposal)
			if err != nil {
				errCh <- err
				return
			}
			resultCh <- result
		}()

		time.Sleep(10 * time.Millisecond) // let RequestConsensus register the proposal before votes arrive

		for _, agentID := range participants {
			_ = coord.RecordVote(swarmtypes.Vote{
				ProposalID: proposal.ProposalID,
				AgentID:    agentID,
				Choice:     swarmtypes.VoteFor,
				Weight:     1,
				TS:         time.Now(),
			})
		}

		select {
		case err := <-errCh:
			return err
		case result := <-resultCh:
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))
		}

		info := coord.GetTopologyInfo()
		topologyOut, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(topologyOut))
		return nil
	},
}

func init() {
	demoCmd.Flags().IntVar(&demoAgentCount, "agents", 3, "number of agents to spawn for the demo proposal")
	rootCmd.AddCommand(demoCmd)
}
