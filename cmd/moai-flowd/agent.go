package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Inspect and manage agents in the swarm's lifecycle registry",
}

var agentType string
var agentHealthThresholdMS int

var agentSpawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Register a new agent and admit it to the topology",
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

		agentID, err := coord.RegisterAgent(agentType, nil)
		if err != nil {
			return err
		}
		fmt.Println(agentID)
		return nil
	},
}

var agentDeregisterCmd = &cobra.Command{
	Use:   "deregister [agent-id]",
	Short: "Terminate an agent and remove it from the topology",
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
		return coord.DeregisterAgent(args[0], time.Now().UnixMilli())
	},
}

var agentHealthCmd = &cobra.Command{
	Use:   "health-scan",
	Short: "List agents whose heartbeat is stale",
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

		stale := coord.HealthScan(time.Duration(agentHealthThresholdMS) * time.Millisecond)
		out, _ := json.MarshalIndent(stale, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	agentSpawnCmd.Flags().StringVar(&agentType, "type", "worker", "agent type")
	agentHealthCmd.Flags().IntVar(&agentHealthThresholdMS, "threshold-ms", 30000, "heartbeat staleness threshold in milliseconds")

	agentCmd.AddCommand(agentSpawnCmd)
	agentCmd.AddCommand(agentDeregisterCmd)
	agentCmd.AddCommand(agentHealthCmd)
}
