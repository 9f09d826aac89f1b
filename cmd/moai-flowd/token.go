package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Allocate and consume from the swarm's token budget",
}

var tokenAgent string
var tokenAmount int

var tokenAllocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Grant tokens to an agent's budget",
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
		return coord.AllocateTokens(tokenAgent, tokenAmount)
	},
}

var tokenConsumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Charge tokens against an agent's allocation",
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
		return coord.ConsumeTokens(tokenAgent, tokenAmount)
	},
}

func init() {
	for _, c := range []*cobra.Command{tokenAllocateCmd, tokenConsumeCmd} {
		c.Flags().StringVar(&tokenAgent, "agent", "", "agent id (required)")
		c.Flags().IntVar(&tokenAmount, "amount", 0, "token amount (required)")
		_ = c.MarkFlagRequired("agent")
		_ = c.MarkFlagRequired("amount")
	}

	tokenCmd.AddCommand(tokenAllocateCmd)
	tokenCmd.AddCommand(tokenConsumeCmd)
}
