package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Inspect the swarm's communication topology",
}

var topologyInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the current topology snapshot (members and edges)",
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

		info := coord.GetTopologyInfo()
		out, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	topologyCmd.AddCommand(topologyInfoCmd)
}
