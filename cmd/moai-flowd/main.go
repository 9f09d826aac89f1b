package main

import (
	"fmt"
	"os"

	"github.com/cuemby/moai-flow-core/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildTime are set via -ldflags at release build time.
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var (
	logLevel string
	logJSON  bool
	cfgPath  string
	dataDir  string
)

var rootCmd = &cobra.Command{
	Use:     "moai-flowd",
	Short:   "MoAI-Flow coordination core daemon and inspector",
	Version: Version,
	Long: `moai-flowd runs and inspects the MoAI-Flow coordination core: a
swarm coordinator that manages agent lifecycle, topology, multi-algorithm
consensus, a token budget, and pattern collection over an embedded event
store.`,
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.SetVersionTemplate(fmt.Sprintf("moai-flowd version %s (commit %s, built %s)\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file (defaults applied when unset)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the config's storage_root")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(consensusCmd)
	rootCmd.AddCommand(topologyCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configCmd)
}

func initLogging() {
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
