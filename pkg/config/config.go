// Package config loads and validates the coordination core's
// configuration, the same YAML-via-gopkg.in/yaml.v3 shape the teacher
// uses for its resource manifests (spec.md §6.4).
package config

import (
	"fmt"
	"os"

	"github.com/cuemby/moai-flow-core/pkg/errs"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"gopkg.in/yaml.v3"
)

// Config is the coordination core's full runtime configuration.
type Config struct {
	Topology             swarmtypes.TopologyKind `yaml:"topology"`
	MaxAgents            int                     `yaml:"max_agents"`
	DefaultAlgorithm     string                  `yaml:"default_algorithm"`
	QuorumThreshold      float64                 `yaml:"quorum_threshold"`
	WeightedThreshold    float64                 `yaml:"weighted_threshold"`
	ByzantineF           int                     `yaml:"byzantine_f"`
	ElectionTimeoutMS    int                     `yaml:"election_timeout_ms"`
	HeartbeatIntervalMS  int                     `yaml:"heartbeat_interval_ms"`
	ConsensusTimeoutMS   int                     `yaml:"consensus_timeout_ms"`
	HookTimeoutMS        int                     `yaml:"hook_timeout_ms"`
	EventRetentionDays   int                     `yaml:"event_retention_days"`
	PatternRetentionDays int                     `yaml:"pattern_retention_days"`
	StorageRoot          string                  `yaml:"storage_root"`
	TotalTokenBudget     int                     `yaml:"total_token_budget"`
}

// Default returns a Config populated with the coordination core's defaults.
func Default() Config {
	return Config{
		Topology:             swarmtypes.TopologyAdaptive,
		MaxAgents:            10,
		DefaultAlgorithm:     "quorum",
		QuorumThreshold:      0.5,
		WeightedThreshold:    0.6,
		ByzantineF:           1,
		ElectionTimeoutMS:    5000,
		HeartbeatIntervalMS:  1000,
		ConsensusTimeoutMS:   30000,
		HookTimeoutMS:        2000,
		EventRetentionDays:   30,
		PatternRetentionDays: 90,
		StorageRoot:          "./memory",
		TotalTokenBudget:     0,
	}
}

// Load reads a YAML file at path and overlays it on top of Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validTopologies = map[swarmtypes.TopologyKind]bool{
	swarmtypes.TopologyHierarchical: true,
	swarmtypes.TopologyMesh:         true,
	swarmtypes.TopologyStar:         true,
	swarmtypes.TopologyRing:         true,
	swarmtypes.TopologyAdaptive:     true,
}

// Validate fails fast on configuration that would otherwise surface as a
// confusing runtime error deep inside the coordinator, the same posture
// the teacher's manager constructor takes toward its own config. Every
// failure wraps errs.InvalidArgument.
func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%v: %w", err, errs.InvalidArgument)
	}
	return nil
}

func (c Config) validate() error {
	if !validTopologies[c.Topology] {
		return fmt.Errorf("config: unknown topology %q", c.Topology)
	}
	if c.MaxAgents <= 0 {
		return fmt.Errorf("config: max_agents must be positive, got %d", c.MaxAgents)
	}
	if c.QuorumThreshold <= 0 || c.QuorumThreshold > 1 {
		return fmt.Errorf("config: quorum_threshold must be in (0,1], got %f", c.QuorumThreshold)
	}
	if c.WeightedThreshold <= 0 || c.WeightedThreshold > 1 {
		return fmt.Errorf("config: weighted_threshold must be in (0,1], got %f", c.WeightedThreshold)
	}
	if c.ByzantineF < 0 {
		return fmt.Errorf("config: byzantine_f must be non-negative, got %d", c.ByzantineF)
	}
	if c.ElectionTimeoutMS <= 0 {
		return fmt.Errorf("config: election_timeout_ms must be positive, got %d", c.ElectionTimeoutMS)
	}
	if c.HeartbeatIntervalMS <= 0 {
		return fmt.Errorf("config: heartbeat_interval_ms must be positive, got %d", c.HeartbeatIntervalMS)
	}
	if c.HeartbeatIntervalMS >= c.ElectionTimeoutMS/2 {
		return fmt.Errorf("config: heartbeat_interval_ms (%d) must be less than election_timeout_ms/2 (%d)", c.HeartbeatIntervalMS, c.ElectionTimeoutMS/2)
	}
	if c.ConsensusTimeoutMS <= 0 {
		return fmt.Errorf("config: consensus_timeout_ms must be positive, got %d", c.ConsensusTimeoutMS)
	}
	if c.HookTimeoutMS <= 0 {
		return fmt.Errorf("config: hook_timeout_ms must be positive, got %d", c.HookTimeoutMS)
	}
	if c.StorageRoot == "" {
		return fmt.Errorf("config: storage_root must be set")
	}
	if c.TotalTokenBudget < 0 {
		return fmt.Errorf("config: total_token_budget must be non-negative, got %d", c.TotalTokenBudget)
	}
	return nil
}
