package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
)

// Token budget pressure thresholds: at or above tokenBudgetDegradedRatio the
// swarm is close enough to exhausting its allocation that new proposals
// should be throttled; at or above tokenBudgetUnhealthyRatio it effectively has.
const (
	tokenBudgetDegradedRatio  = 0.8
	tokenBudgetUnhealthyRatio = 0.95
)

func updateTokenBudgetHealth(allocated, consumed int) {
	if allocated <= 0 {
		UpdateComponent("token_budget", StatusHealthy, "")
		return
	}
	ratio := float64(consumed) / float64(allocated)
	switch {
	case ratio >= tokenBudgetUnhealthyRatio:
		UpdateComponent("token_budget", StatusUnhealthy, fmt.Sprintf("consumed %.0f%% of allocated budget", ratio*100))
	case ratio >= tokenBudgetDegradedRatio:
		UpdateComponent("token_budget", StatusDegraded, fmt.Sprintf("consumed %.0f%% of allocated budget", ratio*100))
	default:
		UpdateComponent("token_budget", StatusHealthy, "")
	}
}

// Source is the read-only view of swarm state the Collector samples on its
// tick. pkg/swarm's Coordinator satisfies this without metrics importing it
// back, the same decoupling lifecycle/consensus use for their event sinks.
type Source interface {
	AgentCountsByStatus() map[swarmtypes.AgentStatus]int
	TopologyMemberCount() int
	TokenBudgetSnapshot() (allocated, consumed int)
}

// Snapshot is a plain-struct point-in-time view of the same counters the
// Collector pushes into Prometheus, for callers (CLI status output, tests)
// that want a value rather than a scrape.
type Snapshot struct {
	TS             time.Time
	AgentsByStatus map[swarmtypes.AgentStatus]int
	TopologyMembers int
	TokenAllocated int
	TokenConsumed  int
}

// Collector periodically samples a Source into both the package's
// Prometheus gauges and an in-memory Snapshot, the dual approach the
// teacher's own Collector takes toward cluster state.
type Collector struct {
	source   Source
	interval time.Duration
	stopCh   chan struct{}

	mu       sync.Mutex
	snapshot Snapshot
}

// NewCollector creates a Collector sampling source every interval.
func NewCollector(source Source, interval time.Duration) *Collector {
	return &Collector{
		source:   source,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins periodic collection in a background goroutine.
func (c *Collector) Start() {
	go func() {
		c.collect()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Snapshot returns the most recently collected values.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *Collector) collect() {
	byStatus := c.source.AgentCountsByStatus()
	for status, count := range byStatus {
		AgentsTotal.WithLabelValues(string(status)).Set(float64(count))
	}

	members := c.source.TopologyMemberCount()
	TopologyMembersTotal.Set(float64(members))

	allocated, consumed := c.source.TokenBudgetSnapshot()
	TokenBudgetAllocated.Set(float64(allocated))
	TokenBudgetConsumed.Set(float64(consumed))
	updateTokenBudgetHealth(allocated, consumed)

	c.mu.Lock()
	c.snapshot = Snapshot{
		TS:              time.Now(),
		AgentsByStatus:  byStatus,
		TopologyMembers: members,
		TokenAllocated:  allocated,
		TokenConsumed:   consumed,
	}
	c.mu.Unlock()
}
