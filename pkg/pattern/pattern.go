// Package pattern implements the Pattern Collector: an append-only,
// date-sharded JSON log of task completions, errors, agent usage, and user
// corrections (spec.md §4.13). File layout and write style follow the
// teacher's certificate writer: MkdirAll the target directory, then write
// the file directly rather than through a database transaction.
package pattern

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/log"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
)

// Collector appends Pattern records to date-sharded files under root.
// Writes never propagate a failure to the caller: a storage error is
// logged and the pattern is reported as not collected (spec.md §4.13).
type Collector struct {
	root string

	mu       sync.Mutex
	sequence int
	lastDay  string

	stats struct {
		collected int
		dropped   int
	}
}

// NewCollector creates a Collector rooted at <root>/patterns.
func NewCollector(root string) *Collector {
	return &Collector{root: filepath.Join(root, "patterns")}
}

// Statistics is a point-in-time view of collector throughput.
type Statistics struct {
	Collected int
	Dropped   int
}

// GetStatistics returns collection counters since process start.
func (c *Collector) GetStatistics() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Statistics{Collected: c.stats.collected, Dropped: c.stats.dropped}
}

func (c *Collector) nextPatternID(now time.Time) string {
	day := now.Format("20060102")
	if day != c.lastDay {
		c.lastDay = day
		c.sequence = 0
	}
	c.sequence++
	return fmt.Sprintf("pat-%s-%s-%03d", day, now.Format("150405"), c.sequence)
}

func (c *Collector) collect(patternType swarmtypes.PatternType, data, ctx map[string]any) (string, bool) {
	now := time.Now()

	c.mu.Lock()
	patternID := c.nextPatternID(now)
	c.mu.Unlock()

	p := swarmtypes.Pattern{
		PatternID: patternID,
		Type:      patternType,
		TS:        now,
		Data:      data,
		Context:   ctx,
	}

	dir := filepath.Join(c.root, now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.fail(patternType, err)
		return "", false
	}

	payload, err := json.Marshal(p)
	if err != nil {
		c.fail(patternType, err)
		return "", false
	}

	filename := fmt.Sprintf("%s_%s.json", patternType, patternID)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		c.fail(patternType, err)
		return "", false
	}

	c.mu.Lock()
	c.stats.collected++
	c.mu.Unlock()
	return patternID, true
}

func (c *Collector) fail(patternType swarmtypes.PatternType, err error) {
	c.mu.Lock()
	c.stats.dropped++
	c.mu.Unlock()
	log.WithComponent("pattern").Warn().Err(err).Str("type", string(patternType)).Msg("pattern not collected")
}

// CollectTaskCompletion records a completed task observation.
func (c *Collector) CollectTaskCompletion(data map[string]any) (string, bool) {
	return c.collect(swarmtypes.PatternTaskCompletion, data, nil)
}

// CollectErrorOccurrence records an error observation.
func (c *Collector) CollectErrorOccurrence(data map[string]any) (string, bool) {
	return c.collect(swarmtypes.PatternErrorOccurrence, data, nil)
}

// CollectAgentUsage records an agent resource-usage observation.
func (c *Collector) CollectAgentUsage(data map[string]any) (string, bool) {
	return c.collect(swarmtypes.PatternAgentUsage, data, nil)
}

// CollectUserCorrection records a user correction, with the original
// context it corrects attached.
func (c *Collector) CollectUserCorrection(data, ctx map[string]any) (string, bool) {
	return c.collect(swarmtypes.PatternUserCorrection, data, ctx)
}
