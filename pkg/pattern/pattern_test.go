package pattern

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/stretchr/testify/require"
)

func TestCollectTaskCompletionWritesShardedFile(t *testing.T) {
	root := t.TempDir()
	c := NewCollector(root)

	id, ok := c.CollectTaskCompletion(map[string]any{"task_id": "t1", "status": "done"})
	require.True(t, ok)
	require.Contains(t, id, "pat-")

	now := time.Now()
	dir := filepath.Join(root, "patterns", now.Format("2006"), now.Format("01"), now.Format("02"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	var p swarmtypes.Pattern
	require.NoError(t, json.Unmarshal(data, &p))
	require.Equal(t, swarmtypes.PatternTaskCompletion, p.Type)
}

func TestPatternIDsAreSequentialWithinDay(t *testing.T) {
	c := NewCollector(t.TempDir())
	id1, _ := c.CollectAgentUsage(map[string]any{"agent_id": "a"})
	id2, _ := c.CollectAgentUsage(map[string]any{"agent_id": "b"})
	require.NotEqual(t, id1, id2)
}

func TestSameSecondPatternsDoNotCollideOnDisk(t *testing.T) {
	root := t.TempDir()
	c := NewCollector(root)

	id1, ok1 := c.CollectAgentUsage(map[string]any{"agent_id": "a"})
	id2, ok2 := c.CollectAgentUsage(map[string]any{"agent_id": "b"})
	require.True(t, ok1)
	require.True(t, ok2)
	require.NotEqual(t, id1, id2)

	now := time.Now()
	dir := filepath.Join(root, "patterns", now.Format("2006"), now.Format("01"), now.Format("02"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "two patterns collected within the same second must land in two distinct files")
}

func TestCollectDoesNotPropagateStorageErrors(t *testing.T) {
	root := t.TempDir()
	// Make the patterns root a file, not a directory, so MkdirAll fails.
	require.NoError(t, os.WriteFile(filepath.Join(root, "patterns"), []byte("x"), 0644))

	c := NewCollector(root)
	_, ok := c.CollectErrorOccurrence(map[string]any{"error": "boom"})
	require.False(t, ok)

	stats := c.GetStatistics()
	require.Equal(t, 1, stats.Dropped)
	require.Equal(t, 0, stats.Collected)
}

func TestUserCorrectionCarriesContext(t *testing.T) {
	root := t.TempDir()
	c := NewCollector(root)
	id, ok := c.CollectUserCorrection(map[string]any{"correction": "use mesh"}, map[string]any{"original": "star"})
	require.True(t, ok)
	require.NotEmpty(t, id)
}
