package metrics

import (
	"testing"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	byStatus  map[swarmtypes.AgentStatus]int
	members   int
	allocated int
	consumed  int
}

func (f *fakeSource) AgentCountsByStatus() map[swarmtypes.AgentStatus]int { return f.byStatus }
func (f *fakeSource) TopologyMemberCount() int                           { return f.members }
func (f *fakeSource) TokenBudgetSnapshot() (int, int)                    { return f.allocated, f.consumed }

func TestCollectorCollectsIntoSnapshot(t *testing.T) {
	src := &fakeSource{
		byStatus:  map[swarmtypes.AgentStatus]int{swarmtypes.AgentActive: 3},
		members:   3,
		allocated: 100,
		consumed:  40,
	}
	c := NewCollector(src, time.Hour)
	c.Start()
	defer c.Stop()

	require.Eventually(t, func() bool {
		return c.Snapshot().TopologyMembers == 3
	}, time.Second, 10*time.Millisecond)

	snap := c.Snapshot()
	require.Equal(t, 100, snap.TokenAllocated)
	require.Equal(t, 40, snap.TokenConsumed)
	require.Equal(t, 3, snap.AgentsByStatus[swarmtypes.AgentActive])
}
