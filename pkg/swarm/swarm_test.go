package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/config"
	"github.com/cuemby/moai-flow-core/pkg/storage"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	cfg.Topology = swarmtypes.TopologyMesh
	cfg.MaxAgents = 10

	coord, err := New(cfg, store)
	require.NoError(t, err)
	return coord
}

func TestRegisterAgentJoinsTopology(t *testing.T) {
	c := newTestCoordinator(t)
	id1, err := c.RegisterAgent("worker", nil)
	require.NoError(t, err)
	id2, err := c.RegisterAgent("worker", nil)
	require.NoError(t, err)

	info := c.GetTopologyInfo()
	require.ElementsMatch(t, []string{id1, id2}, info.Members)
}

func TestRegisterAgentRejectsOverCapacity(t *testing.T) {
	c := newTestCoordinator(t)
	c.cfg.MaxAgents = 1
	_, err := c.RegisterAgent("worker", nil)
	require.NoError(t, err)
	_, err = c.RegisterAgent("worker", nil)
	require.Error(t, err)
}

func TestDeregisterAgentLeavesTopology(t *testing.T) {
	c := newTestCoordinator(t)
	id, err := c.RegisterAgent("worker", nil)
	require.NoError(t, err)
	require.NoError(t, c.DeregisterAgent(id, 10))

	info := c.GetTopologyInfo()
	require.NotContains(t, info.Members, id)
}

func TestRequestConsensusRoundTrip(t *testing.T) {
	c := newTestCoordinator(t)
	a, _ := c.RegisterAgent("voter", nil)
	b, _ := c.RegisterAgent("voter", nil)

	proposal := swarmtypes.Proposal{
		ProposalID:   "prop-1",
		Algorithm:    "quorum",
		Participants: []string{a, b},
		TimeoutMS:    1000,
	}

	resultCh := make(chan swarmtypes.ConsensusResult, 1)
	go func() {
		res, err := c.RequestConsensus(context.Background(), proposal)
		require.NoError(t, err)
		resultCh <- res
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.RecordVote(swarmtypes.Vote{ProposalID: "prop-1", AgentID: a, Choice: swarmtypes.VoteFor}))
	require.NoError(t, c.RecordVote(swarmtypes.Vote{ProposalID: "prop-1", AgentID: b, Choice: swarmtypes.VoteFor}))

	res := <-resultCh
	require.Equal(t, swarmtypes.DecisionApproved, res.Decision)
}

func TestMetricsSourceMethods(t *testing.T) {
	c := newTestCoordinator(t)
	id, _ := c.RegisterAgent("worker", nil)
	require.NoError(t, c.AllocateTokens(id, 50))
	require.NoError(t, c.ConsumeTokens(id, 10))

	counts := c.AgentCountsByStatus()
	require.Equal(t, 1, counts[swarmtypes.AgentSpawned])
	require.Equal(t, 1, c.TopologyMemberCount())

	allocated, consumed := c.TokenBudgetSnapshot()
	require.Equal(t, 50, allocated)
	require.Equal(t, 10, consumed)
}
