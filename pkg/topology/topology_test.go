package topology

import (
	"testing"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/stretchr/testify/require"
)

func addAll(m *Manager, ids ...string) {
	for _, id := range ids {
		m.AddMember(id)
	}
}

func TestMeshNeighborsAreAllOtherMembers(t *testing.T) {
	m := New(swarmtypes.TopologyMesh)
	addAll(m, "a", "b", "c")

	require.ElementsMatch(t, []string{"b", "c"}, m.Neighbors("a"))
	require.ElementsMatch(t, []string{"a", "c"}, m.Neighbors("b"))
}

func TestStarHubAndSpokes(t *testing.T) {
	m := New(swarmtypes.TopologyStar)
	addAll(m, "hub", "s1", "s2", "s3")

	require.ElementsMatch(t, []string{"s1", "s2", "s3"}, m.Neighbors("hub"))
	require.ElementsMatch(t, []string{"hub"}, m.Neighbors("s1"))
}

func TestRingSuccessorWrapsAround(t *testing.T) {
	m := New(swarmtypes.TopologyRing)
	addAll(m, "a", "b", "c")

	require.Equal(t, []string{"b"}, m.Neighbors("a"))
	require.Equal(t, []string{"c"}, m.Neighbors("b"))
	require.Equal(t, []string{"a"}, m.Neighbors("c"))
}

func TestHierarchicalParentChildLinks(t *testing.T) {
	m := New(swarmtypes.TopologyHierarchical)
	addAll(m, "root", "l", "r", "ll", "lr")

	require.ElementsMatch(t, []string{"l", "r"}, m.Neighbors("root"))
	require.ElementsMatch(t, []string{"root", "ll", "lr"}, m.Neighbors("l"))
	require.ElementsMatch(t, []string{"root"}, m.Neighbors("r"))
}

func TestAdaptivePicksMeshThenStarThenHierarchical(t *testing.T) {
	m := New(swarmtypes.TopologyAdaptive)
	addAll(m, "a", "b", "c")
	require.Equal(t, swarmtypes.TopologyMesh, m.GetInfo().Topology)

	addAll(m, "d", "e")
	require.Equal(t, swarmtypes.TopologyStar, m.GetInfo().Topology)

	addAll(m, "f", "g", "h")
	require.Equal(t, swarmtypes.TopologyHierarchical, m.GetInfo().Topology)
}

func TestBroadcastDeliversToNeighborsMinusExclude(t *testing.T) {
	m := New(swarmtypes.TopologyMesh)
	addAll(m, "a", "b", "c", "d")

	mbB, _ := m.Mailbox("b")
	mbC, _ := m.Mailbox("c")
	mbD, _ := m.Mailbox("d")

	delivered, err := m.Broadcast("a", &swarmtypes.BroadcastMessage{Type: swarmtypes.MessageHeartbeat}, map[string]struct{}{"c": {}})
	require.NoError(t, err)
	require.Equal(t, 2, delivered)

	require.Len(t, mbB, 1)
	require.Len(t, mbC, 0)
	require.Len(t, mbD, 1)
}

func TestBroadcastFromUnknownSenderFails(t *testing.T) {
	m := New(swarmtypes.TopologyMesh)
	addAll(m, "a", "b")

	_, err := m.Broadcast("ghost", &swarmtypes.BroadcastMessage{}, nil)
	require.Error(t, err)
}

func TestRemoveMemberDropsFromNeighborsAndClosesMailbox(t *testing.T) {
	m := New(swarmtypes.TopologyMesh)
	addAll(m, "a", "b", "c")

	m.RemoveMember("b")
	require.ElementsMatch(t, []string{"c"}, m.Neighbors("a"))

	_, ok := m.Mailbox("b")
	require.False(t, ok)
}
