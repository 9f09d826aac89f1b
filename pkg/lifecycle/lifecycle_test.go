package lifecycle

import (
	"testing"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	events []swarmtypes.Event
	nextID uint64
}

func (f *fakeSink) InsertEvent(evt swarmtypes.Event) (uint64, error) {
	f.nextID++
	evt.EventID = f.nextID
	f.events = append(f.events, evt)
	return f.nextID, nil
}

func TestSpawnHeartbeatTransitions(t *testing.T) {
	sink := &fakeSink{}
	r := New(sink)

	id, err := r.Spawn("worker", nil)
	require.NoError(t, err)

	agent, err := r.Get(id)
	require.NoError(t, err)
	require.Equal(t, swarmtypes.AgentSpawned, agent.Status)

	require.NoError(t, r.Heartbeat(id))
	agent, _ = r.Get(id)
	require.Equal(t, swarmtypes.AgentActive, agent.Status)

	require.Len(t, sink.events, 2)
	require.Equal(t, swarmtypes.EventAgentSpawned, sink.events[0].Type)
	require.Equal(t, swarmtypes.EventAgentHeartbeat, sink.events[1].Type)
}

func TestTerminatedNeverReenters(t *testing.T) {
	r := New(nil)
	id, _ := r.Spawn("worker", nil)
	require.NoError(t, r.Terminate(id, 100))

	err := r.Heartbeat(id)
	require.Error(t, err)

	err = r.MarkIdle(id)
	require.Error(t, err)
}

func TestHealthScanFindsStaleAgents(t *testing.T) {
	r := New(nil)
	id, _ := r.Spawn("worker", nil)
	require.NoError(t, r.Heartbeat(id))

	stale := r.HealthScan(time.Now().Add(10*time.Second), 5*time.Second)
	require.Contains(t, stale, id)

	fresh := r.HealthScan(time.Now(), 5*time.Second)
	require.NotContains(t, fresh, id)
}
