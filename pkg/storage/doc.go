/*
Package storage is the coordination core's Event Store: an append-only,
bbolt-backed log of agent lifecycle and consensus events, plus the agent
registry, session memory, proposal log, and semantic knowledge tables that
accumulate over a long-running swarm session.

Every mutating call goes through a single transaction helper that pairs
bbolt's own single-writer guarantee with a process-wide mutex, the same
shape the teacher's BoltStore uses for cluster state:

	store, _ := storage.NewBoltStore(cfg.StorageRoot)
	id, _ := store.InsertEvent(swarmtypes.Event{Type: swarmtypes.EventAgentSpawned, AgentID: a.ID})
*/
package storage
