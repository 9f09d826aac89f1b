// Package raftfsm wires a small in-process hashicorp/raft cluster that
// replicates consensus votes across simulated swarm participants. It plays
// the same role the teacher's WarrenFSM plays for cluster resources, but
// the log entries it applies are votes on a proposal rather than node or
// service records, and the transport is entirely in-memory (spec.md §4.9).
package raftfsm

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/raft"
)

// VoteEntry is one replicated log entry: an agent's vote on a proposal.
type VoteEntry struct {
	ProposalID string  `json:"proposal_id"`
	AgentID    string  `json:"agent_id"`
	Choice     string  `json:"choice"`
	Weight     float64 `json:"weight"`
}

// FSM replays committed VoteEntry log entries into an in-memory, ordered
// log. Apply/Snapshot/Restore follow the same shape as the teacher's
// WarrenFSM: Apply decodes and appends under lock, Snapshot/Restore
// round-trip the whole log as JSON.
type FSM struct {
	mu  sync.RWMutex
	log []VoteEntry
}

// NewFSM creates an empty replicated vote log.
func NewFSM() *FSM {
	return &FSM{}
}

// Apply decodes a committed raft log entry and appends it to the replicated log.
func (f *FSM) Apply(l *raft.Log) interface{} {
	var entry VoteEntry
	if err := json.Unmarshal(l.Data, &entry); err != nil {
		return fmt.Errorf("decode vote entry: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.log {
		if existing.ProposalID == entry.ProposalID && existing.AgentID == entry.AgentID {
			return fmt.Errorf("duplicate vote from %s on %s", entry.AgentID, entry.ProposalID)
		}
	}
	f.log = append(f.log, entry)
	return nil
}

// Entries returns a copy of the committed vote log for a given proposal.
func (f *FSM) Entries(proposalID string) []VoteEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []VoteEntry
	for _, e := range f.log {
		if e.ProposalID == proposalID {
			out = append(out, e)
		}
	}
	return out
}

// Snapshot captures the whole replicated log as a point-in-time snapshot.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entries := make([]VoteEntry, len(f.log))
	copy(entries, f.log)
	return &snapshot{entries: entries}, nil
}

// Restore replaces the in-memory log with the contents of a snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	var entries []VoteEntry
	if err := json.NewDecoder(rc).Decode(&entries); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = entries
	return nil
}

type snapshot struct {
	entries []VoteEntry
}

func (s *snapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s.entries); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

func (s *snapshot) Release() {}

// Cluster is a single-process, all in-memory raft cluster: every member's
// transport, log store, stable store, and snapshot store live in RAM, and
// members are wired together via raft.InmemTransport.Connect rather than a
// socket. It gives request_consensus a genuine leader election and quorum
// commit without touching disk or the network (spec.md Non-goals: no
// persistent raft log across restarts).
type Cluster struct {
	mu      sync.Mutex
	nodes   map[string]*raft.Raft
	fsms    map[string]*FSM
	leaderID string
}

// NewCluster bootstraps a raft cluster with one node per member id. The
// first member becomes the initial leader candidate.
func NewCluster(memberIDs []string) (*Cluster, error) {
	c := &Cluster{
		nodes: make(map[string]*raft.Raft, len(memberIDs)),
		fsms:  make(map[string]*FSM, len(memberIDs)),
	}

	transports := make(map[string]*raft.InmemTransport, len(memberIDs))
	var servers []raft.Server
	for _, id := range memberIDs {
		_, transport := raft.NewInmemTransport(raft.ServerAddress(id))
		transports[id] = transport
		servers = append(servers, raft.Server{
			ID:      raft.ServerID(id),
			Address: transport.LocalAddr(),
		})
	}
	for _, id := range memberIDs {
		for _, other := range memberIDs {
			if id != other {
				transports[id].Connect(transports[other].LocalAddr(), transports[other])
			}
		}
	}

	for _, id := range memberIDs {
		cfg := raft.DefaultConfig()
		cfg.LocalID = raft.ServerID(id)
		cfg.HeartbeatTimeout = 100 * time.Millisecond
		cfg.ElectionTimeout = 100 * time.Millisecond
		cfg.LeaderLeaseTimeout = 50 * time.Millisecond
		cfg.CommitTimeout = 10 * time.Millisecond

		fsm := NewFSM()
		logStore := raft.NewInmemStore()
		stableStore := raft.NewInmemStore()
		snapStore := raft.NewInmemSnapshotStore()

		node, err := raft.NewRaft(cfg, fsm, logStore, stableStore, snapStore, transports[id])
		if err != nil {
			return nil, fmt.Errorf("start raft node %s: %w", id, err)
		}
		c.nodes[id] = node
		c.fsms[id] = fsm
	}

	bootstrap := c.nodes[memberIDs[0]].BootstrapCluster(raft.Configuration{Servers: servers})
	if err := bootstrap.Error(); err != nil {
		return nil, fmt.Errorf("bootstrap raft cluster: %w", err)
	}
	return c, nil
}

// WaitForLeader blocks until a leader is elected or the timeout elapses.
func (c *Cluster) WaitForLeader(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for id, node := range c.nodes {
			if node.State() == raft.Leader {
				c.mu.Lock()
				c.leaderID = id
				c.mu.Unlock()
				return id, nil
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return "", fmt.Errorf("no raft leader elected within %s", timeout)
}

// Propose replicates entry through the current leader and blocks until it
// is committed to a majority of the cluster.
func (c *Cluster) Propose(entry VoteEntry, timeout time.Duration) error {
	c.mu.Lock()
	leaderID := c.leaderID
	c.mu.Unlock()
	if leaderID == "" {
		id, err := c.WaitForLeader(timeout)
		if err != nil {
			return err
		}
		leaderID = id
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode vote entry: %w", err)
	}
	future := c.nodes[leaderID].Apply(data, timeout)
	if err := future.Error(); err != nil {
		return fmt.Errorf("apply vote entry: %w", err)
	}
	if resp := future.Response(); resp != nil {
		if err, ok := resp.(error); ok {
			return err
		}
	}
	return nil
}

// CommittedEntries returns the replicated vote log for a proposal as seen
// by any node (all nodes converge to the same committed log).
func (c *Cluster) CommittedEntries(proposalID string) []VoteEntry {
	c.mu.Lock()
	leaderID := c.leaderID
	c.mu.Unlock()
	for _, id := range []string{leaderID} {
		if fsm, ok := c.fsms[id]; ok {
			return fsm.Entries(proposalID)
		}
	}
	for _, fsm := range c.fsms {
		return fsm.Entries(proposalID)
	}
	return nil
}

// Info returns the current leader id and the leader raft node's Stats()
// map (which carries "term" and "commit_index" among other keys), so
// callers can attach real raft diagnostics to a consensus result instead
// of reconstructing them from the committed log.
func (c *Cluster) Info() (leaderID string, stats map[string]string) {
	c.mu.Lock()
	leaderID = c.leaderID
	c.mu.Unlock()
	if node, ok := c.nodes[leaderID]; ok {
		return leaderID, node.Stats()
	}
	return leaderID, nil
}

// Shutdown stops every node in the cluster.
func (c *Cluster) Shutdown() {
	for _, node := range c.nodes {
		_ = node.Shutdown().Error()
	}
}
