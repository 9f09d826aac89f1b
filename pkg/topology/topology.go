// Package topology implements the Topology Manager: it maintains the
// communication graph between agents and routes broadcasts according to
// the active topology kind (spec.md §4.5).
//
// Delivery itself is modeled the way the teacher's event broker
// (events.Broker) fans a published event out to subscriber channels: each
// member gets a buffered mailbox, and a broadcast is a best-effort,
// non-blocking send to every recipient's mailbox.
package topology

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/errs"
	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
)

const mailboxBuffer = 64

// Manager maintains the membership set, the derived edge set, and the
// per-member mailboxes used for broadcast delivery.
type Manager struct {
	mu       sync.RWMutex
	kind     swarmtypes.TopologyKind
	order    []string // insertion order; root/hub/ring-successor all derive from this
	members  map[string]struct{}
	mailbox  map[string]chan *swarmtypes.BroadcastMessage
}

// New creates a Topology Manager fixed at the given kind for the lifetime
// of the instance (spec.md §4.12: topology kind is immutable per
// coordinator instance).
func New(kind swarmtypes.TopologyKind) *Manager {
	return &Manager{
		kind:    kind,
		members: make(map[string]struct{}),
		mailbox: make(map[string]chan *swarmtypes.BroadcastMessage),
	}
}

// AddMember registers agentID as a topology participant and opens its mailbox.
func (m *Manager) AddMember(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[agentID]; ok {
		return
	}
	m.members[agentID] = struct{}{}
	m.order = append(m.order, agentID)
	m.mailbox[agentID] = make(chan *swarmtypes.BroadcastMessage, mailboxBuffer)
}

// RemoveMember drops agentID from the topology and closes its mailbox.
func (m *Manager) RemoveMember(agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[agentID]; !ok {
		return
	}
	delete(m.members, agentID)
	if ch, ok := m.mailbox[agentID]; ok {
		close(ch)
		delete(m.mailbox, agentID)
	}
	for i, id := range m.order {
		if id == agentID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Mailbox returns the receive side of agentID's mailbox channel, or false
// if agentID is not a member.
func (m *Manager) Mailbox(agentID string) (<-chan *swarmtypes.BroadcastMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.mailbox[agentID]
	return ch, ok
}

// effectiveKind resolves "adaptive" to a concrete sub-topology based on the
// current member count. Callers must hold m.mu.
func (m *Manager) effectiveKind() swarmtypes.TopologyKind {
	if m.kind != swarmtypes.TopologyAdaptive {
		return m.kind
	}
	switch n := len(m.order); {
	case n <= 3:
		return swarmtypes.TopologyMesh
	case n <= 7:
		return swarmtypes.TopologyStar
	default:
		return swarmtypes.TopologyHierarchical
	}
}

// Neighbors returns the neighbor set of agentID under the active topology.
func (m *Manager) Neighbors(agentID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.neighborsLocked(agentID)
}

func (m *Manager) neighborsLocked(agentID string) []string {
	if _, ok := m.members[agentID]; !ok {
		return nil
	}
	switch m.effectiveKind() {
	case swarmtypes.TopologyMesh:
		return m.meshNeighbors(agentID)
	case swarmtypes.TopologyStar:
		return m.starNeighbors(agentID)
	case swarmtypes.TopologyRing:
		return m.ringNeighbors(agentID)
	case swarmtypes.TopologyHierarchical:
		return m.hierarchicalNeighbors(agentID)
	default:
		return nil
	}
}

func (m *Manager) meshNeighbors(agentID string) []string {
	var out []string
	for _, id := range m.order {
		if id != agentID {
			out = append(out, id)
		}
	}
	return out
}

// hub is the first member added; star routes non-hub broadcasts to the hub
// and hub broadcasts to every spoke.
func (m *Manager) hub() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[0]
}

func (m *Manager) starNeighbors(agentID string) []string {
	hub := m.hub()
	if agentID == hub {
		var spokes []string
		for _, id := range m.order {
			if id != hub {
				spokes = append(spokes, id)
			}
		}
		return spokes
	}
	return []string{hub}
}

func (m *Manager) ringNeighbors(agentID string) []string {
	n := len(m.order)
	for i, id := range m.order {
		if id == agentID {
			successor := m.order[(i+1)%n]
			return []string{successor}
		}
	}
	return nil
}

// root is the first member added; hierarchicalNeighbors builds a simple
// balanced binary tree over insertion order for everyone else.
func (m *Manager) root() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[0]
}

func (m *Manager) hierarchicalNeighbors(agentID string) []string {
	root := m.root()
	if agentID == root {
		// A broadcast from the root reaches everyone.
		var all []string
		for _, id := range m.order {
			if id != root {
				all = append(all, id)
			}
		}
		return all
	}

	idx := -1
	for i, id := range m.order {
		if id == agentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	var out []string
	// parent: binary-heap-style index arithmetic over m.order.
	if idx > 0 {
		parentIdx := (idx - 1) / 2
		out = append(out, m.order[parentIdx])
	}
	// children
	left, right := 2*idx+1, 2*idx+2
	if left < len(m.order) {
		out = append(out, m.order[left])
	}
	if right < len(m.order) {
		out = append(out, m.order[right])
	}
	return out
}

// Broadcast delivers message to from's neighbor set minus exclude, and
// returns the count of recipients the message was handed to. Delivery is
// best-effort: a recipient whose mailbox is full is skipped, the same way
// the teacher's event broker skips a full subscriber channel.
func (m *Manager) Broadcast(from string, message *swarmtypes.BroadcastMessage, exclude map[string]struct{}) (int, error) {
	m.mu.RLock()
	if _, ok := m.members[from]; !ok {
		m.mu.RUnlock()
		return 0, fmt.Errorf("sender %s is not a topology member: %w", from, errs.InvalidArgument)
	}
	recipients := m.neighborsLocked(from)
	mailboxes := make(map[string]chan *swarmtypes.BroadcastMessage, len(recipients))
	for _, id := range recipients {
		if _, skip := exclude[id]; skip {
			continue
		}
		if ch, ok := m.mailbox[id]; ok {
			mailboxes[id] = ch
		}
	}
	m.mu.RUnlock()

	if message.TS.IsZero() {
		message.TS = time.Now()
	}
	message.From = from

	delivered := 0
	for _, ch := range mailboxes {
		select {
		case ch <- message:
			delivered++
		default:
			// mailbox full; best-effort delivery, skip.
		}
	}
	return delivered, nil
}

// GetInfo returns a snapshot of the topology's current shape.
func (m *Manager) GetInfo() swarmtypes.TopologyInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := make([]string, len(m.order))
	copy(members, m.order)

	var edges [][2]string
	seen := make(map[[2]string]struct{})
	for _, id := range m.order {
		for _, n := range m.neighborsLocked(id) {
			key := [2]string{id, n}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			edges = append(edges, key)
		}
	}

	return swarmtypes.TopologyInfo{
		Topology: m.effectiveKind(),
		Members:  members,
		Edges:    edges,
	}
}

// Kind returns the topology kind the manager was constructed with
// (possibly "adaptive", which GetInfo resolves to a concrete sub-kind).
func (m *Manager) Kind() swarmtypes.TopologyKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.kind
}
