package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/swarmtypes"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketAgentEvents      = []byte("agent_events")
	bucketAgentRegistry    = []byte("agent_registry")
	bucketSessionMemory    = []byte("session_memory")
	bucketProposalLog      = []byte("proposal_log")
	bucketSemanticKnowledge = []byte("semantic_knowledge")
)

// BoltStore implements Store on top of go.etcd.io/bbolt, one file per
// coordination core instance, one bucket per logical table.
type BoltStore struct {
	mu sync.Mutex
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) a bbolt database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", dataDir, err)
	}
	dbPath := filepath.Join(dataDir, "swarm.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketAgentEvents,
			bucketAgentRegistry,
			bucketSessionMemory,
			bucketProposalLog,
			bucketSemanticKnowledge,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// transaction serializes writers through a process-wide mutex on top of
// bbolt's own single-writer guarantee, mirroring the teacher's pattern of
// wrapping every mutating call in one accessor. The mutex is a plain
// sync.Mutex and is not reentrant: calling transaction (or Vacuum) from
// inside fn deadlocks.
func (s *BoltStore) transaction(fn func(tx *bolt.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(fn)
}

func eventKey(eventID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, eventID)
	return key
}

// InsertEvent assigns a strictly monotonic event_id via bbolt's per-bucket
// NextSequence under the same write transaction that stores the record.
func (s *BoltStore) InsertEvent(evt swarmtypes.Event) (uint64, error) {
	var assigned uint64
	err := s.transaction(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgentEvents)
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("assign event id: %w", err)
		}
		evt.EventID = id
		assigned = id

		data, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		return b.Put(eventKey(id), data)
	})
	if err != nil {
		return 0, err
	}
	return assigned, nil
}

// ListEvents returns up to limit events with event_id > afterEventID, in
// ascending event_id order (bbolt buckets iterate keys in byte order,
// which for a big-endian uint64 key is numeric order).
func (s *BoltStore) ListEvents(afterEventID uint64, limit int) ([]swarmtypes.Event, error) {
	var events []swarmtypes.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgentEvents)
		c := b.Cursor()
		start := eventKey(afterEventID + 1)
		for k, v := c.Seek(start); k != nil; k, v = c.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			var evt swarmtypes.Event
			if err := json.Unmarshal(v, &evt); err != nil {
				return fmt.Errorf("unmarshal event: %w", err)
			}
			events = append(events, evt)
		}
		return nil
	})
	return events, err
}

// CleanupOldEvents deletes events older than olderThanDays and returns how
// many were removed.
func (s *BoltStore) CleanupOldEvents(olderThanDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	removed := 0
	err := s.transaction(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgentEvents)
		var toDelete [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var evt swarmtypes.Event
			if err := json.Unmarshal(v, &evt); err != nil {
				return err
			}
			if evt.TS.Before(cutoff) {
				keyCopy := make([]byte, len(k))
				copy(keyCopy, k)
				toDelete = append(toDelete, keyCopy)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(toDelete)
		return nil
	})
	return removed, err
}

// RegisterAgent upserts an agent record, keyed by agent id.
func (s *BoltStore) RegisterAgent(agent swarmtypes.Agent) error {
	return s.transaction(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgentRegistry)
		data, err := json.Marshal(agent)
		if err != nil {
			return err
		}
		return b.Put([]byte(agent.ID), data)
	})
}

// UpdateAgentStatus updates only the status field of an existing record.
func (s *BoltStore) UpdateAgentStatus(agentID string, status swarmtypes.AgentStatus) error {
	return s.transaction(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgentRegistry)
		data := b.Get([]byte(agentID))
		if data == nil {
			return fmt.Errorf("agent %s not registered", agentID)
		}
		var agent swarmtypes.Agent
		if err := json.Unmarshal(data, &agent); err != nil {
			return err
		}
		agent.Status = status
		updated, err := json.Marshal(agent)
		if err != nil {
			return err
		}
		return b.Put([]byte(agentID), updated)
	})
}

// GetAgent returns the registered record for agentID.
func (s *BoltStore) GetAgent(agentID string) (swarmtypes.Agent, error) {
	var agent swarmtypes.Agent
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgentRegistry)
		data := b.Get([]byte(agentID))
		if data == nil {
			return fmt.Errorf("agent %s not registered", agentID)
		}
		return json.Unmarshal(data, &agent)
	})
	return agent, err
}

// ListAgents returns every registered agent.
func (s *BoltStore) ListAgents() ([]swarmtypes.Agent, error) {
	var agents []swarmtypes.Agent
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAgentRegistry)
		return b.ForEach(func(k, v []byte) error {
			var agent swarmtypes.Agent
			if err := json.Unmarshal(v, &agent); err != nil {
				return err
			}
			agents = append(agents, agent)
			return nil
		})
	})
	return agents, err
}

// PersistSessionState stores an opaque state blob keyed by sessionID.
func (s *BoltStore) PersistSessionState(sessionID string, state map[string]any) error {
	return s.transaction(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionMemory)
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return b.Put([]byte(sessionID), data)
	})
}

// LoadSessionState returns the blob previously stored for sessionID.
func (s *BoltStore) LoadSessionState(sessionID string) (map[string]any, error) {
	var state map[string]any
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionMemory)
		data := b.Get([]byte(sessionID))
		if data == nil {
			return fmt.Errorf("no session state for %s", sessionID)
		}
		return json.Unmarshal(data, &state)
	})
	return state, err
}

// AppendProposalLog durably records a resolved consensus decision, keyed
// by proposal id.
func (s *BoltStore) AppendProposalLog(result swarmtypes.ConsensusResult) error {
	return s.transaction(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProposalLog)
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		return b.Put([]byte(result.ProposalID), data)
	})
}

// ListProposalLog returns up to limit recorded decisions.
func (s *BoltStore) ListProposalLog(limit int) ([]swarmtypes.ConsensusResult, error) {
	var results []swarmtypes.ConsensusResult
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProposalLog)
		return b.ForEach(func(k, v []byte) error {
			if limit > 0 && len(results) >= limit {
				return nil
			}
			var result swarmtypes.ConsensusResult
			if err := json.Unmarshal(v, &result); err != nil {
				return err
			}
			results = append(results, result)
			return nil
		})
	})
	return results, err
}

// PutSemanticKnowledge stores an arbitrary JSON-marshalable fact.
func (s *BoltStore) PutSemanticKnowledge(key string, value any) error {
	return s.transaction(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSemanticKnowledge)
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// GetSemanticKnowledge returns the fact stored under key, if any.
func (s *BoltStore) GetSemanticKnowledge(key string) (any, bool, error) {
	var value any
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSemanticKnowledge)
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &value)
	})
	return value, found, err
}

// Vacuum reclaims free space by copying the database into a fresh file and
// swapping it into place.
func (s *BoltStore) Vacuum() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.db.Path()
	tmpPath := path + ".vacuum"

	tmp, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("open vacuum target: %w", err)
	}

	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			return tmp.Update(func(ttx *bolt.Tx) error {
				nb, err := ttx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return b.ForEach(func(k, v []byte) error {
					return nb.Put(k, v)
				})
			})
		})
	})
	tmp.Close()
	if err != nil {
		return fmt.Errorf("vacuum copy: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close old database: %w", err)
	}
	if err := renameFile(tmpPath, path); err != nil {
		return fmt.Errorf("swap vacuumed database: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("reopen vacuumed database: %w", err)
	}
	s.db = db
	return nil
}
