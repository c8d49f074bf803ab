package state

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"learnchain/storage"
)

// ErrNilDatabase is returned when a manager is constructed without storage.
var ErrNilDatabase = errors.New("state: database not configured")

// Manager stages writes for a single state transition over a durable
// database. Reads observe staged writes first. Nothing reaches the database
// until Commit, which flushes every staged write in one atomic batch.
//
// A Manager is not safe for concurrent use; callers serialize transitions.
type Manager struct {
	db     storage.Database
	staged map[string][]byte
}

// NewManager creates a state manager operating on db.
func NewManager(db storage.Database) (*Manager, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}
	return &Manager{db: db, staged: make(map[string][]byte)}, nil
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if value, ok := m.staged[string(key)]; ok {
		return value, true, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) put(key, value []byte) {
	m.staged[string(key)] = append([]byte(nil), value...)
}

func (m *Manager) putRLP(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(key, encoded)
	return nil
}

func (m *Manager) getRLP(key []byte, out interface{}) (bool, error) {
	data, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode: %w", err)
	}
	return true, nil
}

// Commit flushes staged writes to the database in a single batch and resets
// the manager. On error nothing is written and the staged writes are kept.
func (m *Manager) Commit() error {
	if len(m.staged) == 0 {
		return nil
	}
	keys := make([][]byte, 0, len(m.staged))
	for key := range m.staged {
		keys = append(keys, []byte(key))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	batch := m.db.NewBatch()
	for _, key := range keys {
		batch.Put(key, m.staged[string(key)])
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.staged = make(map[string][]byte)
	return nil
}

// Discard drops every staged write.
func (m *Manager) Discard() {
	m.staged = make(map[string][]byte)
}
