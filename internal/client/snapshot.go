package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Snapshot is the persisted copy of the client's in-flight state. It is
// what lets a session that reloaded mid-request retry with the same
// idempotency key instead of minting a duplicate.
type Snapshot struct {
	Amount             float64     `json:"amount"`
	Destination        string      `json:"destination"`
	Confirm            bool        `json:"confirm"`
	LastWithdrawal     *Withdrawal `json:"lastWithdrawal,omitempty"`
	LastIdempotencyKey string      `json:"lastIdempotencyKey,omitempty"`
	LastRequestAt      time.Time   `json:"lastRequestAt"`
}

// SnapshotStore persists the single snapshot slot. Only the most recent
// attempt is resumable.
type SnapshotStore interface {
	// Get returns (nil, nil) when no snapshot exists. A corrupt snapshot
	// is treated as absent, never as an error that blocks the caller.
	Get() (*Snapshot, error)
	Set(*Snapshot) error
	Remove() error
}

// FileSnapshotStore keeps the slot in a JSON file, replaced atomically
// on every write.
type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

var _ SnapshotStore = (*FileSnapshotStore)(nil)

func (s *FileSnapshotStore) Get() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	snapshot := new(Snapshot)
	if err = json.Unmarshal(data, snapshot); err != nil {
		// Corrupt slot: fail open to "no resumable state".
		return nil, nil
	}

	return snapshot, nil
}

func (s *FileSnapshotStore) Set(snapshot *Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

func (s *FileSnapshotStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemorySnapshotStore holds the slot in memory.
type MemorySnapshotStore struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

var _ SnapshotStore = (*MemorySnapshotStore)(nil)

func (s *MemorySnapshotStore) Get() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return nil, nil
	}
	snapshot := *s.snapshot

	return &snapshot, nil
}

func (s *MemorySnapshotStore) Set(snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snapshot
	s.snapshot = &copied

	return nil
}

func (s *MemorySnapshotStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = nil

	return nil
}
