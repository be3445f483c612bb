package workflow

import (
	"context"
	"fmt"
	"sync"
)

// CheckpointStore persists run checkpoints between Start and Resume.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	// Load returns ErrRunNotFound when no checkpoint exists for runID.
	Load(ctx context.Context, runID string) (Checkpoint, error)
	// Resolve saves cp only while the stored checkpoint is still suspended.
	// It returns ErrNotSuspended when another resume settled the run first.
	Resolve(ctx context.Context, cp Checkpoint) error
	// Delete returns ErrRunNotFound when no checkpoint exists for runID.
	Delete(ctx context.Context, runID string) error
}

// MemoryStore is a process-local CheckpointStore.
type MemoryStore struct {
	mu  sync.RWMutex
	cps map[string]Checkpoint
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cps: make(map[string]Checkpoint)}
}

func (m *MemoryStore) Save(_ context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cps[cp.RunID] = cp
	return nil
}

func (m *MemoryStore) Resolve(_ context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.cps[cp.RunID]
	if !ok {
		return ErrRunNotFound
	}
	if current.Status != StatusSuspended {
		return fmt.Errorf("%w: %s is %s", ErrNotSuspended, cp.RunID, current.Status)
	}
	m.cps[cp.RunID] = cp
	return nil
}

func (m *MemoryStore) Load(_ context.Context, runID string) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.cps[runID]
	if !ok {
		return Checkpoint{}, ErrRunNotFound
	}
	return cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cps[runID]; !ok {
		return ErrRunNotFound
	}
	delete(m.cps, runID)
	return nil
}
