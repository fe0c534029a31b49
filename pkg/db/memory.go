package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxMemoryRuns bounds the runs kept by MemoryStore; the oldest are dropped
const maxMemoryRuns = 500

// MemoryStore keeps processed sets, cursors and runs for the lifetime of the
// process. A restart forgets everything.
type MemoryStore struct {
	mu        sync.RWMutex
	processed map[ItemKind]map[string]string
	cursors   map[string]uint64
	runs      map[uuid.UUID]*BridgeRun
	runOrder  []uuid.UUID
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		processed: make(map[ItemKind]map[string]string),
		cursors:   make(map[string]uint64),
		runs:      make(map[uuid.UUID]*BridgeRun),
	}
}

// IsProcessed reports whether key has been recorded under kind
func (m *MemoryStore) IsProcessed(_ context.Context, kind ItemKind, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.processed[kind][key]
	return ok, nil
}

// MarkProcessed records key under kind and returns false when it was already present
func (m *MemoryStore) MarkProcessed(_ context.Context, kind ItemKind, key, note string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.processed[kind]
	if !ok {
		set = make(map[string]string)
		m.processed[kind] = set
	}
	if _, exists := set[key]; exists {
		return false, nil
	}
	set[key] = note
	return true, nil
}

// GetCursor returns the last processed block of chain
func (m *MemoryStore) GetCursor(_ context.Context, chain string) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	block, ok := m.cursors[chain]
	return block, ok, nil
}

// SetCursor stores the last processed block of chain
func (m *MemoryStore) SetCursor(_ context.Context, chain string, block uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[chain] = block
	return nil
}

// CreateRun inserts a new run record
func (m *MemoryStore) CreateRun(_ context.Context, run *BridgeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	m.runs[cp.ID] = &cp
	m.runOrder = append(m.runOrder, cp.ID)
	if len(m.runOrder) > maxMemoryRuns {
		delete(m.runs, m.runOrder[0])
		m.runOrder = m.runOrder[1:]
	}
	return nil
}

// UpdateRun overwrites a stored run
func (m *MemoryStore) UpdateRun(_ context.Context, run *BridgeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.runs[run.ID]
	if !ok {
		return ErrRunNotFound
	}
	cp := *run
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	m.runs[run.ID] = &cp
	return nil
}

// GetRun retrieves a run by id
func (m *MemoryStore) GetRun(_ context.Context, id uuid.UUID) (*BridgeRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

// ListRuns returns the most recent runs, newest first
func (m *MemoryStore) ListRuns(_ context.Context, limit int) ([]*BridgeRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]*BridgeRun, 0, len(m.runs))
	for i := len(m.runOrder) - 1; i >= 0; i-- {
		cp := *m.runs[m.runOrder[i]]
		runs = append(runs, &cp)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
