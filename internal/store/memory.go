package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store with a mutex-guarded map. It exists so tests
// (and local experiments) can run against the same get/merge/scan contract
// without a database file.
type MemoryStore struct {
	mu       sync.RWMutex
	machines map[string]*MachineRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{machines: make(map[string]*MachineRecord)}
}

func (m *MemoryStore) MergeMachine(_ context.Context, id string, doc map[string]any) error {
	osLabel, lastSeen, info, err := splitDoc(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.machines[id]
	if !ok {
		rec = &MachineRecord{ID: id, Info: make(map[string]any)}
		m.machines[id] = rec
	}
	rec.OS = osLabel
	rec.LastSeen = lastSeen
	for k, v := range info {
		rec.Info[k] = v
	}
	return nil
}

func (m *MemoryStore) GetMachine(_ context.Context, id string) (*MachineRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.machines[id]
	if !ok {
		return nil, nil
	}
	return copyRecord(rec), nil
}

func (m *MemoryStore) ListMachines(_ context.Context) ([]*MachineRecord, error) {
	m.mu.RLock()
	machines := make([]*MachineRecord, 0, len(m.machines))
	for _, rec := range m.machines {
		machines = append(machines, copyRecord(rec))
	}
	m.mu.RUnlock()

	sort.Slice(machines, func(i, j int) bool {
		if !machines[i].LastSeen.Equal(machines[j].LastSeen) {
			return machines[i].LastSeen.After(machines[j].LastSeen)
		}
		return machines[i].ID < machines[j].ID
	})
	return machines, nil
}

func (m *MemoryStore) Close() error { return nil }

// copyRecord returns a detached copy so callers cannot mutate stored state.
func copyRecord(rec *MachineRecord) *MachineRecord {
	out := &MachineRecord{
		ID:       rec.ID,
		OS:       rec.OS,
		LastSeen: rec.LastSeen,
		Info:     make(map[string]any, len(rec.Info)),
	}
	for k, v := range rec.Info {
		out.Info[k] = v
	}
	return out
}
