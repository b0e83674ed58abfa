package collector

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a Store kept in process memory. It backs tests and
// collectors started without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	hosts       map[string]Host
	submissions []SubmissionRow
	env         map[string][]EnvEntry // by host
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hosts: make(map[string]Host),
		env:   make(map[string][]EnvEntry),
	}
}

func (m *MemoryStore) Host(_ context.Context, uuid string) (Host, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hosts[uuid]
	if !ok {
		return Host{}, ErrNotFound
	}
	return h, nil
}

func (m *MemoryStore) RegisterHost(_ context.Context, host Host) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hosts[host.UUID]; ok {
		return ErrHostExists
	}
	m.hosts[host.UUID] = host
	return nil
}

func (m *MemoryStore) SaveSubmission(_ context.Context, sub SubmissionRow, env []EnvEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = uint(len(m.submissions) + 1)
	m.submissions = append(m.submissions, sub)
	m.env[sub.HostUUID] = append([]EnvEntry(nil), env...)
	return nil
}

func (m *MemoryStore) LatestSubmission(_ context.Context, uuid string) (SubmissionRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.submissions) - 1; i >= 0; i-- {
		if m.submissions[i].HostUUID == uuid {
			return m.submissions[i], nil
		}
	}
	return SubmissionRow{}, ErrNotFound
}

func (m *MemoryStore) EnvCounts(_ context.Context, variable string) ([]ValueCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hosts := make(map[string]map[string]bool)
	for uuid, entries := range m.env {
		for _, e := range entries {
			if e.Variable != variable {
				continue
			}
			if hosts[e.Value] == nil {
				hosts[e.Value] = make(map[string]bool)
			}
			hosts[e.Value][uuid] = true
		}
	}

	out := make([]ValueCount, 0, len(hosts))
	for value, set := range hosts {
		out = append(out, ValueCount{Value: value, Hosts: int64(len(set))})
	}
	sortCounts(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// sortCounts orders by host count descending, then by value.
func sortCounts(counts []ValueCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Hosts != counts[j].Hosts {
			return counts[i].Hosts > counts[j].Hosts
		}
		return counts[i].Value < counts[j].Value
	})
}
