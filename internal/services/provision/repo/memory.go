package repo

import (
	"context"
	"maps"
	"sync"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"
)

// Memory is an in-process domain.ProfileWriter with merge semantics
type Memory struct {
	mu      sync.Mutex
	max     int
	docs    map[string]map[string]any
	batches []int

	// FailOn makes the nth CommitBatch (1-based) fail with Err
	FailOn int
	Err    error
}

var _ domain.ProfileWriter = (*Memory)(nil)

// NewMemory returns an empty store with the given ceiling
func NewMemory(maxBatch int) *Memory {
	return &Memory{max: maxBatch, docs: map[string]map[string]any{}}
}

// MaxBatch is the per commit ceiling
func (m *Memory) MaxBatch() int { return m.max }

// CommitBatch merges every record or none
func (m *Memory) CommitBatch(_ context.Context, records []domain.ProfileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(records) > m.max {
		return perr.InvalidArgf("batch of %d exceeds the %d write cap", len(records), m.max)
	}
	if m.FailOn > 0 && len(m.batches)+1 == m.FailOn {
		err := m.Err
		if err == nil {
			err = perr.Unavailablef("commit failed")
		}
		return err
	}
	for _, r := range records {
		m.merge(r.UID, r.Fields())
	}
	m.batches = append(m.batches, len(records))
	return nil
}

// SetRole merges the role into one profile
func (m *Memory) SetRole(_ context.Context, uid, email string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merge(uid, roleFields(uid, email, role))
	return nil
}

func (m *Memory) merge(uid string, fields map[string]any) {
	d, ok := m.docs[uid]
	if !ok {
		d = map[string]any{}
		m.docs[uid] = d
	}
	maps.Copy(d, fields)
}

// Put stores a document as is, for seeding extra fields
func (m *Memory) Put(uid string, doc map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[uid] = maps.Clone(doc)
}

// Doc returns a copy of the stored document
func (m *Memory) Doc(_ context.Context, uid string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[uid]
	if !ok {
		return nil, perr.NotFoundf("no profile for %s", uid)
	}
	return maps.Clone(d), nil
}

// Batches returns the sizes of committed batches in order
func (m *Memory) Batches() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.batches...)
}

// Len is the number of stored documents
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}
