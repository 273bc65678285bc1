package calls

import (
	"context"
	"time"
)

// memStore mirrors the postgres upsert semantics for unit tests.
type memStore struct {
	bySID   map[string]*CallLog
	orphans []*CallLog // entries without a provider SID
	inserts int
	upserts int
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{bySID: map[string]*CallLog{}}
}

type memStoreErr struct{}

func (memStoreErr) Error() string { return "mem store: write failed" }

func (m *memStore) Insert(_ context.Context, entry *CallLog) error {
	if m.failAll {
		return memStoreErr{}
	}
	m.inserts++
	cp := *entry
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	if cp.ProviderCallSID == "" {
		m.orphans = append(m.orphans, &cp)
		return nil
	}
	if _, exists := m.bySID[cp.ProviderCallSID]; exists {
		return nil // same no-op as ON CONFLICT DO NOTHING
	}
	m.bySID[cp.ProviderCallSID] = &cp
	return nil
}

func (m *memStore) UpsertStatusBySID(_ context.Context, sid string, status Status, durationSeconds *int, errorMessage string) error {
	if m.failAll {
		return memStoreErr{}
	}
	m.upserts++
	now := time.Now().UTC()
	e, ok := m.bySID[sid]
	if !ok {
		e = &CallLog{ProviderCallSID: sid, Timestamp: now, CreatedAt: now}
		m.bySID[sid] = e
	}
	e.Status = status
	if durationSeconds != nil {
		d := *durationSeconds
		e.DurationSeconds = &d
	}
	if errorMessage != "" {
		e.ErrorMessage = errorMessage
	}
	e.UpdatedAt = &now
	return nil
}

func (m *memStore) List(_ context.Context, filter ListFilter) ([]CallLog, error) {
	var out []CallLog
	for _, e := range m.bySID {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	for _, e := range m.orphans {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}
