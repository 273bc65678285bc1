package reporting

import (
	"context"
	"sync"

	"courier-bridge/internal/calls"
)

// MemoryRepo is a simple in-memory reporting repository for tests.

type MemoryRepo struct {
	mu   sync.Mutex
	Rows []calls.CallLog
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) List(ctx context.Context, filter calls.ListFilter) ([]calls.CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]calls.CallLog, 0)
	for _, c := range r.Rows {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && c.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !c.Timestamp.Before(filter.To) {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
