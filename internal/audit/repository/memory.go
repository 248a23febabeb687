package repository

import (
	"context"
	"sort"
	"sync"

	"resume-analyzer/backend/internal/audit/domain"
)

// MemoryRepository keeps audit logs in process memory. Used when no DATABASE_URL is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *a)
	return nil
}

func (r *MemoryRepository) ListByEmail(_ context.Context, email string, limit int32) ([]*domain.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.AuditLog
	for i := range r.entries {
		if r.entries[i].Email == email {
			a := r.entries[i]
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}
