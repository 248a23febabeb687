package repository

import (
	"context"
	"fmt"
	"sync"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/credential/domain"
)

// MemoryRepository keeps credentials in process memory. Used when DATABASE_URL is empty and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Credential
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]domain.Credential)}
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *MemoryRepository) Save(_ context.Context, c *domain.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[c.Email]; ok {
		return apperr.ErrEmailAlreadyRegistered
	}
	r.byEmail[c.Email] = *c
	return nil
}
