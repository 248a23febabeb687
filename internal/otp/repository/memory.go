package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/otp/domain"
)

// MemoryRepository keeps challenges in process memory, serialized per email by a reference-counted
// mutex. Verified challenges are dropped by the next Replace for the same email.
type MemoryRepository struct {
	mu         sync.Mutex
	locks      map[string]*emailLock
	challenges map[string][]domain.Challenge
}

type emailLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		locks:      make(map[string]*emailLock),
		challenges: make(map[string][]domain.Challenge),
	}
}

func (r *MemoryRepository) lock(email string) func() {
	r.mu.Lock()
	l, ok := r.locks[email]
	if !ok {
		l = &emailLock{}
		r.locks[email] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, email)
		}
		r.mu.Unlock()
	}
}

func (r *MemoryRepository) Replace(ctx context.Context, c *domain.Challenge) error {
	unlock := r.lock(c.Email)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrStoreFailure, err)
	}

	r.mu.Lock()
	r.challenges[c.Email] = []domain.Challenge{*c}
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Consume(ctx context.Context, email, code string, now time.Time) (*domain.Challenge, error) {
	unlock := r.lock(email)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrStoreFailure, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.challenges[email]
	for i := range list {
		c := &list[i]
		if c.Verified || !c.Matches(code) {
			continue
		}
		if c.ExpiredAt(now) {
			return nil, apperr.ErrOTPExpired
		}
		c.Verified = true
		c.VerifiedAt = &now
		out := *c
		return &out, nil
	}
	return nil, apperr.ErrOTPNotFound
}

// Active returns the unverified challenges for email. Used by tests to check the one-active-challenge invariant.
func (r *MemoryRepository) Active(email string) []domain.Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Challenge
	for _, c := range r.challenges[email] {
		if !c.Verified {
			out = append(out, c)
		}
	}
	return out
}
