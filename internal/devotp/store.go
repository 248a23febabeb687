// Package devotp holds the latest plaintext one-time code per email for dev-only retrieval
// (GET /dev/otp). It is wired only when OTP_DEV_DISCLOSURE is on, which config refuses in production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Store holds plain codes by email. Not used in production.
type Store interface {
	// Put stores code for email until expiresAt, replacing any earlier code for that email.
	Put(ctx context.Context, email, code string, expiresAt time.Time)
	// Get returns the code for email if present and not expired.
	Get(ctx context.Context, email string) (code string, ok bool)
	// Delete forgets the code for email (after it was consumed).
	Delete(ctx context.Context, email string)
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Put(_ context.Context, email, code string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[email] = entry{code: code, expiresAt: expiresAt}
}

func (s *MemoryStore) Get(_ context.Context, email string) (string, bool) {
	s.mu.RLock()
	e, ok := s.m[email]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.nowF()) {
		s.mu.Lock()
		// Re-check: a concurrent Put may have replaced the expired entry.
		if cur, ok := s.m[email]; ok && cur == e {
			delete(s.m, email)
		}
		s.mu.Unlock()
		return "", false
	}
	return e.code, true
}

func (s *MemoryStore) Delete(_ context.Context, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, email)
}
