// Package health reports readiness: the service is ready when its credential store answers a ping.
package health

import (
	"context"
	"fmt"
	"time"

	"resume-analyzer/backend/internal/apperr"
)

const defaultPingTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker runs readiness checks. A nil Pinger (in-memory stores) is always ready.
type Checker struct {
	pinger  Pinger
	timeout time.Duration
}

// NewChecker returns a Checker pinging p with a short timeout.
func NewChecker(p Pinger) *Checker {
	return &Checker{pinger: p, timeout: defaultPingTimeout}
}

// Check returns nil when ready, or an error wrapping apperr.ErrStoreFailure.
func (c *Checker) Check(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", apperr.ErrStoreFailure, err)
	}
	return nil
}
