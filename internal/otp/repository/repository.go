package repository

import (
	"context"
	"time"

	"resume-analyzer/backend/internal/otp/domain"
)

// Repository defines persistence for OTP challenges. Both operations are serialized per email.
type Repository interface {
	// Replace deletes every unverified challenge for c.Email and inserts c, atomically. After it
	// returns nil, c is the only unverified challenge for the email.
	Replace(ctx context.Context, c *domain.Challenge) error
	// Consume finds the unverified challenge for email matching code and marks it verified at now.
	// It returns apperr.ErrOTPNotFound when no unverified challenge matches and apperr.ErrOTPExpired
	// when the match expired (the challenge is left untouched).
	Consume(ctx context.Context, email, code string, now time.Time) (*domain.Challenge, error)
}
