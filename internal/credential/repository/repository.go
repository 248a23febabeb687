package repository

import (
	"context"

	"resume-analyzer/backend/internal/credential/domain"
)

// Repository defines persistence for credentials. Emails passed in are already normalized.
type Repository interface {
	// FindByEmail returns the credential for email, or nil if none exists.
	// It returns an error only for store failures, not for missing rows.
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts c. A concurrent insert of the same email fails with apperr.ErrEmailAlreadyRegistered.
	Save(ctx context.Context, c *domain.Credential) error
}
