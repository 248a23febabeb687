package repository

import (
	"context"

	"resume-analyzer/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByEmail returns the newest entries for email first, at most limit.
	ListByEmail(ctx context.Context, email string, limit int32) ([]*domain.AuditLog, error)
}
