package repository

import (
	"context"
	"fmt"

	"github.com/samber/oops"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/audit/domain"
	"resume-analyzer/backend/internal/db"
)

type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository returns an audit log repository backed by pool.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, email, action, outcome, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.Email, a.Action, a.Outcome, a.IP, a.Metadata, a.CreatedAt)
	if err != nil {
		return storeFailure("create audit log", err)
	}
	return nil
}

func (r *PostgresRepository) ListByEmail(ctx context.Context, email string, limit int32) ([]*domain.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, action, outcome, ip, metadata, created_at
		FROM audit_logs
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, email, limit)
	if err != nil {
		return nil, storeFailure("list audit logs", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.Email, &a.Action, &a.Outcome, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, storeFailure("scan audit log", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("iterate audit logs", err)
	}
	return out, nil
}

func storeFailure(op string, err error) error {
	return oops.Code("STORE_FAILURE").With("operation", op).Wrap(fmt.Errorf("%w: %w", apperr.ErrStoreFailure, err))
}
