package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/credential/domain"
	"resume-analyzer/backend/internal/db"
)

const emailConstraint = "credentials_email_key"

type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository returns a credential repository backed by pool.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	var c domain.Credential
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM credentials
		WHERE email = $1
	`, email).Scan(&c.ID, &c.Email, &c.DisplayName, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeFailure("find credential by email", err)
	}
	return &c, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM credentials WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, storeFailure("check credential exists", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Save(ctx context.Context, c *domain.Credential) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credentials (id, email, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Email, c.DisplayName, c.PasswordHash, c.CreatedAt)
	if db.IsUniqueViolation(err, emailConstraint) {
		return apperr.ErrEmailAlreadyRegistered
	}
	if err != nil {
		return storeFailure("insert credential", err)
	}
	return nil
}

func storeFailure(op string, err error) error {
	return oops.Code("STORE_FAILURE").With("operation", op).Wrap(fmt.Errorf("%w: %w", apperr.ErrStoreFailure, err))
}
