package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/db"
	"resume-analyzer/backend/internal/otp/domain"
)

// Transaction-scoped advisory lock keyed by email; serializes Replace and Consume for one email
// across every instance sharing the database.
const lockEmailSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository returns an OTP challenge repository backed by pool.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Replace(ctx context.Context, c *domain.Challenge) error {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockEmailSQL, c.Email); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM otp_challenges WHERE email = $1 AND NOT verified`, c.Email); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO otp_challenges (id, email, code_hash, expires_at, verified, created_at)
			VALUES ($1, $2, $3, $4, false, $5)
		`, c.ID, c.Email, c.CodeHash, c.ExpiresAt, c.CreatedAt)
		return err
	})
	if err != nil {
		return storeFailure("replace otp challenge", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, email, code string, now time.Time) (*domain.Challenge, error) {
	var c domain.Challenge
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockEmailSQL, email); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			SELECT id, email, code_hash, expires_at, created_at
			FROM otp_challenges
			WHERE email = $1 AND NOT verified
			FOR UPDATE
		`, email).Scan(&c.ID, &c.Email, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrOTPNotFound
		}
		if err != nil {
			return err
		}
		if !c.Matches(code) {
			return apperr.ErrOTPNotFound
		}
		if c.ExpiredAt(now) {
			return apperr.ErrOTPExpired
		}
		if _, err := tx.Exec(ctx, `UPDATE otp_challenges SET verified = true, verified_at = $2 WHERE id = $1`, c.ID, now); err != nil {
			return err
		}
		c.Verified = true
		c.VerifiedAt = &now
		return nil
	})
	switch {
	case err == nil:
		return &c, nil
	case errors.Is(err, apperr.ErrOTPNotFound), errors.Is(err, apperr.ErrOTPExpired):
		return nil, err
	default:
		return nil, storeFailure("consume otp challenge", err)
	}
}

func storeFailure(op string, err error) error {
	return oops.Code("STORE_FAILURE").With("operation", op).Wrap(fmt.Errorf("%w: %w", apperr.ErrStoreFailure, err))
}
