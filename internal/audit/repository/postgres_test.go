package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer/backend/internal/apperr"
	"resume-analyzer/backend/internal/audit/domain"
)

var auditColumns = []string{"id", "email", "action", "outcome", "ip", "metadata", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &domain.AuditLog{
		ID: "0b6b6a0c-0000-4000-8000-000000000002", Email: "a@x.com", Action: domain.ActionLogin,
		Outcome: "success", IP: "10.0.0.1", CreatedAt: at,
	}

	t.Run("inserts", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectExec(`INSERT INTO audit_logs`).
			WithArgs(entry.ID, entry.Email, entry.Action, entry.Outcome, entry.IP, entry.Metadata, entry.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewPostgresRepository(mock).Create(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectExec(`INSERT INTO audit_logs`).
			WithArgs(entry.ID, entry.Email, entry.Action, entry.Outcome, entry.IP, entry.Metadata, entry.CreatedAt).
			WillReturnError(errors.New("connection reset"))

		err = NewPostgresRepository(mock).Create(context.Background(), entry)
		require.ErrorIs(t, err, apperr.ErrStoreFailure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresRepository_ListByEmail(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns rows", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery(`SELECT id, email, action, outcome, ip, metadata, created_at`).
			WithArgs("a@x.com", int32(5)).
			WillReturnRows(pgxmock.NewRows(auditColumns).
				AddRow("id-2", "a@x.com", "otp_verify", "success", "10.0.0.1", "", at.Add(time.Minute)).
				AddRow("id-1", "a@x.com", "login", "success", "10.0.0.1", "", at))

		got, err := NewPostgresRepository(mock).ListByEmail(context.Background(), "a@x.com", 5)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "otp_verify", got[0].Action)
		assert.Equal(t, at, got[1].CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery(`SELECT id, email, action`).
			WithArgs("a@x.com", int32(5)).
			WillReturnError(errors.New("connection reset"))

		_, err = NewPostgresRepository(mock).ListByEmail(context.Background(), "a@x.com", 5)
		require.ErrorIs(t, err, apperr.ErrStoreFailure)
	})
}
