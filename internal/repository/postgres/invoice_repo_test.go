package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmbooks/internal/domain"
	"farmbooks/internal/port"
	"farmbooks/internal/repository/postgres"
)

func newMockInvoiceRepo(t *testing.T) (port.InvoiceRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return postgres.NewInvoiceRepo(sqlx.NewDb(mockDB, "pgx")), mock
}

func TestMarkRemindedAccumulatesAcrossPasses(t *testing.T) {
	repo, mock := newMockInvoiceRepo(t)
	id := uuid.New()
	first := time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	// The counter is bumped in place, so consecutive passes accumulate.
	mock.ExpectExec(`UPDATE invoices SET reminder_count = reminder_count \+ 1, last_reminder_at = \$1`).
		WithArgs(first, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE invoices SET reminder_count = reminder_count \+ 1, last_reminder_at = \$1`).
		WithArgs(second, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkReminded(context.Background(), id, first))
	require.NoError(t, repo.MarkReminded(context.Background(), id, second))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRemindedUnknownInvoice(t *testing.T) {
	repo, mock := newMockInvoiceRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE invoices SET reminder_count = reminder_count \+ 1`).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkReminded(context.Background(), id, time.Now().UTC())

	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestMarkRemindedSkipsDeletedInvoices(t *testing.T) {
	repo, mock := newMockInvoiceRepo(t)
	id := uuid.New()

	mock.ExpectExec(`WHERE id = \$2 AND deleted_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkReminded(context.Background(), id, time.Now().UTC())

	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
