package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/aims-edu/portal-api/internal/models"
)

func newAccessRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAccessRequestRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	rows := sqlmock.NewRows([]string{"email", "status", "requested_at", "source_address", "approved_at"}).
		AddRow("visitor@example.com", models.RequestPending, time.Now(), "203.0.113.9", nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT email, status, requested_at, source_address, approved_at FROM access_requests WHERE email = $1")).
		WithArgs("visitor@example.com").
		WillReturnRows(rows)

	req, err := repo.FindByEmail(context.Background(), "visitor@example.com")
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, req.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email, status, requested_at, source_address, approved_at FROM access_requests WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepositoryUpsertPending(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access_requests (email, status, requested_at, source_address)")).
		WithArgs("visitor@example.com", sqlmock.AnyArg(), "203.0.113.9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	written, err := repo.UpsertPending(context.Background(), &models.AccessRequest{
		Email:         "visitor@example.com",
		SourceAddress: "203.0.113.9",
	})
	require.NoError(t, err)
	require.True(t, written)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepositoryUpsertPendingAlreadyPending(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO access_requests (email, status, requested_at, source_address)")).
		WithArgs("visitor@example.com", sqlmock.AnyArg(), "203.0.113.9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	written, err := repo.UpsertPending(context.Background(), &models.AccessRequest{
		Email:         "visitor@example.com",
		SourceAddress: "203.0.113.9",
	})
	require.NoError(t, err)
	require.False(t, written)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepositoryMarkApproved(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE access_requests SET status = 'approved', approved_at = $2 WHERE email = $1 AND status = 'pending'")).
		WithArgs("visitor@example.com", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkApproved(context.Background(), "visitor@example.com", now)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepositoryMarkApprovedLosesRace(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE access_requests SET status = 'approved', approved_at = $2 WHERE email = $1 AND status = 'pending'")).
		WithArgs("visitor@example.com", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkApproved(context.Background(), "visitor@example.com", now)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepositoryDeletePending(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM access_requests WHERE email = $1 AND status = 'pending'")).
		WithArgs("visitor@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.DeletePending(context.Background(), "visitor@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newAccessRequestRepoMock(t)
	defer cleanup()
	repo := NewAccessRequestRepository(db)

	rows := sqlmock.NewRows([]string{"email", "status", "requested_at", "source_address", "approved_at"}).
		AddRow("first@example.com", models.RequestPending, time.Now().Add(-time.Hour), "", nil).
		AddRow("second@example.com", models.RequestPending, time.Now(), "", nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'pending' ORDER BY requested_at ASC")).
		WillReturnRows(rows)

	requests, err := repo.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.Equal(t, "first@example.com", requests[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}
