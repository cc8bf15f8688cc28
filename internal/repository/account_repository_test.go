package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/aims-edu/portal-api/internal/models"
)

func newAccountRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "class_level", "subject", "approved_at", "revoked_at", "last_login", "created_at", "updated_at"})
}

func TestAccountRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	class := "Class 10"
	subject := "Math"
	rows := accountRows().
		AddRow("acc-1", "student@example.com", nil, "", models.RoleStudent, class, subject, time.Now(), nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_accounts WHERE email = $1")).
		WithArgs("student@example.com").
		WillReturnRows(rows)

	account, err := repo.FindByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, account.Role)
	require.False(t, account.HasCredentials())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryUpsertStudent(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	approvedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_accounts (id, email, role, class_level, subject, approved_at, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "student@example.com", "Class 10", "Math", approvedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertStudent(context.Background(), "student@example.com", "Class 10", "Math", approvedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryUpdateScopePartial(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	subject := "Physics"
	mock.ExpectExec(regexp.QuoteMeta("SET class_level = COALESCE($2, class_level), subject = COALESCE($3, subject)")).
		WithArgs("student@example.com", nil, &subject, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateScope(context.Background(), "student@example.com", nil, &subject)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryRevokeNonStudent(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	revokedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("SET role = 'revoked', revoked_at = $2, updated_at = $2 WHERE email = $1 AND role = 'student'")).
		WithArgs("admin@example.com", revokedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Revoke(context.Background(), "admin@example.com", revokedAt)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryRestore(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	restoredAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("WHERE email = $1 AND role = 'revoked'")).
		WithArgs("student@example.com", "Class 12", "Physics", restoredAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Restore(context.Background(), "student@example.com", "Class 12", "Physics", restoredAt)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositorySetPasswordAlreadyRegistered(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE email = $1 AND role = 'student' AND password_hash IS NULL")).
		WithArgs("student@example.com", "hash", "Student Name", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.SetPassword(context.Background(), "student@example.com", "hash", "Student Name")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryList(t *testing.T) {
	db, mock, cleanup := newAccountRepoMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	rows := accountRows().
		AddRow("acc-1", "a@example.com", nil, "", models.RoleStudent, "Class 10", "Math", time.Now(), nil, nil, time.Now(), time.Now()).
		AddRow("acc-2", "b@example.com", nil, "", models.RoleRevoked, "Class 12", "Physics", time.Now(), time.Now(), nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE role IN ('student', 'revoked') ORDER BY created_at DESC")).
		WillReturnRows(rows)

	accounts, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
