package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aims-edu/portal-api/internal/models"
)

const accountColumns = `id, email, password_hash, full_name, role, class_level, subject, approved_at, revoked_at, last_login, created_at, updated_at`

// AccountRepository provides database access for user accounts. Role
// transitions are conditional updates guarded by the current role, so
// concurrent admin actions cannot skip states.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByEmail returns an account by normalized email, or sql.ErrNoRows.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_accounts WHERE email = $1 LIMIT 1`, accountColumns)
	var account models.UserAccount
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &account, nil
}

// FindByID returns an account by identifier, or sql.ErrNoRows.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.UserAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_accounts WHERE id = $1 LIMIT 1`, accountColumns)
	var account models.UserAccount
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// UpsertStudent creates or re-grants a student account with the given
// scope. An existing password hash and full name survive the upsert, so
// restore after an accidental revoke does not force a new sign-up.
func (r *AccountRepository) UpsertStudent(ctx context.Context, email, classLevel, subject string, approvedAt time.Time) error {
	const query = `INSERT INTO user_accounts (id, email, role, class_level, subject, approved_at, created_at, updated_at)
		VALUES ($1, $2, 'student', $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO UPDATE
		SET role = 'student', class_level = EXCLUDED.class_level, subject = EXCLUDED.subject,
		    approved_at = EXCLUDED.approved_at, revoked_at = NULL, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), email, classLevel, subject, approvedAt, now); err != nil {
		return fmt.Errorf("upsert student account: %w", err)
	}
	return nil
}

// UpdateScope reassigns class level and/or subject for a student. Nil
// fields are left untouched. Returns false when the account is not a
// student.
func (r *AccountRepository) UpdateScope(ctx context.Context, email string, classLevel, subject *string) (bool, error) {
	const query = `UPDATE user_accounts
		SET class_level = COALESCE($2, class_level), subject = COALESCE($3, subject), updated_at = $4
		WHERE email = $1 AND role = 'student'`
	res, err := r.db.ExecContext(ctx, query, email, classLevel, subject, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update account scope: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update account scope: %w", err)
	}
	return affected == 1, nil
}

// Revoke withdraws a student's access. Returns false when the account
// was not a student (already revoked, admin, or absent).
func (r *AccountRepository) Revoke(ctx context.Context, email string, revokedAt time.Time) (bool, error) {
	const query = `UPDATE user_accounts SET role = 'revoked', revoked_at = $2, updated_at = $2 WHERE email = $1 AND role = 'student'`
	res, err := r.db.ExecContext(ctx, query, email, revokedAt)
	if err != nil {
		return false, fmt.Errorf("revoke account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke account: %w", err)
	}
	return affected == 1, nil
}

// Restore re-grants access to a revoked account with a fresh scope.
// Returns false when the account was not revoked.
func (r *AccountRepository) Restore(ctx context.Context, email, classLevel, subject string, restoredAt time.Time) (bool, error) {
	const query = `UPDATE user_accounts
		SET role = 'student', class_level = $2, subject = $3, approved_at = $4, revoked_at = NULL, updated_at = $4
		WHERE email = $1 AND role = 'revoked'`
	res, err := r.db.ExecContext(ctx, query, email, classLevel, subject, restoredAt)
	if err != nil {
		return false, fmt.Errorf("restore account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("restore account: %w", err)
	}
	return affected == 1, nil
}

// List returns managed accounts (students and revoked), newest first.
// Admin accounts are provisioned out-of-band and excluded from the
// management listing, matching the admin console view.
func (r *AccountRepository) List(ctx context.Context) ([]models.UserAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_accounts WHERE role IN ('student', 'revoked') ORDER BY created_at DESC`, accountColumns)
	var accounts []models.UserAccount
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// SetPassword records sign-up credentials. The condition restricts
// sign-up to approved students that have not registered yet.
func (r *AccountRepository) SetPassword(ctx context.Context, email, passwordHash, fullName string) (bool, error) {
	const query = `UPDATE user_accounts
		SET password_hash = $2, full_name = CASE WHEN $3 <> '' THEN $3 ELSE full_name END, updated_at = $4
		WHERE email = $1 AND role = 'student' AND password_hash IS NULL`
	res, err := r.db.ExecContext(ctx, query, email, passwordHash, fullName, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set account password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set account password: %w", err)
	}
	return affected == 1, nil
}

// ProvisionAdmin creates or refreshes an admin account. Used by the
// provisioning CLI only; the API never mints admins.
func (r *AccountRepository) ProvisionAdmin(ctx context.Context, email, passwordHash, fullName string) error {
	const query = `INSERT INTO user_accounts (id, email, password_hash, full_name, role, approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'admin', $5, $5, $5)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, full_name = EXCLUDED.full_name,
		    role = 'admin', revoked_at = NULL, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), email, passwordHash, fullName, now); err != nil {
		return fmt.Errorf("provision admin account: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last_login timestamp for an account.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE user_accounts SET last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
