package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aims-edu/portal-api/internal/models"
)

// AccessRequestRepository provides database access for access requests.
// All state transitions are single conditional statements so that
// concurrent calls for the same email serialize on the row without any
// application-level locking.
type AccessRequestRepository struct {
	db *sqlx.DB
}

// NewAccessRequestRepository creates a new instance of AccessRequestRepository.
func NewAccessRequestRepository(db *sqlx.DB) *AccessRequestRepository {
	return &AccessRequestRepository{db: db}
}

// FindByEmail returns the request for an email, or sql.ErrNoRows.
func (r *AccessRequestRepository) FindByEmail(ctx context.Context, email string) (*models.AccessRequest, error) {
	const query = `SELECT email, status, requested_at, source_address, approved_at FROM access_requests WHERE email = $1 LIMIT 1`
	var req models.AccessRequest
	if err := r.db.GetContext(ctx, &req, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find access request by email: %w", err)
	}
	return &req, nil
}

// UpsertPending records a new pending request unless one is already
// pending for the email. It returns true when a row was written, false
// when an untouched pending request already existed.
func (r *AccessRequestRepository) UpsertPending(ctx context.Context, req *models.AccessRequest) (bool, error) {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO access_requests (email, status, requested_at, source_address)
		VALUES ($1, 'pending', $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET status = 'pending', requested_at = EXCLUDED.requested_at, source_address = EXCLUDED.source_address, approved_at = NULL
		WHERE access_requests.status <> 'pending'`
	res, err := r.db.ExecContext(ctx, query, req.Email, req.RequestedAt, req.SourceAddress)
	if err != nil {
		return false, fmt.Errorf("upsert pending access request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert pending access request: %w", err)
	}
	return affected == 1, nil
}

// MarkApproved flips a pending request to approved. It returns false
// when the request was not pending, which is how a losing concurrent
// approval discovers it lost.
func (r *AccessRequestRepository) MarkApproved(ctx context.Context, email string, approvedAt time.Time) (bool, error) {
	const query = `UPDATE access_requests SET status = 'approved', approved_at = $2 WHERE email = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, email, approvedAt)
	if err != nil {
		return false, fmt.Errorf("mark access request approved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark access request approved: %w", err)
	}
	return affected == 1, nil
}

// RevertApproval moves an approved request back to pending. Used to
// compensate when the account write of an approval fails.
func (r *AccessRequestRepository) RevertApproval(ctx context.Context, email string) error {
	const query = `UPDATE access_requests SET status = 'pending', approved_at = NULL WHERE email = $1 AND status = 'approved'`
	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("revert access request approval: %w", err)
	}
	return nil
}

// DeletePending removes a pending request. Rejection is a plain delete,
// so a rejected visitor can request again later.
func (r *AccessRequestRepository) DeletePending(ctx context.Context, email string) (bool, error) {
	const query = `DELETE FROM access_requests WHERE email = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return false, fmt.Errorf("delete pending access request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pending access request: %w", err)
	}
	return affected == 1, nil
}

// ListPending returns all pending requests, oldest first.
func (r *AccessRequestRepository) ListPending(ctx context.Context) ([]models.AccessRequest, error) {
	const query = `SELECT email, status, requested_at, source_address, approved_at FROM access_requests WHERE status = 'pending' ORDER BY requested_at ASC`
	var requests []models.AccessRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list pending access requests: %w", err)
	}
	return requests, nil
}
