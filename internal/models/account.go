package models

import "time"

// UserRole represents the authorization state of an account.
type UserRole string

const (
	// RoleAdmin is provisioned out-of-band and never produced by the
	// approval flow.
	RoleAdmin UserRole = "admin"
	// RoleStudent is granted by admin approval and scoped to a class
	// level and subject.
	RoleStudent UserRole = "student"
	// RoleRevoked marks a former student whose access was withdrawn. The
	// last class/subject assignment is retained for audit.
	RoleRevoked UserRole = "revoked"
)

// UserAccount is the authorization record for a resolved identity, keyed
// by normalized email.
type UserAccount struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	ClassLevel   *string    `db:"class_level" json:"class_level,omitempty"`
	Subject      *string    `db:"subject" json:"subject,omitempty"`
	ApprovedAt   *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// HasCredentials reports whether the account completed sign-up.
func (a *UserAccount) HasCredentials() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
