package dto

import "time"

// UpdateUserRequest reassigns a student's class level and/or subject.
// Omitted fields are left untouched.
type UpdateUserRequest struct {
	ClassLevel *string `json:"class_level,omitempty"`
	Subject    *string `json:"subject,omitempty"`
}

// RestoreUserRequest re-grants access to a revoked account. It has the
// same shape as an approval: the admin re-states the scope.
type RestoreUserRequest struct {
	ClassLevel string `json:"class_level" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
}

// UserItem is the admin view of a managed account.
type UserItem struct {
	Email      string     `json:"email"`
	FullName   string     `json:"full_name,omitempty"`
	Role       string     `json:"role"`
	ClassLevel string     `json:"class_level,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	SignedUp   bool       `json:"signed_up"`
}
