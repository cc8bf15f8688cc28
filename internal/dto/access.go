package dto

import "time"

// SubmitAccessRequest is the public request-access payload.
type SubmitAccessRequest struct {
	Email        string `json:"email" validate:"required,email"`
	CaptchaToken string `json:"captcha_token" validate:"required"`
}

// AccessRequestAck is the deliberately generic response to a submission;
// it reads the same whether or not a new request was recorded, so the
// endpoint cannot be used to probe which emails are known.
type AccessRequestAck struct {
	Message string `json:"message"`
}

// ApprovalStatus answers the public status check.
type ApprovalStatus struct {
	Approved   bool   `json:"approved"`
	Status     string `json:"status"`
	Role       string `json:"role,omitempty"`
	ClassLevel string `json:"class_level,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Approval status values.
const (
	StatusNotRequested = "not_requested"
	StatusPending      = "pending"
	StatusApproved     = "approved"
	StatusRevoked      = "revoked"
)

// ApproveRequest grants a pending request a class/subject scope.
type ApproveRequest struct {
	ClassLevel string `json:"class_level" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
}

// PendingRequestItem is the admin view of one pending request.
type PendingRequestItem struct {
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}
