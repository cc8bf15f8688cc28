package models

import "time"

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
)

// AccessRequest records a visitor's ask for portal access, keyed by
// normalized email. A rejected request is deleted rather than retained,
// so rejection has no stored state.
type AccessRequest struct {
	Email         string        `db:"email" json:"email"`
	Status        RequestStatus `db:"status" json:"status"`
	RequestedAt   time.Time     `db:"requested_at" json:"requested_at"`
	SourceAddress string        `db:"source_address" json:"-"`
	ApprovedAt    *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
}
