package models

import "time"

// Audit actions recorded by the ledger and document services.
const (
	AuditActionRequestSubmit  = "access_request.submit"
	AuditActionRequestApprove = "access_request.approve"
	AuditActionRequestReject  = "access_request.reject"
	AuditActionUserUpdate     = "user.update"
	AuditActionUserRevoke     = "user.revoke"
	AuditActionUserRestore    = "user.restore"
	AuditActionDocumentUpload = "document.upload"
	AuditActionDocumentDelete = "document.delete"
	AuditActionLogin          = "auth.login"
	AuditActionSignup         = "auth.signup"
)

// AuditLog is a best-effort trail entry; writes never block or fail the
// transition that produced them.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
