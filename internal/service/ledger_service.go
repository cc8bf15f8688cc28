package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/internal/dto"
	"github.com/aims-edu/portal-api/internal/models"
	"github.com/aims-edu/portal-api/pkg/captcha"
	"github.com/aims-edu/portal-api/pkg/config"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
	"github.com/aims-edu/portal-api/pkg/export"
)

type ledgerRequestRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.AccessRequest, error)
	UpsertPending(ctx context.Context, req *models.AccessRequest) (bool, error)
	MarkApproved(ctx context.Context, email string, approvedAt time.Time) (bool, error)
	RevertApproval(ctx context.Context, email string) error
	DeletePending(ctx context.Context, email string) (bool, error)
	ListPending(ctx context.Context) ([]models.AccessRequest, error)
}

type ledgerAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	UpsertStudent(ctx context.Context, email, classLevel, subject string, approvedAt time.Time) error
	UpdateScope(ctx context.Context, email string, classLevel, subject *string) (bool, error)
	Revoke(ctx context.Context, email string, revokedAt time.Time) (bool, error)
	Restore(ctx context.Context, email, classLevel, subject string, restoredAt time.Time) (bool, error)
	List(ctx context.Context) ([]models.UserAccount, error)
}

type notifier interface {
	Notify(n Notification)
}

// LedgerService owns the request/approve/revoke lifecycle. Every
// transition is a single conditional write in the repositories, so two
// admins racing on the same email resolve to exactly one winner and
// the loser gets a conflict instead of a duplicate grant.
type LedgerService struct {
	requests  ledgerRequestRepository
	accounts  ledgerAccountRepository
	audit     auditWriter
	notify    notifier
	captcha   captcha.Verifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	access    config.AccessConfig
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(
	requests ledgerRequestRepository,
	accounts ledgerAccountRepository,
	audit auditWriter,
	notify notifier,
	verifier captcha.Verifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	access config.AccessConfig,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LedgerService{
		requests:  requests,
		accounts:  accounts,
		audit:     audit,
		notify:    notify,
		captcha:   verifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		access:    access,
	}
}

// SubmitRequest records a pending access request for an email. The
// acknowledgement is identical whether the email is new, already
// pending, or already granted, so the public endpoint leaks nothing
// about which emails the ledger knows.
func (s *LedgerService) SubmitRequest(ctx context.Context, req dto.SubmitAccessRequest, remoteIP string) (*dto.AccessRequestAck, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid access request payload")
	}

	if err := s.captcha.Verify(ctx, req.CaptchaToken, remoteIP); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "captcha verification failed")
	}

	email := NormalizeEmail(req.Email)
	ack := &dto.AccessRequestAck{Message: "Request sent. Waiting for admin approval."}

	// An email that already holds access does not get a new request.
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account")
	}
	if account != nil && account.Role != models.RoleRevoked {
		return ack, nil
	}

	written, err := s.requests.UpsertPending(ctx, &models.AccessRequest{
		Email:         email,
		SourceAddress: remoteIP,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record request")
	}

	if written {
		s.metrics.RecordAccessRequest()
		s.notify.Notify(Notification{Kind: NotifyRequestReceived, Email: email})
		if err := s.audit.Create(ctx, &models.AuditLog{
			Action:     models.AuditActionRequestSubmit,
			Resource:   "access_request",
			ResourceID: &email,
			IPAddress:  remoteIP,
		}); err != nil {
			s.logger.Warn("failed to record request audit log", zap.Error(err))
		}
	}

	return ack, nil
}

// CheckStatus answers the public approval poll. It is a pure read and
// never mutates the ledger.
func (s *LedgerService) CheckStatus(ctx context.Context, email string) (*dto.ApprovalStatus, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account")
	}
	if account != nil {
		switch account.Role {
		case models.RoleAdmin:
			return &dto.ApprovalStatus{Approved: true, Status: dto.StatusApproved, Role: string(models.RoleAdmin)}, nil
		case models.RoleStudent:
			status := &dto.ApprovalStatus{Approved: true, Status: dto.StatusApproved, Role: string(models.RoleStudent)}
			if account.ClassLevel != nil {
				status.ClassLevel = *account.ClassLevel
			}
			if account.Subject != nil {
				status.Subject = *account.Subject
			}
			return status, nil
		case models.RoleRevoked:
			return &dto.ApprovalStatus{Status: dto.StatusRevoked, Message: "Access has been revoked."}, nil
		}
	}

	request, err := s.requests.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.ApprovalStatus{Status: dto.StatusNotRequested}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check request")
	}
	if request.Status == models.RequestPending {
		return &dto.ApprovalStatus{Status: dto.StatusPending, Message: "Waiting for admin approval."}, nil
	}
	return &dto.ApprovalStatus{Status: dto.StatusNotRequested}, nil
}

// Approve grants a pending request a class/subject scope. The request
// row flip is the serialization point: of two concurrent approvals
// exactly one flips pending to approved, the other gets a conflict.
func (s *LedgerService) Approve(ctx context.Context, email string, req dto.ApproveRequest, actor *models.UserAccount) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	if err := s.validateScope(req.ClassLevel, req.Subject); err != nil {
		return err
	}
	email = NormalizeEmail(email)

	approvedAt := time.Now().UTC()
	won, err := s.requests.MarkApproved(ctx, email, approvedAt)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve request")
	}
	if !won {
		return appErrors.Clone(appErrors.ErrConflict, "request is not pending")
	}

	if err := s.accounts.UpsertStudent(ctx, email, req.ClassLevel, req.Subject, approvedAt); err != nil {
		// Put the request back so the approval can be retried.
		if revertErr := s.requests.RevertApproval(ctx, email); revertErr != nil {
			s.logger.Error("failed to revert approval after account write failure",
				zap.String("email", email), zap.Error(revertErr))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant access")
	}

	s.metrics.RecordDecision("approve")
	s.notify.Notify(Notification{Kind: NotifyApproved, Email: email, ClassLevel: req.ClassLevel, Subject: req.Subject})
	s.recordAdminAudit(ctx, actor, models.AuditActionRequestApprove, "access_request", email,
		fmt.Sprintf(`{"class_level":%q,"subject":%q}`, req.ClassLevel, req.Subject))
	return nil
}

// Reject removes a pending request. The visitor may request again.
func (s *LedgerService) Reject(ctx context.Context, email string, actor *models.UserAccount) error {
	email = NormalizeEmail(email)

	removed, err := s.requests.DeletePending(ctx, email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject request")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrConflict, "request is not pending")
	}

	s.metrics.RecordDecision("reject")
	s.notify.Notify(Notification{Kind: NotifyRejected, Email: email})
	s.recordAdminAudit(ctx, actor, models.AuditActionRequestReject, "access_request", email, `{"status":"rejected"}`)
	return nil
}

// ListPending returns the admin review queue, oldest first.
func (s *LedgerService) ListPending(ctx context.Context) ([]dto.PendingRequestItem, error) {
	requests, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}

	items := make([]dto.PendingRequestItem, 0, len(requests))
	for _, req := range requests {
		items = append(items, dto.PendingRequestItem{
			Email:       req.Email,
			Status:      string(req.Status),
			RequestedAt: req.RequestedAt,
		})
	}
	return items, nil
}

// ListUsers returns the managed accounts for the admin console.
func (s *LedgerService) ListUsers(ctx context.Context) ([]dto.UserItem, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	items := make([]dto.UserItem, 0, len(accounts))
	for _, account := range accounts {
		item := dto.UserItem{
			Email:      account.Email,
			FullName:   account.FullName,
			Role:       string(account.Role),
			ApprovedAt: account.ApprovedAt,
			RevokedAt:  account.RevokedAt,
			SignedUp:   account.HasCredentials(),
		}
		if account.ClassLevel != nil {
			item.ClassLevel = *account.ClassLevel
		}
		if account.Subject != nil {
			item.Subject = *account.Subject
		}
		items = append(items, item)
	}
	return items, nil
}

// ExportUsers renders the managed account roster as CSV or PDF for
// offline record keeping.
func (s *LedgerService) ExportUsers(ctx context.Context, format string) ([]byte, string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "export format must be csv or pdf")
	}

	items, err := s.ListUsers(ctx)
	if err != nil {
		return nil, "", err
	}

	table := export.Table{
		Title:   "User Ledger",
		Columns: []string{"Email", "Full Name", "Role", "Class Level", "Subject", "Approved At", "Signed Up"},
	}
	for _, item := range items {
		approved := ""
		if item.ApprovedAt != nil {
			approved = item.ApprovedAt.UTC().Format("2006-01-02")
		}
		signedUp := "no"
		if item.SignedUp {
			signedUp = "yes"
		}
		table.Rows = append(table.Rows, []string{
			item.Email, item.FullName, item.Role, item.ClassLevel, item.Subject, approved, signedUp,
		})
	}

	out, err := export.Render(f, table)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return out, f.ContentType(), nil
}

// UpdateUser reassigns a student's class level and/or subject.
func (s *LedgerService) UpdateUser(ctx context.Context, email string, req dto.UpdateUserRequest, actor *models.UserAccount) error {
	if req.ClassLevel == nil && req.Subject == nil {
		return appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if req.ClassLevel != nil && !contains(s.access.ClassLevels, *req.ClassLevel) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown class level")
	}
	if req.Subject != nil && !contains(s.access.Subjects, *req.Subject) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}
	email = NormalizeEmail(email)

	updated, err := s.accounts.UpdateScope(ctx, email, req.ClassLevel, req.Subject)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if !updated {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("failed to reload account after scope update", zap.String("email", email), zap.Error(err))
	} else {
		notification := Notification{Kind: NotifyUpdated, Email: email}
		if account.ClassLevel != nil {
			notification.ClassLevel = *account.ClassLevel
		}
		if account.Subject != nil {
			notification.Subject = *account.Subject
		}
		s.notify.Notify(notification)
	}

	s.recordAdminAudit(ctx, actor, models.AuditActionUserUpdate, "user", email, `{"scope":"updated"}`)
	return nil
}

// Revoke withdraws a student's access. The account and its uploads
// survive so a later restore is a single role flip.
func (s *LedgerService) Revoke(ctx context.Context, email string, actor *models.UserAccount) error {
	email = NormalizeEmail(email)

	revoked, err := s.accounts.Revoke(ctx, email, time.Now().UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke access")
	}
	if !revoked {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	s.notify.Notify(Notification{Kind: NotifyRevoked, Email: email})
	s.recordAdminAudit(ctx, actor, models.AuditActionUserRevoke, "user", email, `{"role":"revoked"}`)
	return nil
}

// Restore re-grants access to a revoked account with a fresh scope.
func (s *LedgerService) Restore(ctx context.Context, email string, req dto.RestoreUserRequest, actor *models.UserAccount) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid restore payload")
	}
	if err := s.validateScope(req.ClassLevel, req.Subject); err != nil {
		return err
	}
	email = NormalizeEmail(email)

	restored, err := s.accounts.Restore(ctx, email, req.ClassLevel, req.Subject, time.Now().UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore access")
	}
	if !restored {
		return appErrors.Clone(appErrors.ErrNotFound, "no revoked account for this email")
	}

	s.notify.Notify(Notification{Kind: NotifyApproved, Email: email, ClassLevel: req.ClassLevel, Subject: req.Subject})
	s.recordAdminAudit(ctx, actor, models.AuditActionUserRestore, "user", email,
		fmt.Sprintf(`{"class_level":%q,"subject":%q}`, req.ClassLevel, req.Subject))
	return nil
}

func (s *LedgerService) validateScope(classLevel, subject string) error {
	if !contains(s.access.ClassLevels, classLevel) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown class level")
	}
	if !contains(s.access.Subjects, subject) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}
	return nil
}

func (s *LedgerService) recordAdminAudit(ctx context.Context, actor *models.UserAccount, action, resource, resourceID, newValues string) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  []byte(newValues),
	}
	if actor != nil {
		log.UserID = &actor.ID
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
