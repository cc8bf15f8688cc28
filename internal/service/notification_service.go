package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/pkg/config"
	"github.com/aims-edu/portal-api/pkg/jobs"
	"github.com/aims-edu/portal-api/pkg/mailer"
)

// NotificationKind selects the template for an outbound mail.
type NotificationKind string

const (
	NotifyRequestReceived NotificationKind = "request_received"
	NotifyApproved        NotificationKind = "approved"
	NotifyRejected        NotificationKind = "rejected"
	NotifyRevoked         NotificationKind = "revoked"
	NotifyUpdated         NotificationKind = "updated"
)

// Notification is the payload carried through the dispatch queue.
type Notification struct {
	Kind       NotificationKind
	Email      string
	ClassLevel string
	Subject    string
}

// NotificationService delivers lifecycle emails in the background.
// Enqueue never blocks a state transition and delivery failures are
// logged and retried, never surfaced to the caller.
type NotificationService struct {
	queue   *jobs.Queue
	sender  mailer.Sender
	metrics *MetricsService
	logger  *zap.Logger

	adminAddress string
}

// NewNotificationService wires the dispatch queue to the mail sender.
func NewNotificationService(sender mailer.Sender, metrics *MetricsService, logger *zap.Logger, mailCfg config.MailConfig, queueCfg config.NotificationsConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		sender:       sender,
		metrics:      metrics,
		logger:       logger,
		adminAddress: mailCfg.AdminAddress,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    queueCfg.Workers,
		MaxRetries: queueCfg.MaxRetries,
		RetryDelay: queueCfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify queues a lifecycle email. Errors are absorbed here; the
// transition that triggered the notification has already committed.
func (s *NotificationService) Notify(n Notification) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(n.Kind),
		Payload: n,
	})
	if err != nil {
		s.metrics.RecordNotification(string(n.Kind), "dropped")
		s.logger.Warn("failed to enqueue notification", zap.String("kind", string(n.Kind)), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(Notification)
	if !ok {
		s.logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}

	msg := s.compose(n)
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.RecordNotification(string(n.Kind), "failed")
		return fmt.Errorf("send %s notification: %w", n.Kind, err)
	}
	s.metrics.RecordNotification(string(n.Kind), "sent")
	return nil
}

func (s *NotificationService) compose(n Notification) mailer.Message {
	switch n.Kind {
	case NotifyRequestReceived:
		// The new-request notice goes to the admin, not the requester.
		return mailer.Message{
			To:      s.adminAddress,
			Subject: "New Access Request",
			HTML:    fmt.Sprintf("<p>%s is asking for access to the study portal.</p>", n.Email),
		}
	case NotifyApproved:
		return mailer.Message{
			To:      n.Email,
			Subject: "Access Approved",
			HTML:    "<p>Your access request has been approved. You can now sign up and access study materials.</p>",
		}
	case NotifyRejected:
		return mailer.Message{
			To:      n.Email,
			Subject: "Access Denied",
			HTML:    "<p>Unfortunately, your request was not approved.</p>",
		}
	case NotifyRevoked:
		return mailer.Message{
			To:      n.Email,
			Subject: "Access Revoked",
			HTML:    "<p>Your access to the study portal has been revoked. Contact the administrator if you believe this is a mistake.</p>",
		}
	case NotifyUpdated:
		return mailer.Message{
			To:      n.Email,
			Subject: "Your Access Was Updated",
			HTML:    fmt.Sprintf("<p>Your study materials assignment changed. You now have access to %s materials for %s.</p>", n.Subject, n.ClassLevel),
		}
	default:
		return mailer.Message{To: n.Email, Subject: "Study Portal Notification", HTML: "<p>Your account was updated.</p>"}
	}
}
