package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/pkg/config"
	"github.com/aims-edu/portal-api/pkg/mailer"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (r *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) messages() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mailer.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

func newTestNotificationService(sender mailer.Sender) *NotificationService {
	return NewNotificationService(sender, nil, zap.NewNop(),
		config.MailConfig{AdminAddress: "admin@example.com"},
		config.NotificationsConfig{Workers: 1, MaxRetries: 1, RetryDelay: 10 * time.Millisecond},
	)
}

func TestNotificationServiceDeliversApprovalMail(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestNotificationService(sender)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Notify(Notification{Kind: NotifyApproved, Email: "student@example.com", ClassLevel: "Class 10", Subject: "Math"})

	require.Eventually(t, func() bool {
		return len(sender.messages()) == 1
	}, time.Second, 10*time.Millisecond)

	msg := sender.messages()[0]
	assert.Equal(t, "student@example.com", msg.To)
	assert.Equal(t, "Access Approved", msg.Subject)
}

func TestNotificationServiceRequestNoticeGoesToAdmin(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestNotificationService(sender)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Notify(Notification{Kind: NotifyRequestReceived, Email: "visitor@example.com"})

	require.Eventually(t, func() bool {
		return len(sender.messages()) == 1
	}, time.Second, 10*time.Millisecond)

	msg := sender.messages()[0]
	assert.Equal(t, "admin@example.com", msg.To)
	assert.Equal(t, "New Access Request", msg.Subject)
	assert.Contains(t, msg.HTML, "visitor@example.com")
}

func TestNotificationServiceComposeTemplates(t *testing.T) {
	svc := newTestNotificationService(&recordingSender{})

	rejected := svc.compose(Notification{Kind: NotifyRejected, Email: "visitor@example.com"})
	assert.Equal(t, "Access Denied", rejected.Subject)

	revoked := svc.compose(Notification{Kind: NotifyRevoked, Email: "student@example.com"})
	assert.Equal(t, "Access Revoked", revoked.Subject)

	updated := svc.compose(Notification{Kind: NotifyUpdated, Email: "student@example.com", ClassLevel: "Class 12", Subject: "Physics"})
	assert.Contains(t, updated.HTML, "Physics")
	assert.Contains(t, updated.HTML, "Class 12")
}

func TestNotificationServiceDropsWhenNotStarted(t *testing.T) {
	sender := &recordingSender{}
	svc := newTestNotificationService(sender)

	// Not started: the enqueue fails and is absorbed, never panics.
	svc.Notify(Notification{Kind: NotifyApproved, Email: "student@example.com"})
	assert.Empty(t, sender.messages())
}
