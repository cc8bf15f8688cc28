package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aims-edu/portal-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers notification emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendClient talks to the Resend REST API (https://resend.com).
type ResendClient struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
}

// NewResendClient builds a mail client from configuration.
func NewResendClient(cfg config.MailConfig) *ResendClient {
	return &ResendClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		from:    cfg.FromAddress,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts the message to the Resend API. Any non-2xx status is an error.
func (c *ResendClient) Send(ctx context.Context, msg Message) error {
	if c.apiKey == "" {
		return fmt.Errorf("mail api key not configured")
	}

	body, err := json.Marshal(resendPayload{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail api returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// NopSender discards messages; used when mail is disabled.
type NopSender struct{}

// Send implements Sender.
func (NopSender) Send(ctx context.Context, msg Message) error { return nil }
