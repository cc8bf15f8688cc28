package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aims-edu/portal-api/pkg/config"
)

// Verifier checks a human-verification token issued by the frontend
// captcha widget.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// HCaptchaVerifier calls the hCaptcha siteverify endpoint.
type HCaptchaVerifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewHCaptchaVerifier builds a verifier from configuration.
func NewHCaptchaVerifier(cfg config.CaptchaConfig) *HCaptchaVerifier {
	return &HCaptchaVerifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify returns nil only when the provider confirms the token. Missing
// tokens, provider errors and failed verifications all reject.
func (v *HCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("captcha token missing")
	}
	if v.secret == "" {
		return fmt.Errorf("captcha secret not configured")
	}

	form := url.Values{}
	form.Set("response", token)
	form.Set("secret", v.secret)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verify call: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var result siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode captcha response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("captcha verification failed: %s", strings.Join(result.ErrorCodes, ","))
	}
	return nil
}
