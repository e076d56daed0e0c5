package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

const siteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks a captcha token issued by the login form.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type client struct {
	log        *logger.Logger
	secret     string
	httpClient *http.Client
}

// NewFromEnv builds a verifier from RECAPTCHA_SECRET. A missing secret
// is an error at startup rather than a silently-open login endpoint.
func NewFromEnv(log *logger.Logger) (Verifier, error) {
	secret := strings.TrimSpace(os.Getenv("RECAPTCHA_SECRET"))
	if secret == "" {
		return nil, fmt.Errorf("missing RECAPTCHA_SECRET")
	}
	return &client{
		log:        log.With("client", "RecaptchaClient"),
		secret:     secret,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// VerificationError distinguishes a rejected token from a transport
// failure; callers map the former to 401 and the latter to 502.
type VerificationError struct {
	Codes []string
}

func (e *VerificationError) Error() string {
	if e == nil || len(e.Codes) == 0 {
		return "recaptcha: token rejected"
	}
	return "recaptcha: token rejected: " + strings.Join(e.Codes, ", ")
}

func (c *client) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &VerificationError{Codes: []string{"missing-input-response"}}
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, siteVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha siteverify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("recaptcha siteverify: http %d", resp.StatusCode)
	}

	var out siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("recaptcha siteverify: decode: %w", err)
	}
	if !out.Success {
		c.log.Warn("Captcha token rejected", "error_codes", out.ErrorCodes)
		return &VerificationError{Codes: out.ErrorCodes}
	}
	return nil
}
