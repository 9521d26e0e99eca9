package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/mysteryparty-backend/internal/platform/httpx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

const mailSendPath = "/v3/mail/send"

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	// SandboxMode has SendGrid validate messages without delivering them.
	SandboxMode    bool
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

type SendEmailResult struct {
	StatusCode int
	MessageID  string
	RequestID  string
}

type client struct {
	log        *logger.Logger
	cfg        Config
	policy     httpx.RetryPolicy
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	return &client{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		policy:     httpx.RetryPolicy{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	wire, err := buildMailSend(req, c.cfg)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}

	var res *SendEmailResult
	onRetry := func(attempt int, wait time.Duration, err error) {
		c.log.Warn("Sendgrid request retrying",
			"attempt", attempt,
			"max_retries", c.policy.MaxRetries,
			"sleep", wait.String(),
			"categories", req.Categories,
			"error", err.Error(),
		)
	}
	err = httpx.Retry(ctx, c.policy, onRetry, func(ctx context.Context) (*http.Response, error) {
		resp, err := c.post(ctx, body)
		if err == nil {
			res = &SendEmailResult{
				StatusCode: resp.StatusCode,
				MessageID:  strings.TrimSpace(resp.Header.Get("X-Message-Id")),
				RequestID:  strings.TrimSpace(resp.Header.Get("X-Request-Id")),
			}
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+mailSendPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := httpx.ReadBody(resp, 1<<20)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, newHTTPError(resp.StatusCode, raw)
	}
	if readErr != nil {
		return resp, readErr
	}
	return resp, nil
}

// HTTPError is a non-2xx answer from the mail-send API.
type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []errorItem
}

type errorItem struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
	Help    any    `json:"help,omitempty"`
	ID      string `json:"id,omitempty"`
}

func newHTTPError(status int, raw []byte) *HTTPError {
	he := &HTTPError{StatusCode: status, Body: string(raw)}
	var er struct {
		Errors []errorItem `json:"errors"`
	}
	if json.Unmarshal(raw, &er) == nil {
		he.Errors = er.Errors
	}
	return he
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "sendgrid: <nil error>"
	}
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, httpx.Truncate(e.Body, 4000))
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
