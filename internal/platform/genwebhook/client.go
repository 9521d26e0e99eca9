package genwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/platform/httpx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

// Client asks the external generation service to produce a package.
type Client interface {
	Trigger(ctx context.Context, req TriggerRequest) error
}

type Config struct {
	URL            string
	Secret         string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// TriggerRequest is the whole webhook contract; any 2xx means accepted.
type TriggerRequest struct {
	ConversationID uuid.UUID `json:"conversationId"`
	TestMode       bool      `json:"testMode"`
}

type client struct {
	log        *logger.Logger
	url        string
	secret     string
	policy     httpx.RetryPolicy
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("missing GENERATION_WEBHOOK_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		log:    log.With("client", "GenerationWebhookClient"),
		url:    url,
		secret: strings.TrimSpace(cfg.Secret),
		policy: httpx.RetryPolicy{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
		},
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// HTTPError is a non-2xx answer from the generation service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "genwebhook: <nil error>"
	}
	return fmt.Sprintf("generation webhook http %d: %s", e.StatusCode, httpx.Truncate(e.Body, 2000))
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) Trigger(ctx context.Context, req TriggerRequest) error {
	if req.ConversationID == uuid.Nil {
		return fmt.Errorf("genwebhook: conversation id required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	onRetry := func(attempt int, wait time.Duration, err error) {
		c.log.Warn("Generation webhook retrying",
			"conversation_id", req.ConversationID,
			"attempt", attempt,
			"max_retries", c.policy.MaxRetries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
	}
	return httpx.Retry(ctx, c.policy, onRetry, func(ctx context.Context) (*http.Response, error) {
		return c.post(ctx, body)
	})
}

func (c *client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, _ := httpx.ReadBody(resp, 64<<10)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}
