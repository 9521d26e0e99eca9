package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/yungbote/mysteryparty-backend/internal/platform/ctxutil"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second
)

// RetryPolicy bounds how often and how patiently an outbound call repeats.
// MaxBackoff also caps Retry-After.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Attempt performs one call. It may return the response together with an
// error so a Retry-After header can steer the next wait.
type Attempt func(ctx context.Context) (*http.Response, error)

// OnRetry observes each scheduled retry; attempt counts from 1.
type OnRetry func(attempt int, wait time.Duration, err error)

// Retry runs call until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. Backoff doubles per retry and is jittered.
func Retry(ctx context.Context, p RetryPolicy, onRetry OnRetry, call Attempt) error {
	ctx = ctxutil.Default(ctx)
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	maxWait := p.MaxBackoff
	if maxWait <= 0 {
		maxWait = defaultMaxBackoff
	}
	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := call(ctx)
		if err == nil {
			return nil
		}
		if n >= p.MaxRetries || !IsRetryableError(err) {
			return err
		}

		wait := JitterSleep(RetryAfterDuration(resp, backoff, maxWait))
		if onRetry != nil {
			onRetry(n+1, wait, err)
		}
		if err := Sleep(ctx, wait); err != nil {
			return err
		}
		if backoff *= 2; backoff > maxWait {
			backoff = maxWait
		}
	}
}
