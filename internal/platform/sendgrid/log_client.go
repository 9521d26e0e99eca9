package sendgrid

import (
	"context"
	"net/http"

	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

// NewLogOnly returns a Client that records sends in the log instead of
// delivering them. Used when no API key is configured.
func NewLogOnly(log *logger.Logger) Client {
	return &logClient{log: log.With("client", "SendGridLogOnly")}
}

type logClient struct {
	log *logger.Logger
}

func (c *logClient) Send(ctx context.Context, req SendEmailRequest) (*SendEmailResult, error) {
	c.log.Info("Email delivery disabled; dropping message",
		"subject", req.Subject,
		"recipients", len(req.To),
		"categories", req.Categories,
	)
	return &SendEmailResult{StatusCode: http.StatusAccepted}, nil
}
