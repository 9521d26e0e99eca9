package bus

import (
	"context"

	"github.com/yungbote/mysteryparty-backend/internal/realtime"
)

// Bus fans SSE messages out to every API instance, so a watch session's
// events reach its stream whichever instance produced them.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Ping(ctx context.Context) error
	Close() error
}
