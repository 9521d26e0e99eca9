package bus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/mysteryparty-backend/internal/realtime"
)

// envelope is the wire form of one bus message.
type envelope struct {
	Origin  string              `json:"origin"`
	SentAt  time.Time           `json:"sent_at"`
	Message realtime.SSEMessage `json:"message"`
}

func encodeEnvelope(origin string, now time.Time, msg realtime.SSEMessage) ([]byte, error) {
	return json.Marshal(envelope{Origin: origin, SentAt: now.UTC(), Message: msg})
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, err
	}
	if strings.TrimSpace(env.Message.Channel) == "" {
		return envelope{}, fmt.Errorf("bus message without channel")
	}
	return env, nil
}

// stale reports whether env is too old to deliver. Statuses are snapshots, so
// a late one would overwrite a newer one on the client.
func (env envelope) stale(now time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && !env.SentAt.IsZero() && now.Sub(env.SentAt) > maxAge
}

// topic is the redis channel for one hub channel, e.g. mystery:sse:watch:<id>.
func topic(prefix, channel string) string {
	return prefix + ":" + channel
}

func pattern(prefix string) string {
	return prefix + ":*"
}
