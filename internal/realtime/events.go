package realtime

type SSEEvent string

const (
	SSEEventWatchOpened         SSEEvent = "WatchOpened"
	SSEEventGenerationStatus    SSEEvent = "GenerationStatus"
	SSEEventGenerationCompleted SSEEvent = "GenerationCompleted"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// WatchChannel is the hub channel a single watch session's stream listens on.
func WatchChannel(watchID string) string {
	return "watch:" + watchID
}
