package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := WatchChannel(uuid.New().String())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventWatchOpened, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventGenerationStatus, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventWatchOpened {
		t.Fatalf("first event: want=%s got=%s", SSEEventWatchOpened, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventGenerationStatus {
		t.Fatalf("second event: want=%s got=%s", SSEEventGenerationStatus, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}
	if hub.Subscribers(channel) != 0 {
		t.Fatalf("closed client still subscribed")
	}

	// Broadcasting after close must not panic.
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventGenerationStatus})

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	reconnect := SSEMessage{Channel: channel, Event: SSEEventGenerationCompleted, Data: map[string]any{"seq": 3}}
	hub.Broadcast(reconnect)
	gotReconnect := recvMessage(t, clientB.Outbound, time.Second)
	if gotReconnect.Event != SSEEventGenerationCompleted {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventGenerationCompleted, gotReconnect.Event)
	}
}

func TestSSEHubDeliversDuplicates(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := uuid.New().String()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, channel)

	dup := SSEMessage{Channel: channel, Event: SSEEventGenerationStatus, Data: map[string]any{"progress": 50}}
	hub.Broadcast(dup)
	hub.Broadcast(dup)

	gotOne := recvMessage(t, client.Outbound, time.Second)
	gotTwo := recvMessage(t, client.Outbound, time.Second)
	if gotOne.Event != SSEEventGenerationStatus || gotTwo.Event != SSEEventGenerationStatus {
		t.Fatalf("expected duplicate events to be delivered, got=%s and %s", gotOne.Event, gotTwo.Event)
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	channel := WatchChannel("w1")
	hub.AddChannel(client, channel)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventGenerationStatus, Data: map[string]any{"progress": 20}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Fatalf("missing retry hint: %q", body)
	}
	if !strings.Contains(body, "id: 1\nevent: GenerationStatus\n") {
		t.Fatalf("missing event line: %q", body)
	}
	if !strings.Contains(body, `"progress":20`) {
		t.Fatalf("missing payload: %q", body)
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
}

func TestWriteFrameFormat(t *testing.T) {
	var sb strings.Builder
	err := writeFrame(&sb, 7, SSEMessage{Channel: "c", Event: SSEEventGenerationStatus, Data: "a"})
	if err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	want := "id: 7\nevent: GenerationStatus\ndata: {\"channel\":\"c\",\"event\":\"GenerationStatus\",\"data\":\"a\"}\n\n"
	if sb.String() != want {
		t.Fatalf("frame mismatch:\n got %q\nwant %q", sb.String(), want)
	}
}
