package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

func TestSendPostsMailAndRetriesServerErrors(t *testing.T) {
	var calls int32
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v3/mail/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer auth")
		}
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{
		APIKey:           "key",
		BaseURL:          srv.URL,
		DefaultFromEmail: "party@example.com",
		MaxRetries:       2,
		InitialBackoff:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := c.Send(context.Background(), SendEmailRequest{
		To:         []EmailAddress{{Email: "guest@example.com", Name: "Guest"}},
		Subject:    "Your character is ready",
		HTML:       "<p>hi</p>",
		Categories: []string{"character_ready"},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID != "msg-1" || res.StatusCode != http.StatusAccepted {
		t.Fatalf("unexpected result: %+v", res)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
	if got.From.Email != "party@example.com" {
		t.Fatalf("default from not applied: %+v", got.From)
	}
	if len(got.Content) != 1 || got.Content[0].Type != "text/html" {
		t.Fatalf("unexpected content: %+v", got.Content)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad to"}]}`))
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL, DefaultFromEmail: "a@b.c", MaxRetries: 3, InitialBackoff: time.Millisecond})
	_, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "x@y.z"}},
		Subject: "s",
		Text:    "t",
	})
	he, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %T (%v)", err, err)
	}
	if he.StatusCode != http.StatusBadRequest || he.Error() != "sendgrid http 400: bad to" {
		t.Fatalf("unexpected error: %v", he)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected no retries, got %d calls", calls)
	}
}

func TestSendValidatesRequest(t *testing.T) {
	c, _ := New(logger.Nop(), Config{APIKey: "key"})
	if _, err := c.Send(context.Background(), SendEmailRequest{Subject: "s", Text: "t", To: []EmailAddress{{Email: "x@y.z"}}}); err == nil {
		t.Fatalf("expected missing from error")
	}
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing api key error")
	}
}
