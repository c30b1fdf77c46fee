package eventfeed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lokastream/mabar-queue/internal/platform/logging"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

func TestPublish_SendsEventDocument(t *testing.T) {
	var gotDedup, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDedup = r.Header.Get("X-Dedup-Id")
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pub := NewPublisher(PublisherConfig{
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL,
		AuthToken:  "feed-token",
		Logger:     logging.NewNop(),
	})

	err := pub.Publish(context.Background(), usecase.ChangeEvent{
		Type:       usecase.EventTypeQueueEntry,
		Action:     usecase.EventActionInsert,
		StreamerID: "streamer-1",
		DedupID:    "queue-insert-q-1",
		Payload:    map[string]any{"id": "q-1"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gotDedup != "queue-insert-q-1" {
		t.Fatalf("unexpected dedup header: %s", gotDedup)
	}
	if gotAuth != "Bearer feed-token" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	for _, needle := range []string{`"type":"queue_entry"`, `"action":"INSERT"`, `"streamer_id":"streamer-1"`} {
		if !strings.Contains(gotBody, needle) {
			t.Fatalf("body missing %s: %s", needle, gotBody)
		}
	}
}

func TestPublish_EmptyEndpointIsNoop(t *testing.T) {
	pub := NewPublisher(PublisherConfig{Logger: logging.NewNop()})
	if err := pub.Publish(context.Background(), usecase.ChangeEvent{Type: "x"}); err != nil {
		t.Fatalf("empty endpoint must drop silently: %v", err)
	}
}

func TestPublish_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub := NewPublisher(PublisherConfig{
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL,
		MaxRetries: 2,
		Logger:     logging.NewNop(),
	})

	if err := pub.Publish(context.Background(), usecase.ChangeEvent{Type: "x", DedupID: "d-1"}); err != nil {
		t.Fatalf("publish with retry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}
}

func TestPublish_ClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	pub := NewPublisher(PublisherConfig{
		HTTPClient: srv.Client(),
		Endpoint:   srv.URL,
		MaxRetries: 3,
		Logger:     logging.NewNop(),
	})

	if err := pub.Publish(context.Background(), usecase.ChangeEvent{Type: "x"}); err == nil {
		t.Fatal("expected publish failure")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("4xx must not be retried, got %d deliveries", got)
	}
}
