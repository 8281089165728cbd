package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// syncRecorder guards a ResponseRecorder so the test can read the body
// while the handler goroutine is still streaming.
type syncRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (s *syncRecorder) Header() http.Header { return s.rec.Header() }

func (s *syncRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Write(p)
}

func (s *syncRecorder) WriteHeader(code int) { s.rec.WriteHeader(code) }

func (s *syncRecorder) Flush() {}

func (s *syncRecorder) body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Body.String()
}

// TestBroadcaster_NewBroadcaster tests broadcaster creation.
func TestBroadcaster_NewBroadcaster(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}

	if b.clients == nil {
		t.Error("clients map not initialized")
	}

	if b.newClients == nil {
		t.Error("newClients channel not initialized")
	}

	if b.closed == nil {
		t.Error("closed channel not initialized")
	}

	if b.events == nil {
		t.Error("events channel not initialized")
	}
}

// TestBroadcaster_BasicOperation tests fan-out to a registered client.
func TestBroadcaster_BasicOperation(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go b.Run(ctx)

	client := make(chan Event, 256)
	b.newClients <- client
	waitForClients(t, b, 1)

	event := Event{
		Event: "catalog-changed",
		Data:  map[string]any{"timestamp": time.Now().UTC()},
	}
	b.Broadcast(event)

	select {
	case received := <-client:
		if received.Event != event.Event {
			t.Errorf("expected event %s, got %s", event.Event, received.Event)
		}
	case <-time.After(time.Second):
		t.Error("client did not receive event")
	}
}

// TestBroadcaster_ServeHTTP tests the SSE wire format end to end.
func TestBroadcaster_ServeHTTP(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go b.Run(runCtx)

	reqCtx, closeClient := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/events", nil).WithContext(reqCtx)
	rec := &syncRecorder{rec: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	waitForClients(t, b, 1)
	b.Broadcast(Event{Event: "catalog-changed", Data: map[string]any{"n": 1}})

	// Wait for the fan-out loop and the handler to flush the frame,
	// then drop the connection.
	deadline := time.After(time.Second)
	for !strings.Contains(rec.body(), "catalog-changed") {
		select {
		case <-deadline:
			t.Fatal("event frame never flushed")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	closeClient()
	<-done

	body := rec.body()
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if !strings.Contains(body, "event: connected") {
		t.Errorf("missing connected hello frame in %q", body)
	}
	if !strings.Contains(body, "event: catalog-changed") {
		t.Errorf("missing catalog-changed frame in %q", body)
	}
	if !strings.Contains(body, "data: ") {
		t.Errorf("missing data field in %q", body)
	}

	waitForClients(t, b, 0)
}

// TestBroadcaster_Shutdown tests graceful shutdown.
func TestBroadcaster_Shutdown(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithCancel(context.Background())

	go b.Run(ctx)

	client1 := make(chan Event, 256)
	client2 := make(chan Event, 256)
	b.newClients <- client1
	b.newClients <- client2
	waitForClients(t, b, 2)

	cancel()
	waitForClients(t, b, 0)

	if _, open := <-client1; open {
		t.Error("client1 channel not closed on shutdown")
	}
	if _, open := <-client2; open {
		t.Error("client2 channel not closed on shutdown")
	}
}

func waitForClients(t *testing.T, b *Broadcaster, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for b.ClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("expected %d clients, got %d", want, b.ClientCount())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}
