package bridge

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/codewiresh/framewire/internal/store"
)

// chanDevice yields frames pushed on its channel and EOF once it is closed.
type chanDevice chan []byte

func (d chanDevice) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case p, ok := <-d:
		if !ok {
			return nil, io.EOF
		}
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d chanDevice) Close() error { return nil }

type recordingSink struct {
	mu     sync.Mutex
	frames []string
	got    chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{got: make(chan struct{}, 16)}
}

func (s *recordingSink) WriteFrame(_ context.Context, p []byte) error {
	s.mu.Lock()
	s.frames = append(s.frames, string(p))
	s.mu.Unlock()
	s.got <- struct{}{}
	return nil
}

func (s *recordingSink) Close() error { return nil }

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", h.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRejectsBadToken(t *testing.T) {
	s := New("secret", make(chanDevice), newRecordingSink())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, wsURL(srv, "wrong"), nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resp = %v, want 401", resp)
	}
}

func TestFanOutAndClientWrites(t *testing.T) {
	device := make(chanDevice)
	sink := newRecordingSink()
	s := New("secret", device, sink)

	var tapMu sync.Mutex
	var tapped []store.Direction
	s.Tap = func(dir store.Direction, _ []byte) {
		tapMu.Lock()
		tapped = append(tapped, dir)
		tapMu.Unlock()
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pumpDone := make(chan error, 1)
	go func() { pumpDone <- s.Pump(ctx) }()

	var clients []*websocket.Conn
	for range 2 {
		c, _, err := websocket.Dial(ctx, wsURL(srv, "secret"), nil)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		defer c.CloseNow()
		clients = append(clients, c)
	}
	waitClients(t, s.Hub, 2)

	device <- []byte("reading=42")
	for i, c := range clients {
		_, data, err := c.Read(ctx)
		if err != nil {
			t.Fatalf("client %d Read: %v", i, err)
		}
		if string(data) != "reading=42" {
			t.Fatalf("client %d got %q", i, data)
		}
	}

	if err := clients[1].Write(ctx, websocket.MessageBinary, []byte("reset")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-sink.got:
	case <-ctx.Done():
		t.Fatal("sink never received the client frame")
	}
	sink.mu.Lock()
	if len(sink.frames) != 1 || sink.frames[0] != "reset" {
		t.Fatalf("sink frames = %q", sink.frames)
	}
	sink.mu.Unlock()

	// Device EOF ends the pump and disconnects the clients.
	close(device)
	if err := <-pumpDone; err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if _, _, err := clients[0].Read(ctx); websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("client read after device close: %v", err)
	}

	// The tx tap runs after the sink write returns, so give it a moment.
	deadline := time.Now().Add(5 * time.Second)
	for {
		tapMu.Lock()
		var rx, tx int
		for _, d := range tapped {
			switch d {
			case store.DirectionRx:
				rx++
			case store.DirectionTx:
				tx++
			}
		}
		tapMu.Unlock()
		if rx == 1 && tx == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tap saw rx=%d tx=%d, want 1 and 1", rx, tx)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubDropsForSlowClient(t *testing.T) {
	h := NewHub()
	_, fast := h.Register(4)
	_, slow := h.Register(1)

	if n := h.Broadcast([]byte("1")); n != 2 {
		t.Fatalf("first broadcast delivered %d, want 2", n)
	}
	if n := h.Broadcast([]byte("2")); n != 1 {
		t.Fatalf("second broadcast delivered %d, want 1", n)
	}
	if h.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", h.Dropped())
	}
	if len(fast) != 2 || len(slow) != 1 {
		t.Fatalf("queued fast=%d slow=%d", len(fast), len(slow))
	}
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	h := NewHub()
	id, ch := h.Register(1)
	h.Unregister(id)
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after Unregister")
	}
	h.Unregister(id) // no-op
	if h.Len() != 0 {
		t.Fatalf("Len = %d", h.Len())
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s := New("secret", make(chanDevice), newRecordingSink())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
