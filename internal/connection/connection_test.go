package connection

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/codewiresh/framewire/internal/codec"
	"github.com/codewiresh/framewire/internal/framed"
)

type sliceReader struct {
	frames [][]byte
	err    error
}

func (r *sliceReader) ReadFrame(context.Context) ([]byte, error) {
	if len(r.frames) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	p := r.frames[0]
	r.frames = r.frames[1:]
	return p, nil
}

func (r *sliceReader) Close() error { return nil }

type sliceWriter struct {
	frames [][]byte
}

func (w *sliceWriter) WriteFrame(_ context.Context, p []byte) error {
	w.frames = append(w.frames, p)
	return nil
}

func (w *sliceWriter) Close() error { return nil }

func TestCopyUntilEOF(t *testing.T) {
	src := &sliceReader{frames: [][]byte{[]byte("a"), []byte("b"), {}}}
	dst := &sliceWriter{}

	n, err := Copy(context.Background(), dst, src)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != 3 || len(dst.frames) != 3 {
		t.Fatalf("n=%d frames=%d, want 3", n, len(dst.frames))
	}
}

func TestCopyReturnsSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := &sliceReader{frames: [][]byte{[]byte("a")}, err: boom}

	n, err := Copy(context.Background(), &sliceWriter{}, src)
	if !errors.Is(err, boom) || n != 1 {
		t.Fatalf("n=%d err=%v, want 1 and boom", n, err)
	}
}

func newLinesAdapter(t *testing.T) (*AdapterReader, *AdapterWriter, net.Conn) {
	t.Helper()
	local, peer := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		peer.Close()
	})
	c, err := codec.ByName("lines", 0)
	if err != nil {
		t.Fatal(err)
	}
	r, w := framed.New(local, c).Split()
	return NewAdapterReader(r), NewAdapterWriter(w), peer
}

func TestAdapterWriterFlushesEachFrame(t *testing.T) {
	_, w, peer := newLinesAdapter(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		for _, p := range []string{"one", "two"} {
			if err := w.WriteFrame(ctx, []byte(p)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	br := bufio.NewReader(peer)
	for _, want := range []string{"one\n", "two\n"} {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatal(err)
		}
		if line != want {
			t.Fatalf("peer read %q, want %q", line, want)
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
}

func TestAdapterReaderDecodes(t *testing.T) {
	r, _, peer := newLinesAdapter(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		peer.Write([]byte("x\r\ny\n"))
		peer.Close()
	}()

	for _, want := range []string{"x", "y"} {
		p, err := r.ReadFrame(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if string(p) != want {
			t.Fatalf("ReadFrame = %q, want %q", p, want)
		}
	}
	if _, err := r.ReadFrame(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestWebSocketEcho(t *testing.T) {
	served := make(chan int, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		n, _ := Copy(r.Context(), NewWSWriter(conn), NewWSReader(conn))
		served <- n
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	r, w := NewWSReader(conn), NewWSWriter(conn)

	for _, p := range []string{"ping", "\x00\x01\x02"} {
		if err := w.WriteFrame(ctx, []byte(p)); err != nil {
			t.Fatal(err)
		}
		got, err := r.ReadFrame(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != p {
			t.Fatalf("echo = %q, want %q", got, p)
		}
	}

	w.Close()
	select {
	case n := <-served:
		if n != 2 {
			t.Fatalf("server forwarded %d frames, want 2", n)
		}
	case <-ctx.Done():
		t.Fatal("server did not see the close")
	}
}
