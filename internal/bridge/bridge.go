// Package bridge exposes a device over websockets. Every frame decoded from
// the device goes to every client, and every message a client sends is
// written to the device as one frame.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/codewiresh/framewire/internal/auth"
	"github.com/codewiresh/framewire/internal/connection"
	"github.com/codewiresh/framewire/internal/store"
)

const DefaultClientBuffer = 64

// Server bridges one device to any number of websocket clients.
type Server struct {
	Token  string
	Device connection.FrameReader
	Sink   connection.FrameWriter
	Hub    *Hub

	// ClientBuffer is the number of frames queued per client before frames
	// are dropped for it.
	ClientBuffer int
	// Tap, if set, sees every frame in both directions. It is called from
	// several goroutines.
	Tap func(dir store.Direction, p []byte)
	Log *slog.Logger
}

// New returns a Server reading frames from device and writing client frames
// to sink.
func New(token string, device connection.FrameReader, sink connection.FrameWriter) *Server {
	return &Server{
		Token:        token,
		Device:       device,
		Sink:         sink,
		Hub:          NewHub(),
		ClientBuffer: DefaultClientBuffer,
		Log:          slog.Default(),
	}
}

// Handler serves /ws. Clients authenticate with ?token=.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if !auth.Valid(s.Token, r.URL.Query().Get("token")) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin check done by token auth
	})
	if err != nil {
		s.Log.Error("websocket accept error", "err", err)
		return
	}
	defer ws.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id, frames := s.Hub.Register(s.ClientBuffer)
	defer s.Hub.Unregister(id)
	s.Log.Info("bridge client connected", "client", id, "remote", r.RemoteAddr)

	// Write loop: device frames to the client.
	writer := connection.NewWSWriter(ws)
	go func() {
		defer cancel()
		for {
			select {
			case p, ok := <-frames:
				if !ok {
					ws.Close(websocket.StatusNormalClosure, "device closed")
					return
				}
				if err := writer.WriteFrame(ctx, p); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Read loop: client frames to the device.
	n, err := connection.Copy(ctx, s.sinkWriter(), connection.NewWSReader(ws))
	s.Log.Info("bridge client disconnected", "client", id, "frames", n, "err", err)
}

// sinkWriter wraps Sink so the tap sees outgoing frames.
func (s *Server) sinkWriter() connection.FrameWriter {
	if s.Tap == nil {
		return s.Sink
	}
	return tapWriter{FrameWriter: s.Sink, tap: s.Tap}
}

type tapWriter struct {
	connection.FrameWriter
	tap func(store.Direction, []byte)
}

func (t tapWriter) WriteFrame(ctx context.Context, p []byte) error {
	if err := t.FrameWriter.WriteFrame(ctx, p); err != nil {
		return err
	}
	t.tap(store.DirectionTx, p)
	return nil
}

// Pump reads device frames and broadcasts them until the device reports
// io.EOF (returns nil), ctx ends or a read fails. Clients are disconnected
// when it returns.
func (s *Server) Pump(ctx context.Context) error {
	defer s.Hub.CloseAll()
	for {
		p, err := s.Device.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			s.Log.Info("device closed")
			return nil
		}
		if err != nil {
			return err
		}
		if s.Tap != nil {
			s.Tap(store.DirectionRx, p)
		}
		if n := s.Hub.Broadcast(p); n < s.Hub.Len() {
			s.Log.Debug("bridge dropped frame for slow clients", "delivered", n, "dropped_total", s.Hub.Dropped())
		}
	}
}

// Run listens on addr and serves until ctx is cancelled or the device ends.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bridge listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	pumpErr := make(chan error, 1)
	go func() {
		pumpErr <- s.Pump(ctx)
		cancel()
	}()

	// Shut down gracefully when ctx is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.Log.Info("bridge listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("bridge server: %w", err)
	}

	err := <-pumpErr
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
