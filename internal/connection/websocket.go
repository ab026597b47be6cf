package connection

import (
	"context"
	"errors"
	"io"
	"sync"

	"nhooyr.io/websocket"
)

// WSReader reads frames from a WebSocket connection. Each message is one
// frame; text and binary messages are treated alike.
type WSReader struct {
	conn *websocket.Conn
}

// NewWSReader creates a new WSReader wrapping the given WebSocket connection.
func NewWSReader(conn *websocket.Conn) *WSReader {
	return &WSReader{conn: conn}
}

// ReadFrame reads a single message. A close frame from the peer is reported
// as io.EOF.
func (r *WSReader) ReadFrame(ctx context.Context) ([]byte, error) {
	_, data, err := r.conn.Read(ctx)
	if err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

// Close sends a normal closure message and closes the WebSocket.
func (r *WSReader) Close() error {
	return r.conn.Close(websocket.StatusNormalClosure, "")
}

// WSWriter writes frames to a WebSocket connection as binary messages.
// It is safe for concurrent use.
type WSWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewWSWriter creates a new WSWriter wrapping the given WebSocket connection.
func NewWSWriter(conn *websocket.Conn) *WSWriter {
	return &WSWriter{conn: conn}
}

func (w *WSWriter) WriteFrame(ctx context.Context, p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Write(ctx, websocket.MessageBinary, p)
}

// Close sends a normal closure message and closes the WebSocket.
func (w *WSWriter) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}
