package connection

import (
	"context"
	"sync"

	"github.com/codewiresh/framewire/internal/framed"
)

// AdapterReader reads frames from the receiving half of a byte-level adapter.
type AdapterReader struct {
	h *framed.ReadHalf[[]byte, []byte]
}

func NewAdapterReader(h *framed.ReadHalf[[]byte, []byte]) *AdapterReader {
	return &AdapterReader{h: h}
}

func (r *AdapterReader) ReadFrame(ctx context.Context) ([]byte, error) {
	return r.h.Next(ctx)
}

// Close is a no-op; the transport belongs to whoever opened it.
func (r *AdapterReader) Close() error { return nil }

// AdapterWriter writes frames through the sending half of a byte-level
// adapter, flushing after each one. It is safe for concurrent use.
type AdapterWriter struct {
	h  *framed.WriteHalf[[]byte, []byte]
	mu sync.Mutex
}

func NewAdapterWriter(h *framed.WriteHalf[[]byte, []byte]) *AdapterWriter {
	return &AdapterWriter{h: h}
}

func (w *AdapterWriter) WriteFrame(ctx context.Context, p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.h.Ready(ctx); err != nil {
		return err
	}
	if err := w.h.Send(p); err != nil {
		return err
	}
	return w.h.Flush(ctx)
}

// Close flushes anything still pending.
func (w *AdapterWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.h.Close(context.Background())
}
