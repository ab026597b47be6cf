// Package connection moves byte frames between endpoints: a device behind a
// framed adapter, or a websocket peer.
package connection

import (
	"context"
	"errors"
	"io"
)

// FrameReader reads byte frames. ReadFrame returns io.EOF once the peer is
// done.
type FrameReader interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

// FrameWriter writes byte frames. Each WriteFrame is delivered before it
// returns.
type FrameWriter interface {
	WriteFrame(ctx context.Context, p []byte) error
	Close() error
}

// Copy forwards frames from src to dst until src reports io.EOF, ctx ends or
// either side fails. It returns the number of frames forwarded; a clean EOF
// is not an error.
func Copy(ctx context.Context, dst FrameWriter, src FrameReader) (int, error) {
	var n int
	for {
		p, err := src.ReadFrame(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := dst.WriteFrame(ctx, p); err != nil {
			return n, err
		}
		n++
	}
}
