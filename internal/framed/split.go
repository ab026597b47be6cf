package framed

import (
	"context"
	"iter"
)

// ReadHalf is the receiving view of a split Adapter.
type ReadHalf[In, Out any] struct {
	a *Adapter[In, Out]
}

// WriteHalf is the sending view of a split Adapter.
type WriteHalf[In, Out any] struct {
	a *Adapter[In, Out]
}

// Split returns views over the read and write state of a. The read state
// (input buffer, readable flag) and write state (output buffer, flushed
// flag) are disjoint, so each half may be driven by its own goroutine as
// long as the transport allows a Read concurrent with a Write and the
// codec allows DecodeEOF concurrent with Encode. All shipped codecs do.
// a itself must not be used while the halves are in use.
func (a *Adapter[In, Out]) Split() (*ReadHalf[In, Out], *WriteHalf[In, Out]) {
	return &ReadHalf[In, Out]{a: a}, &WriteHalf[In, Out]{a: a}
}

func (h *ReadHalf[In, Out]) Next(ctx context.Context) (In, error) { return h.a.Next(ctx) }

func (h *ReadHalf[In, Out]) Frames(ctx context.Context) iter.Seq2[In, error] {
	return h.a.Frames(ctx)
}

func (h *WriteHalf[In, Out]) Send(item Out) error { return h.a.Send(item) }

func (h *WriteHalf[In, Out]) Ready(ctx context.Context) error { return h.a.Ready(ctx) }

func (h *WriteHalf[In, Out]) Flush(ctx context.Context) error { return h.a.Flush(ctx) }

func (h *WriteHalf[In, Out]) Close(ctx context.Context) error { return h.a.Close(ctx) }
