package framed

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/codewiresh/framewire/internal/buffer"
	"github.com/codewiresh/framewire/internal/codec"
)

// Initial buffer capacities. Reads from a serial line arrive in bursts, so
// the input side starts larger; DefaultReadCapacity is also the spare room
// guaranteed before every transport read.
const (
	DefaultReadCapacity  = 64 * 1024
	DefaultWriteCapacity = 8 * 1024
)

// Transport is the duplex byte channel under an Adapter. Write may accept
// fewer bytes than given.
type Transport interface {
	io.Reader
	io.Writer
}

// Option configures an Adapter.
type Option func(*options)

type options struct {
	readCapacity  int
	writeCapacity int
	logger        *slog.Logger
}

// WithReadCapacity sets the initial input buffer capacity and the minimum
// spare room reserved before each read.
func WithReadCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readCapacity = n
		}
	}
}

// WithWriteCapacity sets the initial output buffer capacity.
func WithWriteCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.writeCapacity = n
		}
	}
}

// WithLogger sets the logger used for I/O diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Stats is a snapshot of adapter counters.
type Stats struct {
	Reads            uint64
	BytesRead        uint64
	FramesDecoded    uint64
	Writes           uint64
	BytesWritten     uint64
	FramesEncoded    uint64
	IncompleteWrites uint64
}

type counters struct {
	reads            atomic.Uint64
	bytesRead        atomic.Uint64
	framesDecoded    atomic.Uint64
	writes           atomic.Uint64
	bytesWritten     atomic.Uint64
	framesEncoded    atomic.Uint64
	incompleteWrites atomic.Uint64
}

// Adapter is a bidirectional frame channel over a Transport. It decodes In
// values and encodes Out values.
type Adapter[In, Out any] struct {
	transport Transport
	codec     codec.Codec[In, Out]

	rd       *buffer.Buffer
	readable bool
	eof      bool

	wr      *buffer.Buffer
	flushed bool

	released     bool
	readCapacity int
	log          *slog.Logger
	stats        counters
}

// New returns an Adapter that owns t and c. The adapter never closes t.
func New[In, Out any](t Transport, c codec.Codec[In, Out], opts ...Option) *Adapter[In, Out] {
	o := options{
		readCapacity:  DefaultReadCapacity,
		writeCapacity: DefaultWriteCapacity,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Adapter[In, Out]{
		transport:    t,
		codec:        c,
		rd:           buffer.New(o.readCapacity),
		wr:           buffer.New(o.writeCapacity),
		flushed:      true,
		readCapacity: o.readCapacity,
		log:          o.logger,
	}
}

// Next returns the next decoded frame. It decodes from buffered bytes first
// and reads from the transport only when the codec cannot produce a frame.
// Once the transport reports io.EOF and no buffered frame remains, Next
// returns io.EOF. Decode and transport errors leave the adapter unusable.
func (a *Adapter[In, Out]) Next(ctx context.Context) (In, error) {
	var zero In
	if a.released {
		return zero, ErrReleased
	}
	a.rd.Reserve(a.readCapacity)

	for {
		if a.readable {
			frame, ok, err := a.codec.DecodeEOF(a.rd)
			if err != nil {
				return zero, wrap(ErrDecode, err)
			}
			if ok {
				a.stats.framesDecoded.Add(1)
				return frame, nil
			}
			// Codecs take every byte they still need before reporting no
			// frame, so whatever is left is dropped.
			a.readable = false
			a.rd.Clear()
		}

		if a.eof {
			return zero, io.EOF
		}
		if err := a.fill(ctx); err != nil {
			return zero, err
		}
		a.readable = true
	}
}

// fill performs one transport read into the spare region of rd. A
// zero-length read is not end of stream.
func (a *Adapter[In, Out]) fill(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.rd.Reserve(a.readCapacity)

	var stop func()
	if d, ok := a.transport.(readDeadliner); ok {
		stop = watch(ctx, d.SetReadDeadline)
	}
	n, err := a.transport.Read(a.rd.Spare())
	if stop != nil {
		stop()
	}
	a.rd.Commit(n)
	a.stats.reads.Add(1)
	a.stats.bytesRead.Add(uint64(n))
	a.log.Debug("framed read", "bytes", n, "buffered", a.rd.Len())

	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		a.eof = true
		return nil
	default:
		if cerr := contextCause(ctx, err); cerr != nil {
			return cerr
		}
		return wrap(ErrTransport, err)
	}
}

// Frames returns the decoded frames as a single-use sequence. The sequence
// ends at io.EOF or when the consumer stops; any other error is yielded once
// as the final element.
func (a *Adapter[In, Out]) Frames(ctx context.Context) iter.Seq2[In, error] {
	return func(yield func(In, error) bool) {
		for {
			frame, err := a.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(frame, err)
				return
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

// Send encodes item into the output buffer without touching the transport.
// Callers apply backpressure by calling Ready before each Send. If the codec
// fails, the output buffer holds whatever it wrote before failing.
func (a *Adapter[In, Out]) Send(item Out) error {
	if a.released {
		return ErrReleased
	}
	if err := a.codec.Encode(item, a.wr); err != nil {
		return wrap(ErrEncode, err)
	}
	a.flushed = false
	a.stats.framesEncoded.Add(1)
	return nil
}

// Ready reports whether the adapter can accept another frame, flushing
// pending output first. It does not touch the transport when nothing is
// pending.
func (a *Adapter[In, Out]) Ready(ctx context.Context) error {
	if a.released {
		return ErrReleased
	}
	if !a.flushed {
		return a.Flush(ctx)
	}
	return nil
}

// Flush writes the output buffer with exactly one Write call and then empties
// it, whatever the outcome. A short write returns *IncompleteWriteError; the
// remainder is not retried.
func (a *Adapter[In, Out]) Flush(ctx context.Context) error {
	if a.released {
		return ErrReleased
	}
	if a.flushed {
		return nil
	}
	total := a.wr.Len()
	if total == 0 {
		a.flushed = true
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var stop func()
	if d, ok := a.transport.(writeDeadliner); ok {
		stop = watch(ctx, d.SetWriteDeadline)
	}
	n, err := a.transport.Write(a.wr.Bytes())
	if stop != nil {
		stop()
	}
	a.wr.Clear()
	a.stats.writes.Add(1)
	a.stats.bytesWritten.Add(uint64(max(n, 0)))

	if err != nil {
		if cerr := contextCause(ctx, err); cerr != nil {
			return cerr
		}
		return wrap(ErrTransport, err)
	}
	if n < total {
		a.stats.incompleteWrites.Add(1)
		a.log.Warn("framed incomplete write, dropping remainder", "written", n, "len", total)
		return &IncompleteWriteError{Written: n, Len: total}
	}
	a.flushed = true
	a.log.Debug("framed flush", "bytes", n)
	return nil
}

// Close flushes pending output. The transport stays open.
func (a *Adapter[In, Out]) Close(ctx context.Context) error {
	return a.Flush(ctx)
}

// Transport returns the underlying transport. Reading from or writing to it
// directly corrupts the frame stream.
func (a *Adapter[In, Out]) Transport() Transport { return a.transport }

// Codec returns the codec. Mutating it while frames are in flight corrupts
// the frame stream.
func (a *Adapter[In, Out]) Codec() codec.Codec[In, Out] { return a.codec }

// ReadBuffer returns the input buffer.
func (a *Adapter[In, Out]) ReadBuffer() *buffer.Buffer { return a.rd }

// Stats returns a snapshot of the adapter counters.
func (a *Adapter[In, Out]) Stats() Stats {
	return Stats{
		Reads:            a.stats.reads.Load(),
		BytesRead:        a.stats.bytesRead.Load(),
		FramesDecoded:    a.stats.framesDecoded.Load(),
		Writes:           a.stats.writes.Load(),
		BytesWritten:     a.stats.bytesWritten.Load(),
		FramesEncoded:    a.stats.framesEncoded.Load(),
		IncompleteWrites: a.stats.incompleteWrites.Load(),
	}
}

// Unwrap releases the adapter and returns its transport. Buffered input and
// unflushed output are dropped. Every later call on the adapter returns
// ErrReleased.
func (a *Adapter[In, Out]) Unwrap() Transport {
	t := a.transport
	a.released = true
	a.transport = nil
	a.rd.Clear()
	a.wr.Clear()
	return t
}
