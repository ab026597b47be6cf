// Package codec defines the translation capability consumed by the frame
// adapter and ships the codecs used by fw.
//
// A Decoder must honour the total consumption contract: when DecodeEOF
// reports no frame, every byte it still needs has already been taken out of
// buf, because the adapter clears buf at that point. Codecs that accumulate
// partial frames embed a Stash to do so.
package codec

import (
	"errors"

	"github.com/codewiresh/framewire/internal/buffer"
)

var (
	ErrLineTooLong  = errors.New("codec: line too long")
	ErrInvalidLine  = errors.New("codec: line contains a newline")
	ErrFrameTooLong = errors.New("codec: frame too long")
	ErrBadEscape    = errors.New("codec: invalid SLIP escape")
	ErrUnknownCodec = errors.New("codec: unknown codec")
)

// Decoder turns buffered bytes into values of type T.
type Decoder[T any] interface {
	// DecodeEOF tries to produce one value from the front of buf, consuming
	// the bytes it uses. The buffer may hold the last bytes the transport
	// will ever deliver. ok is false when no value can be produced yet.
	DecodeEOF(buf *buffer.Buffer) (v T, ok bool, err error)
}

// Encoder appends the serialized form of a value to a buffer.
type Encoder[T any] interface {
	Encode(item T, buf *buffer.Buffer) error
}

// Codec decodes In values and encodes Out values.
type Codec[In, Out any] interface {
	Decoder[In]
	Encoder[Out]
}

// Stash holds bytes a decoder has taken from the adapter but not yet turned
// into a value.
type Stash struct {
	pending *buffer.Buffer
}

// Take moves everything in buf into the stash and returns the stash
// contents. buf is left empty.
func (s *Stash) Take(buf *buffer.Buffer) *buffer.Buffer {
	if s.pending == nil {
		s.pending = buffer.New(buf.Len())
	}
	if buf.Len() > 0 {
		s.pending.Write(buf.Bytes())
		buf.Clear()
	}
	return s.pending
}

// Len reports the number of stashed bytes.
func (s *Stash) Len() int {
	if s.pending == nil {
		return 0
	}
	return s.pending.Len()
}

// Reset drops stashed bytes.
func (s *Stash) Reset() {
	if s.pending != nil {
		s.pending.Clear()
	}
}
