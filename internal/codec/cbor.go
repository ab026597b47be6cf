package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/codewiresh/framewire/internal/buffer"
)

const cborPrefixLen = 4

// DefaultMaxCBOR bounds a CBOR item when CBOR.MaxLength is zero.
const DefaultMaxCBOR = 1 << 20

// CBOR carries one CBOR data item per frame, prefixed by its length as a
// big-endian uint32.
type CBOR[In, Out any] struct {
	MaxLength int

	stash Stash
}

func (c *CBOR[In, Out]) DecodeEOF(buf *buffer.Buffer) (In, bool, error) {
	var v In
	limit := c.MaxLength
	if limit == 0 {
		limit = DefaultMaxCBOR
	}
	p := c.stash.Take(buf)
	if p.Len() < cborPrefixLen {
		return v, false, nil
	}
	n := binary.BigEndian.Uint32(p.Bytes()[:cborPrefixLen])
	if uint64(n) > uint64(limit) {
		p.Clear()
		return v, false, fmt.Errorf("%w: cbor item of %d bytes", ErrFrameTooLong, n)
	}
	if p.Len() < cborPrefixLen+int(n) {
		return v, false, nil
	}
	p.Consume(cborPrefixLen)
	if err := cbor.Unmarshal(p.Next(int(n)), &v); err != nil {
		return v, false, fmt.Errorf("decoding cbor: %w", err)
	}
	return v, true, nil
}

func (c *CBOR[In, Out]) Encode(item Out, buf *buffer.Buffer) error {
	data, err := cbor.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding cbor: %w", err)
	}
	var prefix [cborPrefixLen]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	buf.Write(prefix[:])
	buf.Write(data)
	return nil
}
