package codec

import (
	"fmt"

	"github.com/codewiresh/framewire/internal/buffer"
)

// SLIP special bytes (RFC 1055).
const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// SLIP frames packets with RFC 1055 END delimiters. Encoded packets carry an
// END on both sides so a receiver that joins mid-stream resynchronises on
// the next delimiter. Empty packets between back-to-back ENDs are skipped.
type SLIP struct {
	// MaxLength bounds an encoded packet. Zero means unbounded.
	MaxLength int

	stash Stash
}

func (c *SLIP) DecodeEOF(buf *buffer.Buffer) ([]byte, bool, error) {
	p := c.stash.Take(buf)
	for {
		i := p.IndexByte(slipEnd)
		if i < 0 {
			if c.MaxLength > 0 && p.Len() > c.MaxLength {
				n := p.Len()
				p.Clear()
				return nil, false, fmt.Errorf("%w: %d bytes without END", ErrFrameTooLong, n)
			}
			return nil, false, nil
		}
		if i == 0 {
			p.Consume(1)
			continue
		}
		raw := p.Next(i + 1)[:i]
		if c.MaxLength > 0 && len(raw) > c.MaxLength {
			return nil, false, fmt.Errorf("%w: %d bytes", ErrFrameTooLong, len(raw))
		}
		data, err := slipUnescape(raw)
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
}

func (c *SLIP) Encode(p []byte, buf *buffer.Buffer) error {
	buf.Reserve(len(p) + 2)
	buf.WriteByte(slipEnd)
	for _, b := range p {
		switch b {
		case slipEnd:
			buf.WriteByte(slipEsc)
			buf.WriteByte(slipEscEnd)
		case slipEsc:
			buf.WriteByte(slipEsc)
			buf.WriteByte(slipEscEsc)
		default:
			buf.WriteByte(b)
		}
	}
	return buf.WriteByte(slipEnd)
}

func slipUnescape(raw []byte) ([]byte, error) {
	out := raw[:0]
	for i := 0; i < len(raw); i++ {
		if raw[i] != slipEsc {
			out = append(out, raw[i])
			continue
		}
		i++
		if i == len(raw) {
			return nil, fmt.Errorf("%w: trailing ESC", ErrBadEscape)
		}
		switch raw[i] {
		case slipEscEnd:
			out = append(out, slipEnd)
		case slipEscEsc:
			out = append(out, slipEsc)
		default:
			return nil, fmt.Errorf("%w: 0x%02x", ErrBadEscape, raw[i])
		}
	}
	return out, nil
}
