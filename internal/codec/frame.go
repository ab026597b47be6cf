package codec

import (
	"github.com/codewiresh/framewire/internal/buffer"
	"github.com/codewiresh/framewire/internal/protocol"
)

// Frames carries protocol.Frame values in the [type][length][payload] wire
// format.
type Frames struct {
	// MaxPayload bounds decoded payloads. Zero means protocol.MaxPayload.
	MaxPayload uint32

	stash Stash
}

func (c *Frames) DecodeEOF(buf *buffer.Buffer) (*protocol.Frame, bool, error) {
	limit := c.MaxPayload
	if limit == 0 {
		limit = protocol.MaxPayload
	}
	p := c.stash.Take(buf)
	f, n, err := protocol.ParseFrame(p.Bytes(), limit)
	if err != nil {
		p.Clear()
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}
	p.Consume(n)
	return f, true, nil
}

func (c *Frames) Encode(f *protocol.Frame, buf *buffer.Buffer) error {
	buf.Reserve(protocol.HeaderLen + len(f.Payload))
	b, err := protocol.AppendFrame(buf.Spare()[:0], f)
	if err != nil {
		return err
	}
	buf.Commit(len(b))
	return nil
}
