package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/codewiresh/framewire/internal/buffer"
)

// JSON is a newline-delimited JSON codec. Blank lines are skipped.
type JSON[In, Out any] struct {
	// MaxLength bounds one encoded document. Zero means unbounded.
	MaxLength int

	lines Lines
}

func (c *JSON[In, Out]) DecodeEOF(buf *buffer.Buffer) (In, bool, error) {
	var v In
	c.lines.MaxLength = c.MaxLength
	for {
		line, ok, err := c.lines.next(buf)
		if !ok || err != nil {
			return v, false, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := json.Unmarshal(line, &v); err != nil {
			return v, false, fmt.Errorf("decoding json: %w", err)
		}
		return v, true, nil
	}
}

func (c *JSON[In, Out]) Encode(item Out, buf *buffer.Buffer) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	buf.Write(data)
	return buf.WriteByte('\n')
}
