package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/codewiresh/framewire/internal/buffer"
)

// Lines is a newline-delimited text codec. A trailing carriage return is
// stripped from decoded lines. Bytes after the last newline wait in the
// stash for the rest of the line.
type Lines struct {
	// MaxLength bounds a decoded line, excluding the delimiter. Zero means
	// unbounded.
	MaxLength int

	stash Stash
}

func (c *Lines) DecodeEOF(buf *buffer.Buffer) (string, bool, error) {
	line, ok, err := c.next(buf)
	if !ok || err != nil {
		return "", false, err
	}
	return string(line), true, nil
}

func (c *Lines) next(buf *buffer.Buffer) ([]byte, bool, error) {
	p := c.stash.Take(buf)
	i := p.IndexByte('\n')
	if i < 0 {
		limit := c.MaxLength
		if b := p.Bytes(); len(b) > 0 && b[len(b)-1] == '\r' {
			limit++
		}
		if c.MaxLength > 0 && p.Len() > limit {
			n := p.Len()
			p.Clear()
			return nil, false, fmt.Errorf("%w: %d bytes without delimiter", ErrLineTooLong, n)
		}
		return nil, false, nil
	}
	line := p.Next(i + 1)[:i]
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if c.MaxLength > 0 && len(line) > c.MaxLength {
		return nil, false, fmt.Errorf("%w: %d bytes", ErrLineTooLong, len(line))
	}
	return line, true, nil
}

func (c *Lines) Encode(line string, buf *buffer.Buffer) error {
	if strings.IndexByte(line, '\n') >= 0 {
		return ErrInvalidLine
	}
	buf.WriteString(line)
	return buf.WriteByte('\n')
}
