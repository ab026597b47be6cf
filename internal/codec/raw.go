package codec

import "github.com/codewiresh/framewire/internal/buffer"

// Raw passes bytes through unchanged. Each decode returns everything
// currently buffered as one chunk.
type Raw struct{}

func (Raw) DecodeEOF(buf *buffer.Buffer) ([]byte, bool, error) {
	if buf.Len() == 0 {
		return nil, false, nil
	}
	return buf.Next(buf.Len()), true, nil
}

func (Raw) Encode(p []byte, buf *buffer.Buffer) error {
	_, err := buf.Write(p)
	return err
}
