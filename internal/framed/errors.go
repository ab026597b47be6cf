package framed

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode marks errors returned by the codec while decoding.
	ErrDecode = errors.New("framed: decode error")
	// ErrEncode marks errors returned by the codec while encoding.
	ErrEncode = errors.New("framed: encode error")
	// ErrTransport marks I/O errors from the underlying transport.
	ErrTransport = errors.New("framed: transport error")
	// ErrIncompleteWrite matches any *IncompleteWriteError.
	ErrIncompleteWrite = errors.New("framed: incomplete write")
	// ErrReleased is returned by every operation after Unwrap.
	ErrReleased = errors.New("framed: adapter released")
)

// IncompleteWriteError reports a flush whose single write attempt was only
// partially accepted. The unwritten tail has been discarded.
type IncompleteWriteError struct {
	Written int
	Len     int
}

func (e *IncompleteWriteError) Error() string {
	return fmt.Sprintf("framed: incomplete write: transport accepted %d of %d bytes", e.Written, e.Len)
}

func (e *IncompleteWriteError) Is(target error) bool {
	return target == ErrIncompleteWrite
}

func wrap(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}
