// Package protocol defines the type-tagged, length-prefixed frame format
// carried by the "frame" codec.
//
// Wire format: [type:u8][length:u32 BE][payload]
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame type constants.
const (
	FrameControl byte   = 0x00
	FrameData    byte   = 0x01
	HeaderLen           = 5
	MaxPayload   uint32 = 16 * 1024 * 1024 // 16 MB
)

var (
	ErrPayloadTooLarge  = errors.New("protocol: frame payload too large")
	ErrUnknownFrameType = errors.New("protocol: unknown frame type")
)

// Frame is one wire-protocol frame with a type byte and payload.
type Frame struct {
	Type    byte
	Payload []byte
}

func checkType(t byte) error {
	switch t {
	case FrameControl, FrameData:
		return nil
	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnknownFrameType, t)
	}
}

// ParseFrame decodes one frame from the front of b. It returns the frame and
// the number of bytes it occupies, or n == 0 if b does not yet hold a whole
// frame. The header is validated as soon as it is complete.
func ParseFrame(b []byte, maxPayload uint32) (f *Frame, n int, err error) {
	if len(b) < HeaderLen {
		return nil, 0, nil
	}
	if err := checkType(b[0]); err != nil {
		return nil, 0, err
	}
	length := binary.BigEndian.Uint32(b[1:HeaderLen])
	if length > maxPayload {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, length)
	}
	end := HeaderLen + int(length)
	if len(b) < end {
		return nil, 0, nil
	}
	payload := make([]byte, length)
	copy(payload, b[HeaderLen:end])
	return &Frame{Type: b[0], Payload: payload}, end, nil
}

// AppendFrame appends the wire encoding of f to dst.
func AppendFrame(dst []byte, f *Frame) ([]byte, error) {
	if err := checkType(f.Type); err != nil {
		return dst, err
	}
	if uint64(len(f.Payload)) > uint64(MaxPayload) {
		return dst, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(f.Payload))
	}
	dst = append(dst, f.Type)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(f.Payload)))
	return append(dst, f.Payload...), nil
}

// ReadFrame reads a single frame from the reader.
// Returns (nil, nil) on clean EOF during the header read.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [HeaderLen]byte
	_, err := io.ReadFull(r, header[:])
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, nil
		}
		return nil, fmt.Errorf("reading frame header: %w", err)
	}

	if err := checkType(header[0]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[1:HeaderLen])
	if length > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, length)
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("reading frame payload: %w", err)
		}
	}
	return &Frame{Type: header[0], Payload: payload}, nil
}

// WriteFrame writes a single frame to the writer in one Write call.
func WriteFrame(w io.Writer, f *Frame) error {
	b, err := AppendFrame(make([]byte, 0, HeaderLen+len(f.Payload)), f)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
