package codec

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/codewiresh/framewire/internal/buffer"
	"github.com/codewiresh/framewire/internal/protocol"
)

// Bytes is a codec viewed at the byte level, as fw's commands see it.
type Bytes = Codec[[]byte, []byte]

var builders = map[string]func(maxFrame int) Bytes{
	"lines": func(maxFrame int) Bytes {
		return &view[string, string]{
			inner: &Lines{MaxLength: maxFrame},
			in:    func(s string) []byte { return []byte(s) },
			out:   func(p []byte) string { return string(p) },
		}
	},
	"raw": func(int) Bytes { return Raw{} },
	"slip": func(maxFrame int) Bytes {
		return &SLIP{MaxLength: maxFrame}
	},
	"frame": func(maxFrame int) Bytes {
		return &view[*protocol.Frame, *protocol.Frame]{
			inner: &Frames{MaxPayload: uint32(maxFrame)},
			in:    func(f *protocol.Frame) []byte { return f.Payload },
			out: func(p []byte) *protocol.Frame {
				return &protocol.Frame{Type: protocol.FrameData, Payload: p}
			},
		}
	},
	"json": func(maxFrame int) Bytes {
		return &view[json.RawMessage, json.RawMessage]{
			inner: &JSON[json.RawMessage, json.RawMessage]{MaxLength: maxFrame},
			in:    func(m json.RawMessage) []byte { return m },
			out:   func(p []byte) json.RawMessage { return p },
		}
	},
	"cbor": func(maxFrame int) Bytes {
		// Payloads travel as CBOR byte strings. Any other incoming item is
		// surfaced in its encoded form.
		return &view[cbor.RawMessage, []byte]{
			inner: &CBOR[cbor.RawMessage, []byte]{MaxLength: maxFrame},
			in:    unwrapByteString,
			out:   func(p []byte) []byte { return p },
		}
	},
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName returns a fresh byte-level codec. maxFrame bounds decoded frames
// where the codec supports it; zero keeps the codec default.
func ByName(name string, maxFrame int) (Bytes, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownCodec, name, Names())
	}
	return build(maxFrame), nil
}

func unwrapByteString(m cbor.RawMessage) []byte {
	var p []byte
	if len(m) > 0 && m[0]>>5 == 2 {
		if err := cbor.Unmarshal(m, &p); err == nil {
			return p
		}
	}
	return m
}

// view exposes a typed codec as a byte-level one.
type view[In, Out any] struct {
	inner Codec[In, Out]
	in    func(In) []byte
	out   func([]byte) Out
}

func (v *view[In, Out]) DecodeEOF(buf *buffer.Buffer) ([]byte, bool, error) {
	item, ok, err := v.inner.DecodeEOF(buf)
	if !ok || err != nil {
		return nil, ok, err
	}
	return v.in(item), true, nil
}

func (v *view[In, Out]) Encode(p []byte, buf *buffer.Buffer) error {
	return v.inner.Encode(v.out(p), buf)
}
