package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/codewiresh/framewire/internal/buffer"
	"github.com/codewiresh/framewire/internal/protocol"
)

// feed drives a decoder the way the frame adapter does: decode until no
// frame, clear, append the next chunk.
func feed[T any](t *testing.T, dec Decoder[T], chunks ...[]byte) []T {
	t.Helper()
	var out []T
	buf := buffer.New(64)
	for _, chunk := range chunks {
		buf.Write(chunk)
		for {
			v, ok, err := dec.DecodeEOF(buf)
			if err != nil {
				t.Fatalf("DecodeEOF: %v", err)
			}
			if !ok {
				break
			}
			out = append(out, v)
		}
		if buf.Len() != 0 {
			t.Fatalf("decoder left %d bytes after reporting no frame", buf.Len())
		}
		buf.Clear()
	}
	return out
}

func encode[T any](t *testing.T, enc Encoder[T], items ...T) []byte {
	t.Helper()
	buf := buffer.New(0)
	for _, item := range items {
		if err := enc.Encode(item, buf); err != nil {
			t.Fatalf("Encode(%v): %v", item, err)
		}
	}
	return append([]byte(nil), buf.Bytes()...)
}

// splits returns every way to cut data into two or three non-empty chunks.
func splits(data []byte) [][][]byte {
	var out [][][]byte
	for i := 1; i < len(data); i++ {
		out = append(out, [][]byte{data[:i], data[i:]})
		for j := i + 1; j < len(data); j++ {
			out = append(out, [][]byte{data[:i], data[i:j], data[j:]})
		}
	}
	return out
}

func TestLinesChunkBoundaries(t *testing.T) {
	got := feed[string](t, &Lines{}, []byte("he"), []byte("llo\nwor"), []byte("ld\n"))
	want := []string{"hello", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLinesStripsCarriageReturn(t *testing.T) {
	got := feed[string](t, &Lines{}, []byte("AT\r\nOK\r\n\r\n"))
	want := []string{"AT", "OK", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestLinesMaxLength(t *testing.T) {
	c := &Lines{MaxLength: 4}
	buf := buffer.New(0)
	buf.WriteString("toolong")
	if _, _, err := c.DecodeEOF(buf); !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("err = %v, want ErrLineTooLong", err)
	}
	if c.stash.Len() != 0 {
		t.Fatalf("stash holds %d bytes after overflow", c.stash.Len())
	}
}

func TestLinesMaxLengthWithPendingCarriageReturn(t *testing.T) {
	c := &Lines{MaxLength: 4}
	got := feed[string](t, c, []byte("ABCD\r"), []byte("\n"))
	if len(got) != 1 || got[0] != "ABCD" {
		t.Fatalf("got %q, want [ABCD]", got)
	}
}

func TestCBORBytesPassesOtherItems(t *testing.T) {
	item, err := cbor.Marshal(map[string]int{"t": 21})
	if err != nil {
		t.Fatal(err)
	}
	wire := encode[cbor.RawMessage](t, &CBOR[cbor.RawMessage, cbor.RawMessage]{}, cbor.RawMessage(item))

	c, _ := ByName("cbor", 0)
	got := feed[[]byte](t, c, wire)
	if len(got) != 1 || !bytes.Equal(got[0], item) {
		t.Fatalf("got %x, want %x", got, item)
	}
}

func TestLinesEncodeRejectsNewline(t *testing.T) {
	if err := (&Lines{}).Encode("a\nb", buffer.New(0)); !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("err = %v, want ErrInvalidLine", err)
	}
}

func TestRawPassesChunks(t *testing.T) {
	got := feed[[]byte](t, Raw{}, []byte("ab"), []byte("c"))
	if len(got) != 2 || string(got[0]) != "ab" || string(got[1]) != "c" {
		t.Fatalf("got %q", got)
	}
}

func TestSLIPRoundTripAllSplits(t *testing.T) {
	packets := [][]byte{
		{0x01, slipEnd, 0x02},
		{slipEsc, slipEsc},
		[]byte("plain"),
	}
	wire := encode[[]byte](t, &SLIP{}, packets...)

	for _, chunks := range splits(wire) {
		got := feed[[]byte](t, &SLIP{}, chunks...)
		if !reflect.DeepEqual(got, packets) {
			t.Fatalf("chunks %x: got %x, want %x", chunks, got, packets)
		}
	}
}

func TestSLIPBadEscape(t *testing.T) {
	buf := buffer.New(0)
	buf.Write([]byte{slipEnd, 0x41, slipEsc, 0x42, slipEnd})
	if _, _, err := (&SLIP{}).DecodeEOF(buf); !errors.Is(err, ErrBadEscape) {
		t.Fatalf("err = %v, want ErrBadEscape", err)
	}
}

func TestFramesAllSplits(t *testing.T) {
	frames := []*protocol.Frame{
		{Type: protocol.FrameControl, Payload: []byte(`{"op":"reset"}`)},
		{Type: protocol.FrameData, Payload: []byte{}},
		{Type: protocol.FrameData, Payload: []byte{0, 1, 2, 3}},
	}
	wire := encode[*protocol.Frame](t, &Frames{}, frames...)

	for _, chunks := range splits(wire) {
		got := feed[*protocol.Frame](t, &Frames{}, chunks...)
		if len(got) != len(frames) {
			t.Fatalf("got %d frames, want %d", len(got), len(frames))
		}
		for i := range frames {
			if got[i].Type != frames[i].Type || !bytes.Equal(got[i].Payload, frames[i].Payload) {
				t.Fatalf("frame %d = %+v, want %+v", i, got[i], frames[i])
			}
		}
	}
}

func TestFramesPayloadLimit(t *testing.T) {
	wire := encode[*protocol.Frame](t, &Frames{}, &protocol.Frame{Type: protocol.FrameData, Payload: make([]byte, 10)})
	buf := buffer.New(0)
	buf.Write(wire)
	if _, _, err := (&Frames{MaxPayload: 9}).DecodeEOF(buf); !errors.Is(err, protocol.ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

type reading struct {
	Sensor string  `json:"sensor" cbor:"sensor"`
	Value  float64 `json:"value" cbor:"value"`
}

func TestJSONRoundTrip(t *testing.T) {
	in := []reading{{"t0", 21.5}, {"t1", -3}}
	wire := encode[reading](t, &JSON[reading, reading]{}, in...)

	got := feed[reading](t, &JSON[reading, reading]{}, wire[:7], wire[7:33], wire[33:])
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %+v, want %+v", got, in)
	}
}

func TestJSONDecodeError(t *testing.T) {
	buf := buffer.New(0)
	buf.WriteString("{not json}\n")
	_, _, err := (&JSON[reading, reading]{}).DecodeEOF(buf)
	var syntax *json.SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("err = %v, want *json.SyntaxError", err)
	}
}

func TestCBORRoundTripAllSplits(t *testing.T) {
	in := []reading{{"p", 1013.25}, {"rh", 40}}
	wire := encode[reading](t, &CBOR[reading, reading]{}, in...)

	for _, chunks := range splits(wire) {
		got := feed[reading](t, &CBOR[reading, reading]{}, chunks...)
		if !reflect.DeepEqual(got, in) {
			t.Fatalf("got %+v, want %+v", got, in)
		}
	}
}

func TestCBORLengthLimit(t *testing.T) {
	buf := buffer.New(0)
	buf.Write([]byte{0, 0, 1, 0})
	if _, _, err := (&CBOR[reading, reading]{MaxLength: 16}).DecodeEOF(buf); !errors.Is(err, ErrFrameTooLong) {
		t.Fatalf("err = %v, want ErrFrameTooLong", err)
	}
}

func TestByNameRoundTrip(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name, 0)
			if err != nil {
				t.Fatal(err)
			}
			payload := []byte(`"ping"`)
			wire := encode[[]byte](t, c, payload)

			dec, _ := ByName(name, 0)
			got := feed[[]byte](t, dec, wire)
			if len(got) != 1 {
				t.Fatalf("decoded %d frames, want 1", len(got))
			}
			if !bytes.Equal(got[0], payload) {
				t.Fatalf("got %q, want %q", got[0], payload)
			}
		})
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("morse", 0); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("err = %v, want ErrUnknownCodec", err)
	}
}
