package terminal

// DefaultEscape is Ctrl+], the telnet escape character.
const DefaultEscape = 0x1d

// EscapeDetector watches raw keystrokes for the quit sequence: the escape
// byte followed by 'q' or '.'. The escape byte typed twice forwards one
// literal escape byte; followed by anything else, both bytes are forwarded.
type EscapeDetector struct {
	Escape byte

	pending bool
}

func NewEscapeDetector() *EscapeDetector {
	return &EscapeDetector{Escape: DefaultEscape}
}

// Feed processes buf and returns whether the quit sequence was seen and the
// bytes to forward. Bytes after the quit sequence are discarded. A trailing
// escape byte is held until the next call.
func (d *EscapeDetector) Feed(buf []byte) (quit bool, forward []byte) {
	for _, b := range buf {
		if d.pending {
			d.pending = false
			switch b {
			case 'q', '.':
				return true, forward
			case d.Escape:
				forward = append(forward, b)
			default:
				forward = append(forward, d.Escape, b)
			}
			continue
		}
		if b == d.Escape {
			d.pending = true
			continue
		}
		forward = append(forward, b)
	}
	return false, forward
}
