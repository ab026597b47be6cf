package terminal

// ResetModes undoes terminal modes a device may switch on while its output
// is passed through raw: alternate screen, hidden cursor, mouse and focus
// reporting, and text attributes.
const ResetModes = "\x1b[?1049l" + // leave alternate screen
	"\x1b[?25h" + // show cursor
	"\x1b[?1004l" + // focus events off
	"\x1b[?1000l" + // mouse tracking off
	"\x1b[?1006l" + // SGR mouse encoding off
	"\x1b[0m"

// StripANSI returns p without ANSI/VT100 escape sequences (CSI, OSC and
// two-byte escapes).
func StripANSI(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for i := 0; i < len(p); i++ {
		if p[i] != 0x1b {
			out = append(out, p[i])
			continue
		}
		if i+1 == len(p) {
			break
		}
		i++
		switch p[i] {
		case '[':
			// Parameters and intermediates run up to a final byte in 0x40-0x7E.
			for i+1 < len(p) && (p[i+1] < 0x40 || p[i+1] > 0x7e) {
				i++
			}
			i++
		case ']':
			// Terminated by BEL or ST (ESC \).
			for i+1 < len(p) {
				i++
				if p[i] == 0x07 {
					break
				}
				if p[i] == 0x1b && i+1 < len(p) && p[i+1] == '\\' {
					i++
					break
				}
			}
		}
	}
	return out
}
