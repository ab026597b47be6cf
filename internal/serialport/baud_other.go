//go:build unix && !linux

package serialport

import "fmt"

// Line speed is only configured on Linux; elsewhere the device keeps the
// speed it was opened with.
func setBaud(_, baud int) error {
	return fmt.Errorf("%w on this platform: %d", ErrUnsupportedBaud, baud)
}
