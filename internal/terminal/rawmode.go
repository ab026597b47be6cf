// Package terminal handles the local terminal for the interactive console.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type RawModeGuard struct {
	fd       int
	oldState *term.State
}

// EnableRawMode switches f (normally stdin) to raw mode. Call Restore on the
// returned guard before exiting.
func EnableRawMode(f *os.File) (*RawModeGuard, error) {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &RawModeGuard{fd: fd, oldState: oldState}, nil
}

func (g *RawModeGuard) Restore() {
	term.Restore(g.fd, g.oldState)
}
