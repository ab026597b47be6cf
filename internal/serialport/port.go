//go:build unix

// Package serialport opens a tty device (a serial adapter or a pty) as a raw
// byte transport with deadline support.
package serialport

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

var ErrUnsupportedBaud = errors.New("serialport: unsupported baud rate")

// Config describes the device to open.
type Config struct {
	// Device is the tty path, e.g. /dev/ttyUSB0.
	Device string
	// Baud sets the line speed. Zero keeps the current setting.
	Baud int
}

// Port is an open tty in raw mode. Read and Write may run concurrently.
type Port struct {
	f     *os.File
	state *term.State
}

// Open opens cfg.Device non-blocking, so the runtime poller drives it and
// deadlines work, and switches the line to raw mode.
func Open(cfg Config) (*Port, error) {
	f, err := os.OpenFile(cfg.Device, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Device, err)
	}

	// Fd() would put the descriptor back into blocking mode, so termios
	// setup goes through the raw conn.
	rc, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", cfg.Device, err)
	}
	var state *term.State
	var cerr error
	err = rc.Control(func(fd uintptr) {
		state, cerr = term.MakeRaw(int(fd))
		if cerr == nil && cfg.Baud != 0 {
			if cerr = setBaud(int(fd), cfg.Baud); cerr != nil {
				_ = term.Restore(int(fd), state)
			}
		}
	})
	if err == nil {
		err = cerr
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("configuring %s: %w", cfg.Device, err)
	}
	return &Port{f: f, state: state}, nil
}

// Name returns the device path.
func (p *Port) Name() string { return p.f.Name() }

func (p *Port) Read(b []byte) (int, error) { return p.f.Read(b) }

func (p *Port) Write(b []byte) (int, error) { return p.f.Write(b) }

func (p *Port) SetReadDeadline(t time.Time) error { return p.f.SetReadDeadline(t) }

func (p *Port) SetWriteDeadline(t time.Time) error { return p.f.SetWriteDeadline(t) }

// Close restores the line settings found at Open and closes the device.
func (p *Port) Close() error {
	if rc, err := p.f.SyscallConn(); err == nil && p.state != nil {
		_ = rc.Control(func(fd uintptr) {
			_ = term.Restore(int(fd), p.state)
		})
	}
	return p.f.Close()
}
