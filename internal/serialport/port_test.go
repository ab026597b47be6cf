//go:build linux

package serialport

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"

	"github.com/codewiresh/framewire/internal/codec"
	"github.com/codewiresh/framewire/internal/framed"
)

// openPair opens a pty and returns the master side plus the slave opened
// through Open.
func openPair(t *testing.T, baud int) (*os.File, *Port) {
	t.Helper()
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		ptmx.Close()
		tty.Close()
	})

	p, err := Open(Config{Device: tty.Name(), Baud: baud})
	if err != nil {
		t.Fatalf("Open(%s): %v", tty.Name(), err)
	}
	t.Cleanup(func() { p.Close() })
	return ptmx, p
}

func TestRawModePassesBytesUnchanged(t *testing.T) {
	ptmx, p := openPair(t, 115200)

	// Canonical mode would hold this until a newline and translate \r.
	want := []byte{0x00, 'a', '\r', 0x03, 0xFF}
	if _, err := ptmx.Write(want); err != nil {
		t.Fatal(err)
	}

	got := make([]byte, len(want))
	p.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.ReadFull(p, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("read %q, want %q", got, want)
	}
}

func TestWriteReachesMaster(t *testing.T) {
	ptmx, p := openPair(t, 0)

	if _, err := p.Write([]byte("ping\n")); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 5)
	if _, err := io.ReadFull(ptmx, got); err != nil {
		t.Fatal(err)
	}
	if string(got) != "ping\n" {
		t.Fatalf("master read %q", got)
	}
}

func TestReadDeadline(t *testing.T) {
	_, p := openPair(t, 0)

	p.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
	_, err := p.Read(make([]byte, 8))
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("Read err = %v, want deadline exceeded", err)
	}
}

func TestUnsupportedBaud(t *testing.T) {
	_, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer tty.Close()

	_, err = Open(Config{Device: tty.Name(), Baud: 12345})
	if !errors.Is(err, ErrUnsupportedBaud) {
		t.Fatalf("err = %v, want ErrUnsupportedBaud", err)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	if _, err := Open(Config{Device: "/dev/framewire-does-not-exist"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAdapterOverPort(t *testing.T) {
	ptmx, p := openPair(t, 9600)
	a := framed.New[string, string](p, &codec.Lines{})

	go ptmx.Write([]byte("AT+OK\r\nREADY\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, want := range []string{"AT+OK", "READY"} {
		got, err := a.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Fatalf("Next = %q, want %q", got, want)
		}
	}

	if err := a.Send("AT"); err != nil {
		t.Fatal(err)
	}
	if err := a.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(ptmx, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "AT\n" {
		t.Fatalf("device received %q", buf)
	}

	// A cancelled context interrupts a blocked read through the deadline.
	short, stop := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer stop()
	if _, err := a.Next(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Next err = %v, want context.DeadlineExceeded", err)
	}
}
