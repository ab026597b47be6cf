package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/codewiresh/framewire/internal/connection"
	"github.com/codewiresh/framewire/internal/terminal"
)

func consoleCmd() *cobra.Command {
	var (
		raw    bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive session: stdin lines go out as frames, frames are printed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			codecName := ""
			if raw {
				codecName = "raw"
			}
			dev, err := openDevice(cfg, codecName)
			if err != nil {
				return err
			}
			defer dev.Close()

			ctx, cancel := signalContext()
			defer cancel()

			if raw {
				return runRawConsole(ctx, dev, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return runLineConsole(ctx, dev, cmd.InOrStdin(), cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Raw terminal: keystrokes go out as typed (Ctrl+] q quits)")
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "Output format for received frames: auto, text, plain, hex, dump")
	return cmd
}

// pumpDevice prints device frames until the device ends or fails.
func pumpDevice(ctx context.Context, r connection.FrameReader, print func([]byte)) <-chan error {
	done := make(chan error, 1)
	go func() {
		for {
			p, err := r.ReadFrame(ctx)
			if errors.Is(err, io.EOF) {
				done <- nil
				return
			}
			if err != nil {
				done <- err
				return
			}
			print(p)
		}
	}()
	return done
}

func runLineConsole(ctx context.Context, dev *device, in io.Reader, out io.Writer, format string) error {
	rd, wr := dev.adapter.Split()
	reader := connection.NewAdapterReader(rd)
	writer := connection.NewAdapterWriter(wr)

	devDone := pumpDevice(ctx, reader, func(p []byte) {
		fmt.Fprintln(out, formatFrame(p, format))
	})

	// Stdin cannot be interrupted, so it is read on its own goroutine.
	lines := make(chan []byte)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- append([]byte(nil), sc.Bytes()...):
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintf(os.Stderr, "[fw] connected to %s, Ctrl+D to quit\n", dev.port.Name())
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := writer.WriteFrame(ctx, line); err != nil {
				return err
			}
		case err := <-devDone:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

func runRawConsole(ctx context.Context, dev *device, in io.Reader, out io.Writer) error {
	rd, wr := dev.adapter.Split()
	writer := connection.NewAdapterWriter(wr)

	fmt.Fprintf(os.Stderr, "[fw] connected to %s, Ctrl+] q to quit\r\n", dev.port.Name())
	if f, ok := in.(*os.File); ok && terminal.IsTerminal(f) {
		guard, err := terminal.EnableRawMode(f)
		if err != nil {
			return fmt.Errorf("enabling raw mode: %w", err)
		}
		defer guard.Restore()
		defer io.WriteString(out, terminal.ResetModes)
	}

	devDone := pumpDevice(ctx, connection.NewAdapterReader(rd), func(p []byte) {
		out.Write(p)
	})

	keys := make(chan []byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 256)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				select {
				case keys <- append([]byte(nil), buf[:n]...):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	esc := terminal.NewEscapeDetector()
	for {
		select {
		case chunk, ok := <-keys:
			if !ok {
				return nil
			}
			quit, fwd := esc.Feed(chunk)
			if len(fwd) > 0 {
				if err := writer.WriteFrame(ctx, fwd); err != nil {
					return err
				}
			}
			if quit {
				return nil
			}
		case err := <-devDone:
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
