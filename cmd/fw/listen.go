package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func listenCmd() *cobra.Command {
	var (
		format string
		count  int
	)
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print frames received from the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dev, err := openDevice(cfg, "")
			if err != nil {
				return err
			}
			defer dev.Close()

			ctx, cancel := signalContext()
			defer cancel()

			out := cmd.OutOrStdout()
			return readFrames(ctx, dev, count, func(p []byte) error {
				_, err := fmt.Fprintln(out, formatFrame(p, format))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "Output format: auto, text, plain, hex, dump")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after this many frames (0 = unlimited)")
	return cmd
}

// readFrames calls fn for each frame until the device ends, count frames
// have been read, the idle timeout passes or ctx is cancelled. Only device
// and fn errors are returned.
func readFrames(ctx context.Context, dev *device, count int, fn func([]byte) error) error {
	for n := 0; count == 0 || n < count; n++ {
		p, err := dev.next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, context.DeadlineExceeded):
			slog.Info("no frame within read timeout", "timeout", dev.readTimeout)
			return nil
		default:
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}
