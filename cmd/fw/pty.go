package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/creack/pty"
	"github.com/spf13/cobra"

	"github.com/codewiresh/framewire/internal/codec"
	"github.com/codewiresh/framewire/internal/connection"
	"github.com/codewiresh/framewire/internal/framed"
	"github.com/codewiresh/framewire/internal/serialport"
)

func ptyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pty",
		Short: "Create a loopback device that echoes every frame back",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c, err := codec.ByName(cfg.Codec.Name, cfg.Codec.MaxFrame)
			if err != nil {
				return err
			}

			ptmx, tty, err := pty.Open()
			if err != nil {
				return fmt.Errorf("opening pty: %w", err)
			}
			defer ptmx.Close()

			// Hold the slave open in raw mode so the pair survives clients
			// coming and going.
			slave, err := serialport.Open(serialport.Config{Device: tty.Name()})
			tty.Close()
			if err != nil {
				return err
			}
			defer slave.Close()

			ctx, cancel := signalContext()
			defer cancel()
			go func() {
				<-ctx.Done()
				ptmx.Close()
			}()

			a := framed.New(ptmx, c, adapterOptions(cfg)...)
			rd, wr := a.Split()

			fmt.Fprintln(cmd.OutOrStdout(), slave.Name())
			fmt.Fprintf(os.Stderr, "[fw] echoing %s frames on %s, Ctrl+C to stop\n", cfg.Codec.Name, slave.Name())

			n, err := connection.Copy(ctx, connection.NewAdapterWriter(wr), connection.NewAdapterReader(rd))
			slog.Info("loopback stopped", "frames", n, "stats", a.Stats())
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}
