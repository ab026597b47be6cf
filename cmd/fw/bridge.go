package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/codewiresh/framewire/internal/auth"
	"github.com/codewiresh/framewire/internal/bridge"
	"github.com/codewiresh/framewire/internal/connection"
	"github.com/codewiresh/framewire/internal/store"
)

func bridgeCmd() *cobra.Command {
	var (
		listen  string
		capture bool
		qr      bool
	)
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Expose the device to websocket clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Bridge.Listen = listen
			}

			token, err := auth.LoadOrGenerate(dataDir())
			if err != nil {
				return err
			}

			dev, err := openDevice(cfg, "")
			if err != nil {
				return err
			}
			defer dev.Close()

			rd, wr := dev.adapter.Split()
			srv := bridge.New(token, connection.NewAdapterReader(rd), connection.NewAdapterWriter(wr))

			if capture {
				st, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				c, err := st.CaptureCreate(cmd.Context(), dev.port.Name(), cfg.Codec.Name)
				if err != nil {
					return fmt.Errorf("creating capture: %w", err)
				}
				fmt.Fprintf(os.Stderr, "[fw] recording to capture %s\n", c.ID)
				srv.Tap = func(dir store.Direction, p []byte) {
					if err := st.FrameAppend(context.Background(), c.ID, dir, p); err != nil {
						slog.Warn("capture append failed", "err", err)
					}
				}
			}

			ctx, cancel := signalContext()
			defer cancel()

			url := fmt.Sprintf("ws://%s/ws?token=%s", cfg.Bridge.Listen, token)
			fmt.Fprintf(os.Stderr, "[fw] bridging %s on %s\n", dev.port.Name(), url)
			if qr {
				code, err := qrcode.New(url, qrcode.Medium)
				if err != nil {
					return fmt.Errorf("rendering qr code: %w", err)
				}
				fmt.Fprint(os.Stderr, code.ToSmallString(false))
			}
			return srv.Run(ctx, cfg.Bridge.Listen)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from [bridge] listen)")
	cmd.Flags().BoolVar(&capture, "capture", false, "Record bridged frames into the capture journal")
	cmd.Flags().BoolVar(&qr, "qr", false, "Print the client URL as a QR code")
	return cmd
}
