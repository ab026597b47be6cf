package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewiresh/framewire/internal/config"
	"github.com/codewiresh/framewire/internal/store"
)

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	path := cfg.CaptureDBPath(dataDir())
	if path == "" {
		return nil, fmt.Errorf("no capture database configured ([capture] db)")
	}
	return store.NewSQLiteStore(path)
}

func captureCmd() *cobra.Command {
	var (
		count  int
		quiet  bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record frames received from the device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			dev, err := openDevice(cfg, "")
			if err != nil {
				return err
			}
			defer dev.Close()

			ctx, cancel := signalContext()
			defer cancel()

			c, err := st.CaptureCreate(ctx, dev.port.Name(), cfg.Codec.Name)
			if err != nil {
				return fmt.Errorf("creating capture: %w", err)
			}
			fmt.Fprintf(os.Stderr, "[fw] capture %s started\n", c.ID)

			out := cmd.OutOrStdout()
			recorded := 0
			err = readFrames(ctx, dev, count, func(p []byte) error {
				// Recording must survive the interrupt that ends the capture.
				if err := st.FrameAppend(context.WithoutCancel(ctx), c.ID, store.DirectionRx, p); err != nil {
					return fmt.Errorf("recording frame: %w", err)
				}
				recorded++
				if !quiet {
					fmt.Fprintln(out, formatFrame(p, format))
				}
				return nil
			})
			fmt.Fprintf(os.Stderr, "[fw] capture %s: %d frame(s)\n", c.ID, recorded)
			return err
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many frames (0 = unlimited)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print frames while recording")
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "Output format: auto, text, plain, hex, dump")

	cmd.AddCommand(captureListCmd(), captureShowCmd(), captureRmCmd())
	return cmd
}

func captureListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			captures, err := st.CaptureList(cmd.Context())
			if err != nil {
				return err
			}
			if len(captures) == 0 {
				fmt.Fprintln(os.Stderr, "no captures")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDEVICE\tCODEC\tFRAMES\tSTARTED")
			for _, c := range captures {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					c.ID, c.Device, c.Codec, c.FrameCount, c.StartedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func captureShowCmd() *cobra.Command {
	var (
		format  string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the frames of a capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			c, err := st.CaptureGet(ctx, args[0])
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("capture %q not found", args[0])
			}
			frames, err := st.FrameList(ctx, c.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					*store.Capture
					Frames []store.FrameRecord `json:"frames"`
				}{c, frames})
			}
			for _, f := range frames {
				fmt.Fprintf(out, "%6d %s %s %s\n",
					f.Seq, f.At.Local().Format("15:04:05.000"), f.Direction, formatFrame(f.Payload, format))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "Payload format: auto, text, plain, hex, dump")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the capture as JSON")
	return cmd
}

func captureRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete captures",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range args {
				if err := st.CaptureDelete(cmd.Context(), id); err != nil {
					return fmt.Errorf("deleting %s: %w", id, err)
				}
			}
			return nil
		},
	}
}
