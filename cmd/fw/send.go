package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func sendCmd() *cobra.Command {
	var hexFlag bool
	cmd := &cobra.Command{
		Use:   "send [frame...]",
		Short: "Send frames to the device (args, or stdin lines)",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			decode := func(s string) ([]byte, error) {
				if hexFlag {
					return hex.DecodeString(s)
				}
				return []byte(s), nil
			}

			sent := 0
			sendOne := func(s string) error {
				p, err := decode(s)
				if err != nil {
					return fmt.Errorf("frame %d: %w", sent+1, err)
				}
				if err := dev.send(ctx, p); err != nil {
					return fmt.Errorf("frame %d: %w", sent+1, err)
				}
				sent++
				return nil
			}

			if len(args) > 0 {
				for _, a := range args {
					if err := sendOne(a); err != nil {
						return err
					}
				}
			} else {
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					if err := sendOne(sc.Text()); err != nil {
						return err
					}
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
			}

			fmt.Fprintf(os.Stderr, "[fw] sent %d frame(s) to %s\n", sent, dev.port.Name())
			return nil
		},
	}
	cmd.Flags().BoolVar(&hexFlag, "hex", false, "Frames are hex-encoded")
	return cmd
}
