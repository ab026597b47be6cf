package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewiresh/framewire/internal/codec"
	"github.com/codewiresh/framewire/internal/config"
	"github.com/codewiresh/framewire/internal/framed"
	"github.com/codewiresh/framewire/internal/serialport"
)

var (
	dataDirFlag  string
	deviceFlag   string
	baudFlag     int
	codecFlag    string
	logLevelFlag string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fw",
		Short:         "Frame-level tooling for serial devices",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevelFlag, os.Stderr)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default ~/.framewire)")
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "Serial device path")
	rootCmd.PersistentFlags().IntVarP(&baudFlag, "baud", "b", 0, "Line speed (0 keeps the device setting)")
	rootCmd.PersistentFlags().StringVarP(&codecFlag, "codec", "c", "", "Frame codec: "+strings.Join(codec.Names(), ", "))
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		listenCmd(),
		sendCmd(),
		consoleCmd(),
		captureCmd(),
		bridgeCmd(),
		ptyCmd(),
		configCmd(),
	)
	return rootCmd
}

func dataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	if dir := os.Getenv("FRAMEWIRE_DATA_DIR"); dir != "" {
		return dir
	}
	home := os.Getenv("HOME")
	if home == "" {
		fmt.Fprintln(os.Stderr, "[fw] WARNING: $HOME is not set, using /tmp/.framewire")
		return "/tmp/.framewire"
	}
	return filepath.Join(home, ".framewire")
}

// loadConfig loads the config file and applies the global flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(dataDir())
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Port.Device = deviceFlag
	}
	if flags.Changed("baud") {
		cfg.Port.Baud = baudFlag
	}
	if flags.Changed("codec") {
		cfg.Codec.Name = codecFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// device is an open serial port with a byte-level adapter on top.
type device struct {
	port        *serialport.Port
	adapter     *framed.Adapter[[]byte, []byte]
	readTimeout time.Duration
}

// openDevice opens the configured port. codecName overrides the configured
// codec when set.
func openDevice(cfg *config.Config, codecName string) (*device, error) {
	if cfg.Port.Device == "" {
		return nil, fmt.Errorf("no device configured (use --device, FRAMEWIRE_DEVICE or [port] device)")
	}
	if codecName == "" {
		codecName = cfg.Codec.Name
	}
	c, err := codec.ByName(codecName, cfg.Codec.MaxFrame)
	if err != nil {
		return nil, err
	}

	port, err := serialport.Open(serialport.Config{Device: cfg.Port.Device, Baud: cfg.Port.Baud})
	if err != nil {
		return nil, err
	}
	return &device{
		port:        port,
		adapter:     framed.New(port, c, adapterOptions(cfg)...),
		readTimeout: time.Duration(cfg.Port.ReadTimeout),
	}, nil
}

func adapterOptions(cfg *config.Config) []framed.Option {
	return []framed.Option{
		framed.WithReadCapacity(cfg.Buffer.ReadCapacity),
		framed.WithWriteCapacity(cfg.Buffer.WriteCapacity),
	}
}

// next reads one frame, bounded by the configured idle timeout.
func (d *device) next(ctx context.Context) ([]byte, error) {
	if d.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.readTimeout)
		defer cancel()
	}
	return d.adapter.Next(ctx)
}

// send queues p and flushes it.
func (d *device) send(ctx context.Context, p []byte) error {
	if err := d.adapter.Ready(ctx); err != nil {
		return err
	}
	if err := d.adapter.Send(p); err != nil {
		return err
	}
	return d.adapter.Flush(ctx)
}

// Close flushes pending output and closes the port.
func (d *device) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = d.adapter.Close(ctx)
	return d.port.Close()
}
