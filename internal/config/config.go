package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/codewiresh/framewire/internal/codec"
)

// Config is the top-level configuration loaded from config.toml.
type Config struct {
	Port    PortConfig    `toml:"port" yaml:"port"`
	Codec   CodecConfig   `toml:"codec" yaml:"codec"`
	Buffer  BufferConfig  `toml:"buffer" yaml:"buffer"`
	Bridge  BridgeConfig  `toml:"bridge" yaml:"bridge"`
	Capture CaptureConfig `toml:"capture" yaml:"capture"`
}

// PortConfig describes the serial device.
type PortConfig struct {
	// Device path, e.g. /dev/ttyUSB0.
	Device string `toml:"device" yaml:"device"`
	// Line speed. Zero keeps whatever the device is set to.
	Baud int `toml:"baud" yaml:"baud"`
	// Idle timeout per frame for listen and capture. Zero waits forever.
	ReadTimeout Duration `toml:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
}

// CodecConfig selects the framing used on the device.
type CodecConfig struct {
	Name     string `toml:"name" yaml:"name"`
	MaxFrame int    `toml:"max_frame,omitempty" yaml:"max_frame,omitempty"`
}

// BufferConfig sets the adapter's initial buffer capacities.
type BufferConfig struct {
	ReadCapacity  int `toml:"read_capacity,omitempty" yaml:"read_capacity,omitempty"`
	WriteCapacity int `toml:"write_capacity,omitempty" yaml:"write_capacity,omitempty"`
}

// BridgeConfig holds the websocket bridge settings.
type BridgeConfig struct {
	// Listen address (e.g. "127.0.0.1:9300").
	Listen string `toml:"listen" yaml:"listen"`
}

// CaptureConfig locates the capture journal.
type CaptureConfig struct {
	// Path to the SQLite database. Relative paths resolve against the data dir.
	DB string `toml:"db" yaml:"db"`
}

// Duration is a time.Duration written as a string ("500ms", "2s") in both
// TOML and YAML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

const DefaultListen = "127.0.0.1:9300"

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Codec:   CodecConfig{Name: "lines"},
		Bridge:  BridgeConfig{Listen: DefaultListen},
		Capture: CaptureConfig{DB: "capture.db"},
	}
}

// LoadConfig reads config.toml from dataDir, falling back to config.yaml,
// applies environment variable overrides and validates the result.
func LoadConfig(dataDir string) (*Config, error) {
	cfg := Default()

	tomlPath := filepath.Join(dataDir, "config.toml")
	yamlPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(tomlPath); err == nil {
		if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", tomlPath, err)
		}
	} else if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", yamlPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", yamlPath, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FRAMEWIRE_DEVICE"); v != "" {
		c.Port.Device = v
	}
	if v := os.Getenv("FRAMEWIRE_BAUD"); v != "" {
		baud, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FRAMEWIRE_BAUD: %w", err)
		}
		c.Port.Baud = baud
	}
	if v := os.Getenv("FRAMEWIRE_CODEC"); v != "" {
		c.Codec.Name = v
	}
	if v := os.Getenv("FRAMEWIRE_LISTEN"); v != "" {
		c.Bridge.Listen = v
	}
	if v := os.Getenv("FRAMEWIRE_CAPTURE_DB"); v != "" {
		c.Capture.DB = v
	}
	return nil
}

// Validate checks value ranges and that the codec name is registered. The
// device is not required here; commands that open it check for it.
func (c *Config) Validate() error {
	if c.Port.Baud < 0 {
		return fmt.Errorf("port.baud must not be negative, got %d", c.Port.Baud)
	}
	if c.Port.ReadTimeout < 0 {
		return fmt.Errorf("port.read_timeout must not be negative")
	}
	if _, err := codec.ByName(c.Codec.Name, c.Codec.MaxFrame); err != nil {
		return fmt.Errorf("codec.name: %w", err)
	}
	if c.Codec.MaxFrame < 0 {
		return fmt.Errorf("codec.max_frame must not be negative, got %d", c.Codec.MaxFrame)
	}
	if c.Buffer.ReadCapacity < 0 || c.Buffer.WriteCapacity < 0 {
		return fmt.Errorf("buffer capacities must not be negative")
	}
	return nil
}

// Save writes the config to config.toml inside dataDir, creating the
// directory if necessary.
func (c *Config) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, "config.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := c.Encode(f); err != nil {
		return fmt.Errorf("encoding config.toml: %w", err)
	}
	return nil
}

// Encode writes the config as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// CaptureDBPath resolves the capture database path against dataDir.
func (c *Config) CaptureDBPath(dataDir string) string {
	if c.Capture.DB == "" || filepath.IsAbs(c.Capture.DB) {
		return c.Capture.DB
	}
	return filepath.Join(dataDir, c.Capture.DB)
}
