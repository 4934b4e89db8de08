package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for osdvol.
//
// Every field has a default, so the config file is optional. Flags override
// file values through FlagOverrides.
type Config struct {
	// SocketPath is the well-known coordination socket. Empty means DefaultSocketPath().
	SocketPath string `yaml:"socket_path"`

	// VolumeStep is the absolute level change per up/down on the 0.0-1.0 scale.
	VolumeStep float64 `yaml:"volume_step"`

	Timing  TimingConfig  `yaml:"timing"`
	Device  DeviceConfig  `yaml:"device"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
}

type TimingConfig struct {
	IdleTimeoutMS    int `yaml:"idle_timeout_ms"`
	PollIntervalMS   int `yaml:"poll_interval_ms"`
	ConnectTimeoutMS int `yaml:"connect_timeout_ms"`
	IOTimeoutMS      int `yaml:"io_timeout_ms"`
}

func (t TimingConfig) IdleTimeout() time.Duration {
	return time.Duration(t.IdleTimeoutMS) * time.Millisecond
}

func (t TimingConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMS) * time.Millisecond
}

func (t TimingConfig) ConnectTimeout() time.Duration {
	return time.Duration(t.ConnectTimeoutMS) * time.Millisecond
}

func (t TimingConfig) IOTimeout() time.Duration {
	return time.Duration(t.IOTimeoutMS) * time.Millisecond
}

// Device backends
const (
	DeviceBackendWpctl      = "wpctl"
	DeviceBackendCamillaDSP = "camilladsp"
)

type DeviceConfig struct {
	Backend    string           `yaml:"backend"`
	Wpctl      WpctlConfig      `yaml:"wpctl"`
	CamillaDSP CamillaDSPConfig `yaml:"camilladsp"`
}

type WpctlConfig struct {
	Binary string `yaml:"binary"`
	Sink   string `yaml:"sink"`
	Source string `yaml:"source"`
}

type CamillaDSPConfig struct {
	WsURL     string  `yaml:"ws_url"`
	TimeoutMS int     `yaml:"timeout_ms"`
	MinDB     float64 `yaml:"min_db"`
	MaxDB     float64 `yaml:"max_db"`
}

// Display backends
const (
	DisplayBackendEww  = "eww"
	DisplayBackendTerm = "term"
	DisplayBackendNone = "none"
)

type DisplayConfig struct {
	Backend string    `yaml:"backend"`
	IconDir string    `yaml:"icon_dir"` // prepended to icon names when set
	Eww     EwwConfig `yaml:"eww"`
}

type EwwConfig struct {
	Binary       string `yaml:"binary"`
	ConfigDir    string `yaml:"config_dir,omitempty"`
	VolumeWindow string `yaml:"volume_window"`
	MicWindow    string `yaml:"mic_window"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		SocketPath: "",
		VolumeStep: defaultVolumeStep,
		Timing: TimingConfig{
			IdleTimeoutMS:    defaultIdleTimeoutMS,
			PollIntervalMS:   defaultPollIntervalMS,
			ConnectTimeoutMS: defaultConnectTimeoutMS,
			IOTimeoutMS:      defaultReadTimeoutMS,
		},
		Device: DeviceConfig{
			Backend: DeviceBackendWpctl,
			Wpctl: WpctlConfig{
				Binary: defaultWpctlBinary,
				Sink:   defaultWpctlSink,
				Source: defaultWpctlSource,
			},
			CamillaDSP: CamillaDSPConfig{
				WsURL:     defaultCamillaWsURL,
				TimeoutMS: defaultCamillaTimeoutMS,
				MinDB:     defaultCamillaMinDB,
				MaxDB:     defaultCamillaMaxDB,
			},
		},
		Display: DisplayConfig{
			Backend: DisplayBackendEww,
			Eww: EwwConfig{
				Binary:       defaultEwwBinary,
				VolumeWindow: defaultVolumeWindow,
				MicWindow:    defaultMicWindow,
			},
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/osdvol/config.yaml (or the
// ~/.config equivalent).
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "osdvol", "config.yaml")
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file: defaults only
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// LoadConfig loads path when given, otherwise the default config file when it
// exists, otherwise defaults.
func LoadConfig(path string) (Config, error) {
	if path != "" {
		return LoadConfigFile(path)
	}
	def := DefaultConfigPath()
	if def == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(def); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfigFile(def)
}

// FlagOverrides carries flag values that were explicitly set on the command
// line. A nil pointer means "not set"; a non-nil pointer is applied even when
// it holds the zero value.
type FlagOverrides struct {
	SocketPath     *string
	IdleTimeout    *time.Duration
	DeviceBackend  *string
	DisplayBackend *string
	LogLevel       *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.SocketPath != nil {
		cfg.SocketPath = *o.SocketPath
	}
	if o.IdleTimeout != nil {
		cfg.Timing.IdleTimeoutMS = int(o.IdleTimeout.Milliseconds())
	}
	if o.DeviceBackend != nil {
		cfg.Device.Backend = *o.DeviceBackend
	}
	if o.DisplayBackend != nil {
		cfg.Display.Backend = *o.DisplayBackend
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and fills derived defaults.
// It is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		c.SocketPath = DefaultSocketPath()
	}

	if c.VolumeStep <= 0 || c.VolumeStep > 1 {
		return errors.New("volume_step must be in (0, 1]")
	}

	// Timing
	if c.Timing.IdleTimeoutMS <= 0 {
		return errors.New("timing.idle_timeout_ms must be > 0")
	}
	if c.Timing.PollIntervalMS <= 0 || c.Timing.PollIntervalMS > maxPollIntervalMS {
		return fmt.Errorf("timing.poll_interval_ms must be between 1 and %d", maxPollIntervalMS)
	}
	if c.Timing.ConnectTimeoutMS <= 0 {
		return errors.New("timing.connect_timeout_ms must be > 0")
	}
	if c.Timing.IOTimeoutMS <= 0 {
		return errors.New("timing.io_timeout_ms must be > 0")
	}

	// Device
	switch c.Device.Backend {
	case DeviceBackendWpctl:
		if c.Device.Wpctl.Binary == "" || c.Device.Wpctl.Sink == "" || c.Device.Wpctl.Source == "" {
			return errors.New("device.wpctl.binary, sink and source must not be empty")
		}
	case DeviceBackendCamillaDSP:
		if c.Device.CamillaDSP.WsURL == "" {
			return errors.New("device.camilladsp.ws_url must not be empty")
		}
		if c.Device.CamillaDSP.TimeoutMS <= 0 {
			return errors.New("device.camilladsp.timeout_ms must be > 0")
		}
		if c.Device.CamillaDSP.MinDB >= c.Device.CamillaDSP.MaxDB {
			return errors.New("device.camilladsp.min_db must be < device.camilladsp.max_db")
		}
	default:
		return fmt.Errorf("device.backend must be %q or %q", DeviceBackendWpctl, DeviceBackendCamillaDSP)
	}

	// Display
	switch c.Display.Backend {
	case DisplayBackendEww:
		if c.Display.Eww.Binary == "" {
			return errors.New("display.eww.binary must not be empty")
		}
		if c.Display.Eww.VolumeWindow == "" || c.Display.Eww.MicWindow == "" {
			return errors.New("display.eww.volume_window and mic_window must not be empty")
		}
	case DisplayBackendTerm, DisplayBackendNone:
	default:
		return fmt.Errorf("display.backend must be one of %q, %q, %q",
			DisplayBackendEww, DisplayBackendTerm, DisplayBackendNone)
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
