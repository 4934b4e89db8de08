package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig_Validates(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.SocketPath != "/run/user/1000/"+socketName {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if cfg.Timing.IdleTimeout() != 900*time.Millisecond {
		t.Errorf("IdleTimeout = %v, want 900ms", cfg.Timing.IdleTimeout())
	}
	if cfg.Timing.PollInterval() > 10*time.Millisecond {
		t.Errorf("PollInterval = %v exceeds 10ms", cfg.Timing.PollInterval())
	}
}

func TestLoadConfigFile_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
volume_step: 0.05
timing:
  idle_timeout_ms: 1500
device:
  backend: camilladsp
  camilladsp:
    ws_url: ws://10.0.0.2:1234
display:
  backend: term
  icon_dir: /usr/share/icons/osd
logging:
  level: debug
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.VolumeStep != 0.05 {
		t.Errorf("VolumeStep = %v", cfg.VolumeStep)
	}
	if cfg.Timing.IdleTimeoutMS != 1500 {
		t.Errorf("IdleTimeoutMS = %d", cfg.Timing.IdleTimeoutMS)
	}
	// Unset fields keep their defaults.
	if cfg.Timing.PollIntervalMS != defaultPollIntervalMS {
		t.Errorf("PollIntervalMS = %d, want default", cfg.Timing.PollIntervalMS)
	}
	if cfg.Device.Backend != DeviceBackendCamillaDSP || cfg.Device.CamillaDSP.WsURL != "ws://10.0.0.2:1234" {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Device.CamillaDSP.MinDB != defaultCamillaMinDB {
		t.Errorf("MinDB = %v, want default", cfg.Device.CamillaDSP.MinDB)
	}
	if cfg.Display.Backend != DisplayBackendTerm || cfg.Display.IconDir != "/usr/share/icons/osd" {
		t.Errorf("Display = %+v", cfg.Display)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigFile_Empty(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, "# nothing here\n"))
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.VolumeStep != defaultVolumeStep {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFile_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":     "volume_stepp: 0.1\n",
		"trailing doc":      "volume_step: 0.1\n---\nvolume_step: 0.2\n",
		"wrong type":        "timing:\n  idle_timeout_ms: soon\n",
		"unknown sub-field": "device:\n  wpctl:\n    sinks: x\n",
	}
	for name, body := range tests {
		if _, err := LoadConfigFile(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestLoadConfig_NoDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Device.Backend != DeviceBackendWpctl {
		t.Errorf("expected default config, got %+v", cfg)
	}
}

func TestLoadConfig_DefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "osdvol"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "osdvol", "config.yaml"), []byte("volume_step: 0.1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.VolumeStep != 0.1 {
		t.Errorf("VolumeStep = %v, want 0.1 from default file", cfg.VolumeStep)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero step", func(c *Config) { c.VolumeStep = 0 }, "volume_step"},
		{"huge step", func(c *Config) { c.VolumeStep = 2 }, "volume_step"},
		{"zero idle", func(c *Config) { c.Timing.IdleTimeoutMS = 0 }, "idle_timeout_ms"},
		{"slow poll", func(c *Config) { c.Timing.PollIntervalMS = 50 }, "poll_interval_ms"},
		{"zero connect", func(c *Config) { c.Timing.ConnectTimeoutMS = 0 }, "connect_timeout_ms"},
		{"zero io", func(c *Config) { c.Timing.IOTimeoutMS = -1 }, "io_timeout_ms"},
		{"bad device", func(c *Config) { c.Device.Backend = "alsa" }, "device.backend"},
		{"empty sink", func(c *Config) { c.Device.Wpctl.Sink = "" }, "device.wpctl"},
		{"camilla db range", func(c *Config) {
			c.Device.Backend = DeviceBackendCamillaDSP
			c.Device.CamillaDSP.MinDB = 0
		}, "min_db"},
		{"camilla url", func(c *Config) {
			c.Device.Backend = DeviceBackendCamillaDSP
			c.Device.CamillaDSP.WsURL = ""
		}, "ws_url"},
		{"bad display", func(c *Config) { c.Display.Backend = "osd" }, "display.backend"},
		{"eww window", func(c *Config) { c.Display.Eww.MicWindow = "" }, "mic_window"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.SocketPath = "/tmp/x.sock"
		tt.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.want)
		}
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device.Backend = DeviceBackendCamillaDSP

	socket := "/tmp/osd.sock"
	idle := 2 * time.Second
	display := DisplayBackendNone
	FlagOverrides{SocketPath: &socket, IdleTimeout: &idle, DisplayBackend: &display}.Apply(&cfg)

	if cfg.SocketPath != socket {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if cfg.Timing.IdleTimeoutMS != 2000 {
		t.Errorf("IdleTimeoutMS = %d", cfg.Timing.IdleTimeoutMS)
	}
	if cfg.Display.Backend != DisplayBackendNone {
		t.Errorf("Display.Backend = %q", cfg.Display.Backend)
	}
	// Unset overrides leave file values alone.
	if cfg.Device.Backend != DeviceBackendCamillaDSP {
		t.Errorf("Device.Backend = %q, should be untouched", cfg.Device.Backend)
	}

	FlagOverrides{}.Apply(nil)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	tests := map[string]string{
		"":             "",
		"~":            "/home/tester",
		"~/icons":      "/home/tester/icons",
		"/abs/path":    "/abs/path",
		"rel/path":     "rel/path",
		"~other/thing": "~other/thing",
	}
	for in, want := range tests {
		if got := ExpandPath(in); got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}
