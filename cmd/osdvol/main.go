// Package main provides the osdvol entry point.
//
// osdvol is bound to volume and mic keys. The first invocation applies the
// key's action, shows the OSD window and serves later key presses over a
// Unix socket until the keys go quiet. Later invocations only forward their
// action to that server.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

type cliFlags struct {
	configPath  string
	socketPath  string
	logLevel    string
	idleTimeout time.Duration
	device      string
	display     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   "osdvol <" + strings.Join(ActionTokens(), "|") + ">",
		Short: "Volume and mic on-screen display for key bindings",
		Long: "Applies a volume or microphone action and shows an on-screen display.\n" +
			"Repeated key presses are forwarded to the instance that owns the display.",
		Version:       version,
		ValidArgs:     ActionTokens(),
		Args:          validateActionArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "Path to YAML config file (default $XDG_CONFIG_HOME/osdvol/config.yaml when present)")
	flags.StringVar(&f.socketPath, "socket", "", "Coordination socket path (default $XDG_RUNTIME_DIR/"+socketName+")")
	flags.StringVar(&f.logLevel, "log-level", "warn", "Log level: error, warn, info, debug")
	flags.DurationVar(&f.idleTimeout, "idle-timeout", time.Duration(defaultIdleTimeoutMS)*time.Millisecond, "Close the display after this long without key presses")
	flags.StringVar(&f.device, "device", DeviceBackendWpctl, "Mixer backend: wpctl or camilladsp")
	flags.StringVar(&f.display, "display", DisplayBackendEww, "Display backend: eww, term or none")

	return cmd
}

func validateActionArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	_, err := ParseAction(args[0])
	return err
}

// overridesFromFlags collects only the flags the user actually set, so file
// values are not clobbered by flag defaults.
func overridesFromFlags(cmd *cobra.Command, f cliFlags) FlagOverrides {
	var o FlagOverrides
	flags := cmd.Flags()
	if flags.Changed("socket") {
		o.SocketPath = &f.socketPath
	}
	if flags.Changed("idle-timeout") {
		o.IdleTimeout = &f.idleTimeout
	}
	if flags.Changed("device") {
		o.DeviceBackend = &f.device
	}
	if flags.Changed("display") {
		o.DisplayBackend = &f.display
	}
	if flags.Changed("log-level") {
		o.LogLevel = &f.logLevel
	}
	return o
}

func run(cmd *cobra.Command, args []string, f cliFlags) error {
	action, err := ParseAction(args[0])
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	overridesFromFlags(cmd, f).Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(level, cmd.ErrOrStderr())

	device, err := NewDevice(cfg.Device, cfg.VolumeStep, logger)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	if c, ok := device.(interface{ Close() error }); ok {
		defer c.Close()
	}

	display, err := NewDisplay(cfg.Display, logger)
	if err != nil {
		return fmt.Errorf("failed to create display: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting", "action", action.String(), "socket", cfg.SocketPath,
		"device", cfg.Device.Backend, "display", cfg.Display.Backend)

	return NewCoordinator(&cfg, device, display, logger).Run(ctx, action)
}
