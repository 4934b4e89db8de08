package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Device reads and changes the real mixer state.
//
// Implementations are free to shell out or talk to a daemon; the coordinator
// only relies on this contract.
type Device interface {
	// ReadState returns the current state for mode.
	ReadState(ctx context.Context, mode Mode) (AudioState, error)

	// Apply executes a against the mixer.
	Apply(ctx context.Context, a Action) error
}

// commandRunner runs an external program and returns its stdout.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return out, fmt.Errorf("%s %v: %w", name, args, err)
	}
	return out, nil
}

// NewDevice builds the device backend selected in cfg.
func NewDevice(cfg DeviceConfig, step float64, logger *slog.Logger) (Device, error) {
	switch cfg.Backend {
	case DeviceBackendWpctl:
		return newWpctlDevice(cfg.Wpctl, step, execRunner, logger), nil
	case DeviceBackendCamillaDSP:
		return newLazyCamillaDevice(cfg.CamillaDSP, step, logger), nil
	default:
		return nil, fmt.Errorf("unknown device backend %q", cfg.Backend)
	}
}
