package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// wpctlDevice drives PipeWire through the wpctl CLI.
type wpctlDevice struct {
	binary string
	sink   string
	source string
	step   string
	run    commandRunner
	logger *slog.Logger
}

func newWpctlDevice(cfg WpctlConfig, step float64, run commandRunner, logger *slog.Logger) *wpctlDevice {
	return &wpctlDevice{
		binary: cfg.Binary,
		sink:   cfg.Sink,
		source: cfg.Source,
		step:   strconv.FormatFloat(step, 'f', -1, 64),
		run:    run,
		logger: logger,
	}
}

func (d *wpctlDevice) ReadState(ctx context.Context, mode Mode) (AudioState, error) {
	switch mode {
	case ModeVolume:
		out, err := d.run(ctx, d.binary, "get-volume", d.sink)
		if err != nil {
			return AudioState{}, fmt.Errorf("get sink volume: %w", err)
		}
		level, muted, err := parseWpctlVolume(string(out))
		if err != nil {
			return AudioState{}, err
		}
		return NewVolumeState(level, muted), nil

	case ModeMic:
		out, err := d.run(ctx, d.binary, "get-volume", d.source)
		if err != nil {
			return AudioState{}, fmt.Errorf("get source volume: %w", err)
		}
		return NewMicState(strings.Contains(string(out), wpctlMutedMarker)), nil

	default:
		return AudioState{}, fmt.Errorf("read state: unknown mode %s", mode)
	}
}

func (d *wpctlDevice) Apply(ctx context.Context, a Action) error {
	var cmds [][]string
	switch a {
	case VolumeUp:
		cmds = [][]string{
			{"set-mute", d.sink, "0"},
			{"set-volume", d.sink, d.step + "+", "-l", "1"},
		}
	case VolumeDown:
		cmds = [][]string{{"set-volume", d.sink, d.step + "-", "-l", "1"}}
	case MuteToggle:
		cmds = [][]string{{"set-mute", d.sink, "toggle"}}
	case MicToggle:
		cmds = [][]string{{"set-mute", d.source, "toggle"}}
	default:
		return fmt.Errorf("apply: %w: %d", ErrUnknownAction, uint8(a))
	}

	for _, args := range cmds {
		d.logger.Debug("wpctl", "args", args)
		if _, err := d.run(ctx, d.binary, args...); err != nil {
			return fmt.Errorf("apply %s: %w", a, err)
		}
	}
	return nil
}

// parseWpctlVolume parses `wpctl get-volume` output such as
// "Volume: 0.50" or "Volume: 0.50 [MUTED]".
func parseWpctlVolume(out string) (level float64, muted bool, err error) {
	found := false
	for _, field := range strings.Fields(out) {
		if field == wpctlMutedMarker {
			muted = true
			continue
		}
		if v, perr := strconv.ParseFloat(field, 64); perr == nil {
			level = v
			found = true
		}
	}
	if !found {
		return 0, false, fmt.Errorf("parse wpctl volume %q: no level", strings.TrimSpace(out))
	}
	return level, muted, nil
}
