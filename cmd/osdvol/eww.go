package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ewwCallTimeout bounds a single eww invocation so a wedged daemon cannot stall the loop.
const ewwCallTimeout = 500 * time.Millisecond

// ewwDisplay drives eww windows and variables through the eww CLI.
type ewwDisplay struct {
	binary    string
	configDir string
	windows   map[Mode]string
	run       commandRunner
	logger    *slog.Logger

	mode Mode // mode of the most recently opened window
}

func newEwwDisplay(cfg EwwConfig, run commandRunner, logger *slog.Logger) *ewwDisplay {
	return &ewwDisplay{
		binary:    cfg.Binary,
		configDir: ExpandPath(cfg.ConfigDir),
		windows: map[Mode]string{
			ModeVolume: cfg.VolumeWindow,
			ModeMic:    cfg.MicWindow,
		},
		run:    run,
		logger: logger,
	}
}

func (d *ewwDisplay) eww(args ...string) error {
	if d.configDir != "" {
		args = append([]string{"--config", d.configDir}, args...)
	}
	ctx, cancel := context.WithTimeout(context.Background(), ewwCallTimeout)
	defer cancel()

	d.logger.Debug("eww", "args", args)
	_, err := d.run(ctx, d.binary, args...)
	return err
}

func (d *ewwDisplay) window(mode Mode) (string, error) {
	w, ok := d.windows[mode]
	if !ok || w == "" {
		return "", fmt.Errorf("eww: no window configured for %s", mode)
	}
	return w, nil
}

func (d *ewwDisplay) Open(mode Mode) error {
	w, err := d.window(mode)
	if err != nil {
		return err
	}
	d.mode = mode
	return d.eww("open", w)
}

func (d *ewwDisplay) Close(mode Mode) error {
	w, err := d.window(mode)
	if err != nil {
		return err
	}
	return d.eww("close", w)
}

func (d *ewwDisplay) SetIcon(path string) error {
	v := ewwVarVolumeIcon
	if d.mode == ModeMic {
		v = ewwVarMicIcon
	}
	return d.eww("update", v+"="+path)
}

func (d *ewwDisplay) SetLevelText(text string) error {
	v := ewwVarVolumeLevel
	if d.mode == ModeMic {
		v = ewwVarMicState
	}
	return d.eww("update", v+"="+text)
}
