package main

import (
	"fmt"
	"log/slog"
	"os"
)

// Display shows the OSD window for one mode.
//
// Every call must be idempotent and cheap enough to run on each loop tick.
type Display interface {
	Open(mode Mode) error
	Close(mode Mode) error
	SetIcon(path string) error
	SetLevelText(text string) error
}

// NewDisplay builds the display backend selected in cfg.
func NewDisplay(cfg DisplayConfig, logger *slog.Logger) (Display, error) {
	switch cfg.Backend {
	case DisplayBackendEww:
		return newEwwDisplay(cfg.Eww, execRunner, logger), nil
	case DisplayBackendTerm:
		return newTermDisplay(os.Stderr), nil
	case DisplayBackendNone:
		return nopDisplay{}, nil
	default:
		return nil, fmt.Errorf("unknown display backend %q", cfg.Backend)
	}
}

type nopDisplay struct{}

func (nopDisplay) Open(Mode) error           { return nil }
func (nopDisplay) Close(Mode) error          { return nil }
func (nopDisplay) SetIcon(string) error      { return nil }
func (nopDisplay) SetLevelText(string) error { return nil }
