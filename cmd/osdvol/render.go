package main

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Rendered is what a Display needs to show one AudioState.
type Rendered struct {
	Icon string
	Text string
}

// RenderState computes icon and text for s. iconDir is prepended to the icon
// name when non-empty.
func RenderState(s AudioState, iconDir string) (Rendered, error) {
	var r Rendered
	switch s.Mode {
	case ModeVolume:
		r.Text = fmt.Sprintf("%.2f", s.Level*100)
		switch {
		case s.Muted || s.Level < muteThreshold:
			r.Icon = iconVolumeMute
		case s.Level < lowThreshold:
			r.Icon = iconVolumeLow
		case s.Level < midThreshold:
			r.Icon = iconVolumeMid
		default:
			r.Icon = iconVolumeHigh
		}
	case ModeMic:
		if s.Muted {
			r.Text, r.Icon = "MUTE", iconMicMute
		} else {
			r.Text, r.Icon = "HOT", iconMicHot
		}
	default:
		return Rendered{}, fmt.Errorf("render: unknown mode %s", s.Mode)
	}

	if iconDir != "" {
		r.Icon = filepath.Join(ExpandPath(iconDir), r.Icon)
	}
	return r, nil
}

// pushState renders s onto d. Both display calls are attempted; errors are joined.
func pushState(d Display, s AudioState, iconDir string) error {
	r, err := RenderState(s, iconDir)
	if err != nil {
		return err
	}
	return errors.Join(d.SetLevelText(r.Text), d.SetIcon(r.Icon))
}
