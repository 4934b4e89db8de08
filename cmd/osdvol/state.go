package main

import (
	"fmt"
	"math"
)

// AudioState is the cached device state a session renders.
//
// It is a tagged union over two variants selected by Mode:
//   - ModeVolume: Level (0.0-1.0) and Muted describe the default sink.
//   - ModeMic: Muted describes the default source (false means hot); Level is unused.
//
// The state is only ever changed through Apply. Values coming off the wire are
// actions, never states.
type AudioState struct {
	Mode  Mode
	Level float64
	Muted bool
}

// NewVolumeState returns a volume-mode state with level clamped into [0, 1].
func NewVolumeState(level float64, muted bool) AudioState {
	return AudioState{Mode: ModeVolume, Level: clampLevel(level), Muted: muted}
}

// NewMicState returns a mic-mode state.
func NewMicState(muted bool) AudioState {
	return AudioState{Mode: ModeMic, Muted: muted}
}

// Hot reports whether a mic-mode state is live (not muted).
func (s AudioState) Hot() bool {
	return s.Mode == ModeMic && !s.Muted
}

// Apply returns the state after applying a. It performs no I/O.
//
// Applying an action of the other mode returns ErrWrongMode and the state
// unchanged; the coordinator checks modes before calling Apply and treats a
// mismatch as a window switch rather than an error.
func (s AudioState) Apply(a Action, step float64) (AudioState, error) {
	if a.Mode() != s.Mode {
		return s, fmt.Errorf("%w: %s on %s state", ErrWrongMode, a, s.Mode)
	}

	switch s.Mode {
	case ModeVolume:
		switch a {
		case VolumeUp:
			s.Level = clampLevel(s.Level + step)
			s.Muted = false
		case VolumeDown:
			s.Level = clampLevel(s.Level - step)
		case MuteToggle:
			s.Muted = !s.Muted
		default:
			return s, fmt.Errorf("%w: %s", ErrUnknownAction, a)
		}
	case ModeMic:
		switch a {
		case MicToggle:
			s.Muted = !s.Muted
		default:
			return s, fmt.Errorf("%w: %s", ErrUnknownAction, a)
		}
	default:
		return s, fmt.Errorf("unknown state mode %s", s.Mode)
	}
	return s, nil
}

// clampLevel saturates into [0, 1] and rounds away float drift from repeated steps.
func clampLevel(level float64) float64 {
	if math.IsNaN(level) {
		return 0
	}
	level = math.Round(level*levelPrecision) / levelPrecision
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}
