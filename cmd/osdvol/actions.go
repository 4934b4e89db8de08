package main

import (
	"fmt"
	"strings"
)

// ============================================================================
// Action Types
// ============================================================================
// An Action is the one thing a single invocation asks for. It is either run
// locally (first instance) or forwarded to the running server (later
// instances), never both.
// ============================================================================

// Action is a discrete user-requested operation.
type Action uint8

const (
	VolumeUp Action = iota
	VolumeDown
	MuteToggle
	MicToggle
)

// Mode identifies which OSD window an action (or state) belongs to.
type Mode uint8

const (
	ModeVolume Mode = iota
	ModeMic
)

func (m Mode) String() string {
	switch m {
	case ModeVolume:
		return "volume"
	case ModeMic:
		return "mic"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// actionTokens maps CLI tokens to actions.
var actionTokens = map[string]Action{
	"up":          VolumeUp,
	"down":        VolumeDown,
	"mute-toggle": MuteToggle,
	"mic-toggle":  MicToggle,
}

// ActionTokens lists accepted CLI tokens in a stable order (used for help and completion).
func ActionTokens() []string {
	return []string{"up", "down", "mute-toggle", "mic-toggle"}
}

// ParseAction converts a CLI token into an Action.
func ParseAction(token string) (Action, error) {
	a, ok := actionTokens[strings.TrimSpace(token)]
	if !ok {
		return 0, fmt.Errorf("%w: unexpected action %q (want one of %s)",
			ErrInvalidArgument, token, strings.Join(ActionTokens(), ", "))
	}
	return a, nil
}

// Valid reports whether a names a known action.
func (a Action) Valid() bool {
	return a <= MicToggle
}

// Mode returns the window mode the action is handled in.
func (a Action) Mode() Mode {
	if a == MicToggle {
		return ModeMic
	}
	return ModeVolume
}

func (a Action) String() string {
	switch a {
	case VolumeUp:
		return "up"
	case VolumeDown:
		return "down"
	case MuteToggle:
		return "mute-toggle"
	case MicToggle:
		return "mic-toggle"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}
