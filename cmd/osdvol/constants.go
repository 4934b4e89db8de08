package main

// Coordination defaults
const (
	defaultIdleTimeoutMS    = 900 // Session ends after this much input silence (ms)
	defaultPollIntervalMS   = 8   // Accept wait per loop tick (ms)
	defaultConnectTimeoutMS = 100 // Client dial timeout (ms)
	defaultReadTimeoutMS    = 50  // Per-connection read/write deadline (ms)

	socketName        = "osdvol.sock"
	lockSuffix        = ".lock"
	maxPollIntervalMS = 10 // Keeps tick-to-tick latency under 10ms
)

// Volume defaults
const (
	defaultVolumeStep = 0.02 // Absolute level change per up/down (0.0-1.0 scale)
	levelPrecision    = 1e4  // Levels are rounded to 4 decimal places
	muteThreshold     = 0.01 // Below this the volume icon shows muted
	lowThreshold      = 0.33
	midThreshold      = 0.66
)

// wpctl defaults
const (
	defaultWpctlBinary = "wpctl"
	defaultWpctlSink   = "@DEFAULT_AUDIO_SINK@"
	defaultWpctlSource = "@DEFAULT_AUDIO_SOURCE@"
	wpctlMutedMarker   = "[MUTED]"
)

// CamillaDSP defaults
const (
	defaultCamillaWsURL     = "ws://127.0.0.1:1234"
	defaultCamillaTimeoutMS = 500
	defaultCamillaMinDB     = -65.0
	defaultCamillaMaxDB     = 0.0
)

// eww defaults
const (
	defaultEwwBinary    = "eww"
	defaultVolumeWindow = "volume-float"
	defaultMicWindow    = "mic-float"

	ewwVarVolumeLevel = "volume-level"
	ewwVarVolumeIcon  = "volume-icon-resource"
	ewwVarMicState    = "mic-state"
	ewwVarMicIcon     = "mic-icon-resource"
)

// Icon resources
const (
	iconVolumeMute = "volume-mute.png"
	iconVolumeLow  = "volume-low.png"
	iconVolumeMid  = "volume-mid.png"
	iconVolumeHigh = "volume-high.png"
	iconMicMute    = "mic-mute.png"
	iconMicHot     = "mic-hot.png"
)
