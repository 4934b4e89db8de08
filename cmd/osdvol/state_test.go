package main

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

const floatEpsilon = 1e-9

func TestAudioState_VolumeUp(t *testing.T) {
	s := NewVolumeState(0.50, true)

	next, err := s.Apply(VolumeUp, defaultVolumeStep)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if math.Abs(next.Level-0.52) > floatEpsilon {
		t.Errorf("expected level 0.52, got %v", next.Level)
	}
	if next.Muted {
		t.Error("volume up must clear mute")
	}
	if !s.Muted || s.Level != 0.50 {
		t.Error("Apply must not modify the receiver")
	}
}

func TestAudioState_VolumeDownKeepsMute(t *testing.T) {
	s := NewVolumeState(0.50, true)
	next, err := s.Apply(VolumeDown, defaultVolumeStep)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if math.Abs(next.Level-0.48) > floatEpsilon {
		t.Errorf("expected level 0.48, got %v", next.Level)
	}
	if !next.Muted {
		t.Error("volume down must not change mute")
	}
}

func TestAudioState_Saturation(t *testing.T) {
	s := NewVolumeState(0.99, false)
	for i := 0; i < 5; i++ {
		s, _ = s.Apply(VolumeUp, defaultVolumeStep)
	}
	if s.Level != 1.0 {
		t.Errorf("expected level to saturate at 1.0, got %v", s.Level)
	}

	s = NewVolumeState(0.01, false)
	for i := 0; i < 5; i++ {
		s, _ = s.Apply(VolumeDown, defaultVolumeStep)
	}
	if s.Level != 0.0 {
		t.Errorf("expected level to saturate at 0.0, got %v", s.Level)
	}
}

// Repeated steps must land on exact two-decimal values, not drift.
func TestAudioState_NoFloatDrift(t *testing.T) {
	s := NewVolumeState(0.0, false)
	for i := 0; i < 25; i++ {
		s, _ = s.Apply(VolumeUp, defaultVolumeStep)
	}
	if s.Level != 0.5 {
		t.Errorf("expected exactly 0.5 after 25 steps, got %v", s.Level)
	}
}

func TestAudioState_MuteToggleInvolution(t *testing.T) {
	for _, muted := range []bool{false, true} {
		s := NewVolumeState(0.3, muted)
		once, _ := s.Apply(MuteToggle, defaultVolumeStep)
		twice, _ := once.Apply(MuteToggle, defaultVolumeStep)
		if once.Muted == muted {
			t.Errorf("one toggle from muted=%v did not flip", muted)
		}
		if twice != s {
			t.Errorf("two toggles: got %+v, want %+v", twice, s)
		}
	}
}

func TestAudioState_MicToggle(t *testing.T) {
	s := NewMicState(false)
	if !s.Hot() {
		t.Fatal("unmuted mic should be hot")
	}
	s, err := s.Apply(MicToggle, defaultVolumeStep)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Hot() || !s.Muted {
		t.Errorf("expected muted mic, got %+v", s)
	}
}

func TestAudioState_WrongMode(t *testing.T) {
	vol := NewVolumeState(0.5, false)
	got, err := vol.Apply(MicToggle, defaultVolumeStep)
	if !errors.Is(err, ErrWrongMode) {
		t.Errorf("expected ErrWrongMode, got %v", err)
	}
	if got != vol {
		t.Errorf("state changed on wrong-mode action: %+v", got)
	}

	mic := NewMicState(true)
	for _, a := range []Action{VolumeUp, VolumeDown, MuteToggle} {
		if _, err := mic.Apply(a, defaultVolumeStep); !errors.Is(err, ErrWrongMode) {
			t.Errorf("mic state + %s: expected ErrWrongMode, got %v", a, err)
		}
	}
}

// TestAudioState_RandomSequencesStayInRange applies seeded random action
// sequences and checks the level never leaves [0, 1].
func TestAudioState_RandomSequencesStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	volumeActions := []Action{VolumeUp, VolumeDown, MuteToggle}

	for run := 0; run < 200; run++ {
		s := NewVolumeState(rng.Float64(), rng.Intn(2) == 0)
		for i := 0; i < 100; i++ {
			a := volumeActions[rng.Intn(len(volumeActions))]
			prev := s
			var err error
			s, err = s.Apply(a, defaultVolumeStep)
			if err != nil {
				t.Fatalf("run %d step %d: %v", run, i, err)
			}
			if s.Level < 0 || s.Level > 1 {
				t.Fatalf("run %d step %d: level %v out of range", run, i, s.Level)
			}
			if a == VolumeUp && s.Muted {
				t.Fatalf("run %d step %d: muted after volume up", run, i)
			}
			if a == VolumeDown && s.Muted != prev.Muted {
				t.Fatalf("run %d step %d: volume down changed mute", run, i)
			}
		}
	}
}

func TestClampLevel(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.123456, 0.1235},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		if got := clampLevel(tt.in); got != tt.want {
			t.Errorf("clampLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSession_Expired(t *testing.T) {
	start := time.Unix(1000, 0)
	sess := newSession(NewVolumeState(0.5, false), start)
	timeout := 900 * time.Millisecond

	if sess.Expired(start.Add(899*time.Millisecond), timeout) {
		t.Error("session expired before timeout")
	}
	if !sess.Expired(start.Add(900*time.Millisecond), timeout) {
		t.Error("session must expire exactly at timeout")
	}

	sess.Touch(start.Add(800 * time.Millisecond))
	if sess.Expired(start.Add(1500*time.Millisecond), timeout) {
		t.Error("touch did not reset idle timer")
	}
	if got := sess.Idle(start.Add(1500 * time.Millisecond)); got != 700*time.Millisecond {
		t.Errorf("Idle = %v, want 700ms", got)
	}
	if sess.Mode() != ModeVolume {
		t.Errorf("Mode = %s, want volume", sess.Mode())
	}
}
