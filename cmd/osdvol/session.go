package main

import "time"

// Clock supplies wall-clock time to the accept loop. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Session is the server-owned state for one open OSD window.
//
// It pairs the cached AudioState with the last-activity timestamp. A session
// is only ever touched by the goroutine running the accept loop.
type Session struct {
	State        AudioState
	LastActivity time.Time
}

func newSession(state AudioState, now time.Time) *Session {
	return &Session{State: state, LastActivity: now}
}

// Mode returns the window mode of the session.
func (s *Session) Mode() Mode {
	return s.State.Mode
}

// Touch resets the idle timer.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// Idle returns how long the session has gone without input.
func (s *Session) Idle(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// Expired reports whether the session has been idle for at least timeout.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return s.Idle(now) >= timeout
}
