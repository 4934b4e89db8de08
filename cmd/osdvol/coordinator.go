package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ============================================================================
// Coordinator - single-instance OSD server
// ============================================================================
//
// Every invocation calls Run:
//   - If a server answers on the socket, forward the action and return (client).
//   - Otherwise take the channel, execute the action on the device, then
//     serve.
//   - If another process holds the channel, forward to it once it listens.
//   - If the channel cannot be used at all, execute the action without OSD.
//
// The server runs one session per window mode. A session owns the channel,
// the display window and the cached AudioState, and ends when:
//   - no message arrives for the idle timeout (process exits)
//   - an action for the other mode arrives (a new session starts in that mode)
//   - ctx is canceled
//
// Cleanup of the display and the channel is deferred, so it runs on every one
// of those paths.
//
// The loop is single-goroutine. Each tick waits at most pollInterval for a
// connection; that wait is the only suspension point.
// ============================================================================

// Coordinator decides the server/client role and runs the accept loop.
type Coordinator struct {
	socketPath     string
	idleTimeout    time.Duration
	pollInterval   time.Duration
	connectTimeout time.Duration
	ioTimeout      time.Duration
	step           float64
	iconDir        string

	device  Device
	display Display
	clock   Clock
	logger  *slog.Logger
}

// NewCoordinator builds a Coordinator from a validated config.
func NewCoordinator(cfg *Config, device Device, display Display, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		socketPath:     ExpandPath(cfg.SocketPath),
		idleTimeout:    cfg.Timing.IdleTimeout(),
		pollInterval:   cfg.Timing.PollInterval(),
		connectTimeout: cfg.Timing.ConnectTimeout(),
		ioTimeout:      cfg.Timing.IOTimeout(),
		step:           cfg.VolumeStep,
		iconDir:        cfg.Display.IconDir,
		device:         device,
		display:        display,
		clock:          systemClock{},
		logger:         logger,
	}
}

// Run handles one invocation end to end.
//
// The channel is acquired before the action touches the device, so an
// invocation that loses the server race forwards its action to the winner
// instead of changing the mixer behind the winner's cached state.
//
// It returns nil after a successful hand-off to a live server, after a full
// server lifetime, and whenever the channel cannot be used after the action
// was executed locally. Only a failed mixer call or a failed initial state
// read is an error.
func (c *Coordinator) Run(ctx context.Context, a Action) error {
	if c.forward(a) {
		return nil
	}

	ch, err := Bind(c.socketPath)
	switch {
	case errors.Is(err, ErrServerRunning):
		// The winner holds the lock but may not be accepting yet.
		if c.forwardWithin(ctx, a, c.connectTimeout) {
			return nil
		}
		c.logger.Info("server not reachable; acting locally without OSD", "action", a.String(), "error", err)
		return c.applyLocal(ctx, a)
	case err != nil:
		c.logger.Warn("coordination channel unavailable; acting locally without OSD",
			"action", a.String(), "socket", c.socketPath, "error", err)
		return c.applyLocal(ctx, a)
	}

	if err := c.device.Apply(ctx, a); err != nil {
		if cerr := ch.Close(); cerr != nil {
			c.logger.Warn("failed to release channel", "socket", c.socketPath, "error", cerr)
		}
		return fmt.Errorf("apply %s: %w", a, err)
	}
	return c.Serve(ctx, ch, a.Mode())
}

// forward hands a to a live server. It reports whether the hand-off succeeded.
func (c *Coordinator) forward(a Action) bool {
	conn, err := TryConnect(c.socketPath, c.connectTimeout)
	if err != nil {
		c.logger.Debug("no server found", "error", err)
		return false
	}
	defer conn.Close()

	if err := Forward(conn, a, c.ioTimeout); err != nil {
		c.logger.Warn("forward failed", "action", a.String(), "error", err)
		return false
	}
	c.logger.Debug("forwarded action to server", "action", a.String(), "socket", c.socketPath)
	return true
}

// forwardWithin retries forward every poll interval until wait elapses.
func (c *Coordinator) forwardWithin(ctx context.Context, a Action, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for {
		if c.forward(a) {
			return true
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(c.pollInterval)
	}
}

func (c *Coordinator) applyLocal(ctx context.Context, a Action) error {
	if err := c.device.Apply(ctx, a); err != nil {
		return fmt.Errorf("apply %s: %w", a, err)
	}
	return nil
}

// Serve runs sessions on the already bound ch, starting in mode, until the
// idle timeout or ctx cancellation. The action that selected mode must
// already have been applied to the device; its effect shows up in the freshly
// read state. Serve always releases ch.
func (c *Coordinator) Serve(ctx context.Context, ch *Channel, mode Mode) error {
	for {
		pending, err := c.runSession(ctx, ch, mode)
		if err != nil || pending == nil {
			return err
		}
		c.logger.Debug("switching window", "from", mode.String(), "to", pending.Mode().String())
		mode = pending.Mode()

		ch, err = Bind(c.socketPath)
		if err != nil {
			// The switching action is already on the device.
			c.logger.Warn("could not re-acquire channel; exiting without OSD", "mode", mode.String(), "error", err)
			return nil
		}
	}
}

// runSession owns ch and the display for one window mode and releases both
// on return. It returns the action that forced a mode switch, or nil when the
// session ended by idle timeout or cancellation.
func (c *Coordinator) runSession(ctx context.Context, ch *Channel, mode Mode) (*Action, error) {
	defer func() {
		if err := ch.Close(); err != nil {
			c.logger.Warn("failed to release channel", "socket", c.socketPath, "error", err)
		}
	}()

	state, err := c.device.ReadState(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceRead, mode, err)
	}

	if err := c.display.Open(mode); err != nil {
		c.logger.Warn("display open failed", "mode", mode.String(), "error", err)
	}
	defer func() {
		if err := c.display.Close(mode); err != nil {
			c.logger.Warn("display close failed", "mode", mode.String(), "error", err)
		}
	}()

	sess := newSession(state, c.clock.Now())
	c.render(sess.State)

	c.logger.Debug("session started", "mode", mode.String(), "socket", ch.Path(),
		"level", sess.State.Level, "muted", sess.State.Muted)

	for {
		if ctx.Err() != nil {
			c.logger.Debug("session stopping (context canceled)", "mode", mode.String())
			return nil, nil
		}

		conn, err := ch.Accept(c.pollInterval)
		if err != nil {
			c.logger.Warn("accept failed", "error", err)
			time.Sleep(c.pollInterval)
		}

		if conn != nil {
			a, rerr := readConnAction(conn, c.ioTimeout)
			conn.Close()
			if rerr == nil {
				if a.Mode() != sess.Mode() {
					if err := c.device.Apply(ctx, a); err != nil {
						c.logger.Warn("device apply failed", "action", a.String(), "error", err)
					}
					return &a, nil
				}
				c.handle(ctx, sess, a)
				continue
			}
			c.logger.Debug("dropped message", "error", rerr)
		}

		if sess.Expired(c.clock.Now(), c.idleTimeout) {
			c.logger.Debug("session idle; closing", "mode", mode.String(), "idle", sess.Idle(c.clock.Now()))
			return nil, nil
		}
	}
}

// handle applies one same-mode action: state, device, display, idle timer.
func (c *Coordinator) handle(ctx context.Context, sess *Session, a Action) {
	next, err := sess.State.Apply(a, c.step)
	if err != nil {
		c.logger.Warn("state transition failed", "action", a.String(), "error", err)
		return
	}
	sess.State = next

	if err := c.device.Apply(ctx, a); err != nil {
		c.logger.Warn("device apply failed", "action", a.String(), "error", err)
	}
	c.render(sess.State)
	sess.Touch(c.clock.Now())

	c.logger.Debug("applied action", "action", a.String(), "level", next.Level, "muted", next.Muted)
}

func (c *Coordinator) render(s AudioState) {
	if err := pushState(c.display, s, c.iconDir); err != nil {
		c.logger.Debug("display update failed", "error", err)
	}
}
