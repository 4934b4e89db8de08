package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// ============================================================================
// IPC - Unix Domain Socket Coordination Channel
// ============================================================================
// The channel lives at a well-known path. Whoever holds it is the server.
//
// Exclusivity is decided by the kernel, never by in-process state:
//   1. flock(LOCK_EX|LOCK_NB) on "<socket>.lock"; a held lock means a live
//      server exists and the caller must fail closed.
//   2. With the lock held, any socket file left by a killed server is stale
//      and is removed unconditionally.
//   3. bind(2) on the socket path.
//
// The lock dies with the process, so an unclean exit never blocks the next
// server. The lock file itself is never removed.
// ============================================================================

// Channel is the server side of the coordination socket.
type Channel struct {
	path string
	lock *os.File
	ln   *net.UnixListener
}

// Bind acquires the coordination channel at path.
// It returns an error wrapping ErrServerRunning when another process holds it,
// and ErrChannelUnavailable for every other setup failure.
func Bind(path string) (*Channel, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: create socket dir: %w", ErrChannelUnavailable, err)
	}

	lock, err := os.OpenFile(path+lockSuffix, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open lock file: %w", ErrChannelUnavailable, err)
	}
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lock.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrServerRunning, path)
		}
		return nil, fmt.Errorf("%w: lock %s: %w", ErrChannelUnavailable, lock.Name(), err)
	}

	release := func() {
		_ = unix.Flock(int(lock.Fd()), unix.LOCK_UN)
		lock.Close()
	}

	// Stale socket from a previous unclean shutdown
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		release()
		return nil, fmt.Errorf("%w: remove stale socket: %w", ErrChannelUnavailable, err)
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		release()
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%w: %s", ErrServerRunning, path)
		}
		return nil, fmt.Errorf("%w: listen on %s: %w", ErrChannelUnavailable, path, err)
	}
	ln.SetUnlinkOnClose(true)

	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		release()
		return nil, fmt.Errorf("%w: chmod socket: %w", ErrChannelUnavailable, err)
	}

	return &Channel{path: path, lock: lock, ln: ln}, nil
}

// Path returns the socket path.
func (c *Channel) Path() string {
	return c.path
}

// Accept waits up to wait for one incoming connection.
// It returns (nil, nil) when the wait elapses with nothing pending.
func (c *Channel) Accept(wait time.Duration) (net.Conn, error) {
	if err := c.ln.SetDeadline(time.Now().Add(wait)); err != nil {
		return nil, fmt.Errorf("set accept deadline: %w", err)
	}
	conn, err := c.ln.Accept()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil
		}
		return nil, err
	}
	return conn, nil
}

// Close stops listening, removes the socket file and releases the lock.
// It is safe to call more than once.
func (c *Channel) Close() error {
	if c.ln == nil {
		return nil
	}
	err := c.ln.Close()
	c.ln = nil

	if rmErr := os.Remove(c.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
		err = fmt.Errorf("remove socket: %w", rmErr)
	}

	_ = unix.Flock(int(c.lock.Fd()), unix.LOCK_UN)
	if cerr := c.lock.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// ============================================================================
// IPC Client
// ============================================================================

// TryConnect dials the server socket. It wraps ErrNoServer when nothing is listening.
func TryConnect(path string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %v", ErrNoServer, path, err)
	}
	return conn, nil
}

// Forward writes a single action onto an already connected handle.
// Failures are returned as-is and never retried.
func Forward(conn net.Conn, a Action, timeout time.Duration) error {
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return WriteAction(conn, a)
}

// DefaultSocketPath returns $XDG_RUNTIME_DIR/osdvol.sock, or a per-user path
// under the temp directory when no runtime dir is set.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, socketName)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("osdvol-%d.sock", unix.Getuid()))
}
