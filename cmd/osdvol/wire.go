package main

import (
	"fmt"
	"io"
	"net"
	"time"
)

// ============================================================================
// Wire Protocol
// ============================================================================
// One message is exactly one byte: the Action tag. There is no framing, no
// sequence number and no acknowledgement. A client connects, writes one
// message and disconnects.
//
//   0 = up, 1 = down, 2 = mute-toggle, 3 = mic-toggle
// ============================================================================

// messageSize is the fixed width of one wire message.
const messageSize = 1

// EncodeAction returns the wire form of a.
func EncodeAction(a Action) ([messageSize]byte, error) {
	if !a.Valid() {
		return [messageSize]byte{}, fmt.Errorf("encode: %w: %d", ErrUnknownAction, uint8(a))
	}
	return [messageSize]byte{byte(a)}, nil
}

// DecodeAction parses one wire message.
func DecodeAction(b [messageSize]byte) (Action, error) {
	a := Action(b[0])
	if !a.Valid() {
		return 0, fmt.Errorf("decode: %w: %d", ErrUnknownAction, b[0])
	}
	return a, nil
}

// WriteAction writes exactly one message to w.
func WriteAction(w io.Writer, a Action) error {
	buf, err := EncodeAction(a)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write action: %w", err)
	}
	return nil
}

// ReadAction reads exactly one message from r.
// A short read yields io.ErrUnexpectedEOF (or io.EOF for an empty stream).
func ReadAction(r io.Reader) (Action, error) {
	var buf [messageSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read action: %w", err)
	}
	return DecodeAction(buf)
}

// readConnAction reads one message from an accepted connection under a deadline
// so a client that connects and never writes cannot stall the loop.
func readConnAction(conn net.Conn, timeout time.Duration) (Action, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, fmt.Errorf("set read deadline: %w", err)
	}
	return ReadAction(conn)
}
