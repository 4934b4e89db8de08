package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// camillaConnectAttempts bounds the startup dial; a hotkey tool cannot wait long.
const (
	camillaConnectAttempts = 3
	camillaRetryDelay      = 100 * time.Millisecond
)

// CamillaDSPClientInterface is the subset of the CamillaDSP websocket API the
// device backend needs. It allows mocking in tests.
type CamillaDSPClientInterface interface {
	GetVolume() (float64, error)
	SetVolume(targetDB float64) (float64, error)
	GetMute() (bool, error)
	SetMute(mute bool) error
	ToggleMute() (bool, error)
	Close() error
}

// CamillaDSPClient manages WebSocket communication with CamillaDSP
type CamillaDSPClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
}

// NewCamillaDSPClient creates a client and establishes the initial connection.
func NewCamillaDSPClient(wsURL string, logger *slog.Logger, readTimeout time.Duration) (*CamillaDSPClient, error) {
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}

	client := &CamillaDSPClient{
		url:         wsURL,
		logger:      logger,
		readTimeout: readTimeout,
	}

	if err := client.connectWithRetry(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *CamillaDSPClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	d := websocket.Dialer{
		HandshakeTimeout: c.readTimeout,
	}

	conn, _, err := d.Dial(c.url, nil)
	if err != nil {
		return err
	}

	c.conn = conn
	return nil
}

func (c *CamillaDSPClient) connectWithRetry() error {
	var lastErr error
	for attempt := 0; attempt < camillaConnectAttempts; attempt++ {
		err := c.connect()
		if err == nil {
			c.logger.Debug("connected to CamillaDSP", "url", c.url)
			return nil
		}
		lastErr = err
		c.logger.Debug("CamillaDSP connection failed; retrying", "error", err, "attempt", attempt+1)
		time.Sleep(camillaRetryDelay)
	}
	return fmt.Errorf("failed to connect after %d attempts: %w", camillaConnectAttempts, lastErr)
}

// sendAndRead sends one JSON text message and waits for the reply.
func (c *CamillaDSPClient) sendAndRead(v any) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("no websocket connection")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.readTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn = nil
		return nil, err
	}

	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	defer func() {
		if c.conn != nil {
			c.conn.SetReadDeadline(time.Time{})
		}
	}()

	_, message, err := c.conn.ReadMessage()
	if err != nil {
		c.conn = nil
		return nil, err
	}
	return message, nil
}

// Close closes the WebSocket connection
func (c *CamillaDSPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

// camillaReply is the common {"<Command>": {"result": ..., "value": ...}} envelope.
type camillaReply[T any] struct {
	Result string `json:"result"`
	Value  T      `json:"value"`
}

func camillaCall[T any](c *CamillaDSPClient, name string, cmd any) (T, error) {
	var zero T
	response, err := c.sendAndRead(cmd)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}

	var resp map[string]camillaReply[T]
	if err := json.Unmarshal(response, &resp); err != nil {
		return zero, fmt.Errorf("parse %s response: %w", name, err)
	}
	r, ok := resp[name]
	if !ok {
		return zero, fmt.Errorf("%s: unexpected response %s", name, response)
	}
	if r.Result != "Ok" {
		return zero, fmt.Errorf("%s: result %q", name, r.Result)
	}

	c.logger.Debug(name, "value", r.Value)
	return r.Value, nil
}

// GetVolume queries the Main fader volume in dB.
func (c *CamillaDSPClient) GetVolume() (float64, error) {
	return camillaCall[float64](c, "GetVolume", "GetVolume")
}

// SetVolume sets the Main fader volume and returns the requested value.
func (c *CamillaDSPClient) SetVolume(targetDB float64) (float64, error) {
	if _, err := camillaCall[json.RawMessage](c, "SetVolume", map[string]any{"SetVolume": targetDB}); err != nil {
		return 0, err
	}
	return targetDB, nil
}

// GetMute queries the Main mute state.
func (c *CamillaDSPClient) GetMute() (bool, error) {
	return camillaCall[bool](c, "GetMute", "GetMute")
}

// SetMute sets the Main mute state.
func (c *CamillaDSPClient) SetMute(mute bool) error {
	_, err := camillaCall[json.RawMessage](c, "SetMute", map[string]any{"SetMute": mute})
	return err
}

// ToggleMute flips Main mute and returns the new state.
func (c *CamillaDSPClient) ToggleMute() (bool, error) {
	return camillaCall[bool](c, "ToggleMute", "ToggleMute")
}

// ============================================================================
// CamillaDSP Device Backend
// ============================================================================
// Maps the 0.0-1.0 OSD level linearly onto [min_db, max_db]. CamillaDSP has
// no capture-side mute, so mic mode is unsupported.
//
// The websocket is dialed on first use: an invocation that only forwards its
// action to a running server never touches CamillaDSP.
// ============================================================================

type camillaDevice struct {
	client CamillaDSPClientInterface
	dial   func() (CamillaDSPClientInterface, error)
	minDB  float64
	maxDB  float64
	step   float64
	logger *slog.Logger
}

func newCamillaDevice(client CamillaDSPClientInterface, cfg CamillaDSPConfig, step float64, logger *slog.Logger) *camillaDevice {
	return &camillaDevice{
		client: client,
		minDB:  cfg.MinDB,
		maxDB:  cfg.MaxDB,
		step:   step,
		logger: logger,
	}
}

// newLazyCamillaDevice returns a device that dials CamillaDSP on first use.
func newLazyCamillaDevice(cfg CamillaDSPConfig, step float64, logger *slog.Logger) *camillaDevice {
	d := newCamillaDevice(nil, cfg, step, logger)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	d.dial = func() (CamillaDSPClientInterface, error) {
		return NewCamillaDSPClient(cfg.WsURL, logger, timeout)
	}
	return d
}

func (d *camillaDevice) conn() (CamillaDSPClientInterface, error) {
	if d.client != nil {
		return d.client, nil
	}
	if d.dial == nil {
		return nil, fmt.Errorf("camilladsp: no client")
	}
	client, err := d.dial()
	if err != nil {
		return nil, fmt.Errorf("camilladsp: %w", err)
	}
	d.client = client
	return client, nil
}

// Close releases the websocket if one was dialed.
func (d *camillaDevice) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *camillaDevice) levelFromDB(db float64) float64 {
	span := d.maxDB - d.minDB
	if span <= 0 {
		return 0
	}
	return clampLevel((db - d.minDB) / span)
}

func (d *camillaDevice) dbFromLevel(level float64) float64 {
	return d.minDB + clampLevel(level)*(d.maxDB-d.minDB)
}

func (d *camillaDevice) ReadState(_ context.Context, mode Mode) (AudioState, error) {
	if mode != ModeVolume {
		return AudioState{}, fmt.Errorf("camilladsp %s state: %w", mode, ErrUnsupported)
	}
	client, err := d.conn()
	if err != nil {
		return AudioState{}, err
	}
	db, err := client.GetVolume()
	if err != nil {
		return AudioState{}, err
	}
	muted, err := client.GetMute()
	if err != nil {
		return AudioState{}, err
	}
	return NewVolumeState(d.levelFromDB(db), muted), nil
}

func (d *camillaDevice) Apply(_ context.Context, a Action) error {
	if a == MicToggle {
		return fmt.Errorf("camilladsp %s: %w", a, ErrUnsupported)
	}
	if !a.Valid() {
		return fmt.Errorf("apply: %w: %d", ErrUnknownAction, uint8(a))
	}
	client, err := d.conn()
	if err != nil {
		return err
	}

	switch a {
	case VolumeUp, VolumeDown:
		db, err := client.GetVolume()
		if err != nil {
			return err
		}
		level := d.levelFromDB(db)
		if a == VolumeUp {
			level += d.step
			if err := client.SetMute(false); err != nil {
				return err
			}
		} else {
			level -= d.step
		}
		target := d.dbFromLevel(level)
		d.logger.Debug("camilladsp set volume", "action", a.String(), "target_db", target)
		_, err = client.SetVolume(target)
		return err
	default:
		_, err := client.ToggleMute()
		return err
	}
}
