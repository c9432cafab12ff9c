package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/metrics"
	"github.com/medchain/inventory-console/internal/model"
)

// DefaultReconnectDelay is the fixed wait between a closed channel and
// the next connection attempt.
const DefaultReconnectDelay = 5 * time.Second

// ErrClosed is returned by Connect after Close.
var ErrClosed = errors.New("channel manager closed")

// ErrNotNotification marks a well-formed frame of another type.
var ErrNotNotification = errors.New("frame is not a notification")

// Conn is an open push connection.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// WSDialer dials the backend's WebSocket notification endpoint.
type WSDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

// NewWSDialer returns a WSDialer. A non-empty token is sent as a Bearer
// Authorization header on the handshake.
func NewWSDialer(token string, handshakeTimeout time.Duration) *WSDialer {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &WSDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header: header,
	}
}

// DialContext implements Dialer.
func (d *WSDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, url, d.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: handshake status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return conn, nil
}

// ChannelOption customizes a ChannelManager.
type ChannelOption func(*ChannelManager)

// WithClock overrides the clock used for timestamps and reconnect timers.
func WithClock(c Clock) ChannelOption {
	return func(m *ChannelManager) { m.clock = c }
}

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) ChannelOption {
	return func(m *ChannelManager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithStateListener registers fn to be called whenever the channel
// opens (true) or closes (false).
func WithStateListener(fn func(connected bool)) ChannelOption {
	return func(m *ChannelManager) { m.onState = fn }
}

// ChannelManager keeps a push connection to the backend open and feeds
// inbound notification frames into the Store. A closed connection (or a
// failed dial) schedules exactly one reconnect after the fixed delay,
// forever, until Close.
type ChannelManager struct {
	url     string
	dialer  Dialer
	store   *Store
	clock   Clock
	delay   time.Duration
	logger  *zap.Logger
	onState func(bool)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    Conn
	timer   Timer
	closed  bool
	readers sync.WaitGroup
}

// NewChannelManager creates a manager for the given endpoint. Nothing is
// dialed until Connect.
func NewChannelManager(
	url string,
	dialer Dialer,
	store *Store,
	logger *zap.Logger,
	opts ...ChannelOption,
) *ChannelManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &ChannelManager{
		url:    url,
		dialer: dialer,
		store:  store,
		clock:  RealClock(),
		delay:  DefaultReconnectDelay,
		logger: logger.Named("channel"),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect makes one connection attempt. On failure a reconnect is
// scheduled and the dial error is returned.
func (m *ChannelManager) Connect() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.mu.Unlock()

	conn, err := m.dialer.DialContext(m.ctx, m.url)
	metrics.RecordDial(err)
	if err != nil {
		m.logger.Warn("push channel dial failed", zap.String("url", m.url), zap.Error(err))
		m.scheduleReconnect()
		return fmt.Errorf("connecting push channel: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		metrics.RecordDisconnect()
		return ErrClosed
	}
	m.conn = conn
	m.readers.Add(1)
	m.mu.Unlock()

	m.logger.Info("push channel connected", zap.String("url", m.url))
	m.notifyState(true)
	go m.readLoop(conn)
	return nil
}

// Connected reports whether a connection is currently open.
func (m *ChannelManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Close closes the open connection exactly once, cancels any pending
// reconnect and waits for the reader to exit. Later calls are no-ops.
func (m *ChannelManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	m.cancel()
	m.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	m.readers.Wait()
	return err
}

func (m *ChannelManager) readLoop(conn Conn) {
	defer m.readers.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClosed(conn, err)
			return
		}
		m.handleFrame(data)
	}
}

func (m *ChannelManager) handleFrame(data []byte) {
	n, err := DecodeFrame(data, m.clock.Now())
	if err != nil {
		metrics.RecordPushFrame(false)
		m.logger.Debug("dropping push frame", zap.Error(err), zap.ByteString("frame", data))
		return
	}
	metrics.RecordPushFrame(true)
	m.store.Add(n)
}

func (m *ChannelManager) handleClosed(conn Conn, err error) {
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	closed := m.closed
	m.mu.Unlock()

	metrics.RecordDisconnect()
	m.notifyState(false)
	if closed {
		return
	}

	m.logger.Info("push channel closed, reconnecting",
		zap.Duration("delay", m.delay), zap.Error(err))
	conn.Close()
	m.scheduleReconnect()
}

// scheduleReconnect arms the reconnect timer unless one is pending or
// the manager is closed.
func (m *ChannelManager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.timer != nil {
		return
	}
	m.timer = m.clock.AfterFunc(m.delay, m.reconnect)
}

func (m *ChannelManager) reconnect() {
	m.mu.Lock()
	m.timer = nil
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return
	}
	_ = m.Connect()
}

func (m *ChannelManager) notifyState(connected bool) {
	if m.onState != nil {
		m.onState(connected)
	}
}

// frame is the wire shape of an inbound push message.
type frame struct {
	Type             string          `json:"type"`
	ID               string          `json:"id"`
	NotificationType string          `json:"notification_type"`
	Title            string          `json:"title"`
	Message          string          `json:"message"`
	Timestamp        json.RawMessage `json:"timestamp"`
	Severity         string          `json:"severity"`
	ActionURL        string          `json:"action_url"`
	ItemID           string          `json:"item_id"`
}

// DecodeFrame turns a push frame into a Notification. Missing fields get
// defaults: a generated id, kind system, severity medium, the receipt
// time and the title "New Notification". An unreadable timestamp also
// falls back to the receipt time.
func DecodeFrame(data []byte, received time.Time) (model.Notification, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return model.Notification{}, fmt.Errorf("decoding push frame: %w", err)
	}
	if f.Type != "notification" {
		return model.Notification{}, fmt.Errorf("%w: type %q", ErrNotNotification, f.Type)
	}

	n := model.Notification{
		ID:        f.ID,
		Kind:      model.ParseKind(f.NotificationType),
		Title:     f.Title,
		Message:   f.Message,
		CreatedAt: received,
		Severity:  model.ParseSeverity(f.Severity),
		ActionURL: f.ActionURL,
		ItemID:    f.ItemID,
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if n.Title == "" {
		n.Title = "New Notification"
	}
	if len(f.Timestamp) > 0 {
		var ts model.Timestamp
		if err := json.Unmarshal(f.Timestamp, &ts); err == nil && !ts.IsZero() {
			n.CreatedAt = ts.Time
		}
	}
	return n, nil
}
