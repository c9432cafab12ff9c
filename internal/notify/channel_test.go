package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medchain/inventory-console/internal/model"
)

// fakeConn delivers queued frames until dropped by the "server" or
// closed by the client.
type fakeConn struct {
	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closes    int
	mu        sync.Mutex
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.frames:
		return 1, data, nil
	case <-c.done:
		return 0, nil, io.EOF
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.drop()
	return nil
}

// drop simulates a server-side close.
func (c *fakeConn) drop() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  error
	dials int
}

func (d *fakeDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.fail != nil {
		return nil, d.fail
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

func (d *fakeDialer) setFail(err error) {
	d.mu.Lock()
	d.fail = err
	d.mu.Unlock()
}

func newTestManager(t *testing.T) (*ChannelManager, *fakeDialer, *fakeClock, *Store) {
	t.Helper()
	dialer := &fakeDialer{}
	clock := newFakeClock()
	store := NewStore(nil)
	m := NewChannelManager("ws://backend/ws/notifications", dialer, store, nil, WithClock(clock))
	t.Cleanup(func() { _ = m.Close() })
	return m, dialer, clock, store
}

func TestLowStockFrameLandsInStore(t *testing.T) {
	m, dialer, _, store := newTestManager(t)
	require.NoError(t, m.Connect())

	dialer.conn(0).frames <- []byte(`{"type":"notification","notification_type":"low_stock",` +
		`"title":"Low Stock","message":"X low","severity":"high"}`)

	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	n := store.List()[0]
	assert.Equal(t, model.KindLowStock, n.Kind)
	assert.Equal(t, "Low Stock", n.Title)
	assert.Equal(t, "X low", n.Message)
	assert.Equal(t, model.SeverityHigh, n.Severity)
	assert.False(t, n.Read)
	assert.True(t, strings.HasPrefix(n.ID, "notification_"))
}

func TestMalformedFramesAreDropped(t *testing.T) {
	m, dialer, _, store := newTestManager(t)
	require.NoError(t, m.Connect())

	conn := dialer.conn(0)
	conn.frames <- []byte(`not json`)
	conn.frames <- []byte(`{"type":"heartbeat"}`)
	conn.frames <- []byte(`{"type":"notification","title":"ok"}`)

	require.Eventually(t, func() bool { return store.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ok", store.List()[0].Title)
	assert.True(t, m.Connected())
}

func TestClosedChannelReconnectsOnceAfterDelay(t *testing.T) {
	m, dialer, clock, _ := newTestManager(t)
	require.NoError(t, m.Connect())
	require.Equal(t, 1, dialer.dialCount())

	dialer.conn(0).drop()
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, m.Connected())

	clock.Advance(4999 * time.Millisecond)
	assert.Equal(t, 1, dialer.dialCount())

	clock.Advance(time.Millisecond)
	assert.Equal(t, 2, dialer.dialCount())
	assert.Zero(t, clock.Pending())
	assert.True(t, m.Connected())

	clock.Advance(time.Minute)
	assert.Equal(t, 2, dialer.dialCount())
}

func TestFailedDialKeepsRetryingAtFixedInterval(t *testing.T) {
	m, dialer, clock, _ := newTestManager(t)
	dialer.setFail(errors.New("connection refused"))

	require.Error(t, m.Connect())
	assert.Equal(t, 1, clock.Pending())

	for i := 2; i <= 4; i++ {
		clock.Advance(DefaultReconnectDelay)
		assert.Equal(t, i, dialer.dialCount())
		assert.Equal(t, 1, clock.Pending())
	}

	dialer.setFail(nil)
	clock.Advance(DefaultReconnectDelay)
	assert.Equal(t, 5, dialer.dialCount())
	assert.True(t, m.Connected())
	assert.Zero(t, clock.Pending())
}

func TestCloseCancelsPendingReconnect(t *testing.T) {
	m, dialer, clock, _ := newTestManager(t)
	require.NoError(t, m.Connect())

	dialer.conn(0).drop()
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, dialer.dialCount())
	assert.ErrorIs(t, m.Connect(), ErrClosed)
}

func TestCloseClosesConnectionOnce(t *testing.T) {
	m, dialer, clock, _ := newTestManager(t)
	require.NoError(t, m.Connect())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Equal(t, 1, dialer.conn(0).closeCount())
	assert.False(t, m.Connected())
	assert.Zero(t, clock.Pending())
}

func TestStateListenerSeesTransitions(t *testing.T) {
	dialer := &fakeDialer{}
	clock := newFakeClock()
	var (
		mu     sync.Mutex
		states []bool
	)
	m := NewChannelManager("ws://x", dialer, NewStore(nil), nil,
		WithClock(clock),
		WithStateListener(func(up bool) {
			mu.Lock()
			states = append(states, up)
			mu.Unlock()
		}),
	)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Connect())
	dialer.conn(0).drop()
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, states)
}

func TestDecodeFrameDefaults(t *testing.T) {
	received := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	n, err := DecodeFrame([]byte(`{"type":"notification"}`), received)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n.ID, "notification_"))
	assert.Equal(t, model.KindSystem, n.Kind)
	assert.Equal(t, model.SeverityMedium, n.Severity)
	assert.Equal(t, "New Notification", n.Title)
	assert.Equal(t, received, n.CreatedAt)
	assert.False(t, n.Read)
}

func TestDecodeFrameKeepsSuppliedFields(t *testing.T) {
	received := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	n, err := DecodeFrame([]byte(`{"type":"notification","id":"srv-1","notification_type":"expiry",
		"title":"Expiry","timestamp":"2024-02-28T09:00:00Z","severity":"critical",
		"action_url":"/inventory?item=ms_004","item_id":"ms_004"}`), received)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", n.ID)
	assert.Equal(t, model.KindExpiry, n.Kind)
	assert.Equal(t, model.SeverityCritical, n.Severity)
	assert.Equal(t, time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC), n.CreatedAt.UTC())
	assert.Equal(t, "ms_004", n.ItemID)

	n, err = DecodeFrame([]byte(`{"type":"notification","timestamp":1709289000000}`), received)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), n.CreatedAt.UTC())

	n, err = DecodeFrame([]byte(`{"type":"notification","timestamp":"yesterday-ish"}`), received)
	require.NoError(t, err)
	assert.Equal(t, received, n.CreatedAt)
}

func TestDecodeFrameRejects(t *testing.T) {
	_, err := DecodeFrame([]byte(`{"type":"ping"}`), time.Now())
	assert.ErrorIs(t, err, ErrNotNotification)

	_, err = DecodeFrame([]byte(`[1,2`), time.Now())
	assert.Error(t, err)
}
