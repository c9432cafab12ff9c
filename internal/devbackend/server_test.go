package devbackend

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/notify"
	"github.com/medchain/inventory-console/tests/testutil"
)

const testToken = "dev-token"

func newTestServer(t *testing.T, token string) *Server {
	t.Helper()
	logger := testutil.NewLogger(t)
	return New(newTestInventory(), NewHub(logger), token, logger)
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestGetAlertsReturnsActiveAlerts(t *testing.T) {
	s := newTestServer(t, "")

	resp, body := doRequest(t, s, http.MethodGet, "/inventory/alerts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts []model.Alert
	require.NoError(t, json.Unmarshal(body, &alerts))
	require.Len(t, alerts, 4)
	assert.Equal(t, AlertActive, alerts[0].Status)
	assert.True(t, fixedNow.Equal(alerts[0].CreatedAt.Time))
}

func TestDismissAlertEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	resp, _ := doRequest(t, s, http.MethodPost, "/inventory/alerts/dismiss", `{"alert_id":"alert_1"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, s.inv.Alerts(), 3)

	resp, _ = doRequest(t, s, http.MethodPost, "/inventory/alerts/dismiss", `{"alert_id":"alert_1"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doRequest(t, s, http.MethodPost, "/inventory/alerts/dismiss", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokenIsRequiredWhenConfigured(t *testing.T) {
	s := newTestServer(t, testToken)

	req := httptest.NewRequest(http.MethodGet, "/inventory/supplies", nil)
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, s, http.MethodGet, "/inventory/supplies", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, err = s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAutoGenerateEndpoint(t *testing.T) {
	s := newTestServer(t, "")

	resp, body := doRequest(t, s, http.MethodPost, "/inventory/purchase-orders/auto-generate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"created":2`)

	_, body = doRequest(t, s, http.MethodGet, "/inventory/purchase-orders", "")
	var orders []model.PurchaseOrder
	require.NoError(t, json.Unmarshal(body, &orders))
	assert.Len(t, orders, 2)
}

func TestSetStockAndCheck(t *testing.T) {
	s := newTestServer(t, "")

	resp, _ := doRequest(t, s, http.MethodPatch, "/inventory/supplies/ms_002/stock", `{"current_stock":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doRequest(t, s, http.MethodPost, "/inventory/alerts/check", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"raised":1}`, string(body))

	resp, _ = doRequest(t, s, http.MethodPatch, "/inventory/supplies/ms_002/stock", `{"current_stock":-1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = doRequest(t, s, http.MethodPatch, "/inventory/supplies/nope/stock", `{"current_stock":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketRouteRejectsPlainRequests(t *testing.T) {
	s := newTestServer(t, "")
	resp, _ := doRequest(t, s, http.MethodGet, "/ws/notifications", "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	doRequest(t, s, http.MethodGet, "/inventory/suppliers", "")

	resp, body := doRequest(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "medchain_devbackend_requests_total")
}

// listen serves s on a loopback port and returns its host:port.
func listen(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.App().Listener(ln)
	t.Cleanup(func() { _ = s.Shutdown() })
	return ln.Addr().String()
}

func TestClientAgainstServer(t *testing.T) {
	s := newTestServer(t, testToken)
	addr := listen(t, s)
	ctx := context.Background()

	client := inventory.NewClient("http://"+addr, inventory.WithToken(testToken))
	snap, err := client.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Supplies, 5)
	assert.Len(t, snap.Alerts, 4)
	assert.Len(t, snap.Suppliers, 2)
	assert.Empty(t, snap.PurchaseOrders)

	require.NoError(t, client.DismissAlert(ctx, "alert_4"))
	assert.Len(t, s.inv.Alerts(), 3)

	_, err = inventory.NewClient("http://" + addr).Alerts(ctx)
	assert.True(t, inventory.IsAuthError(err))
}

func TestPushFramesReachTheStore(t *testing.T) {
	s := newTestServer(t, testToken)
	addr := listen(t, s)

	store := notify.NewStore(nil)
	mgr := notify.NewChannelManager(
		"ws://"+addr+"/ws/notifications",
		notify.NewWSDialer(testToken, time.Second),
		store, nil,
	)
	require.NoError(t, mgr.Connect())
	t.Cleanup(func() { _ = mgr.Close() })
	require.Eventually(t, func() bool { return s.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, body := doRequest(t, s, http.MethodPost, "/dev/notify", `{"title":"Fridge 3 offline","severity":"critical"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"delivered":1}`, string(body))

	require.Eventually(t, func() bool { return store.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	n := store.List()[0]
	assert.Equal(t, "Fridge 3 offline", n.Title)
	assert.Equal(t, model.KindSystem, n.Kind)
	assert.Equal(t, model.SeverityCritical, n.Severity)

	require.NoError(t, s.inv.SetStock("ms_004", 0))
	s.CheckAndBroadcast()
	require.Eventually(t, func() bool { return store.Len() == 2 }, 2*time.Second, 10*time.Millisecond)
	alert, ok := store.Get("alert_5")
	require.True(t, ok)
	assert.Equal(t, model.KindLowStock, alert.Kind)
	assert.Equal(t, "ms_004", alert.ItemID)
}

func TestPushRejectsMissingToken(t *testing.T) {
	s := newTestServer(t, testToken)
	addr := listen(t, s)

	_, err := notify.NewWSDialer("", time.Second).DialContext(context.Background(), "ws://"+addr+"/ws/notifications")
	assert.Error(t, err)
}
