package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/model"
)

func alertBackend(t *testing.T, status int, body string) *inventory.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return inventory.NewClient(srv.URL)
}

func TestFetchMapsBackendAlerts(t *testing.T) {
	client := alertBackend(t, http.StatusOK, `[
		{"alert_id":"a1","item_id":"ms_001","type":"low_stock","message":"15 left",
		 "created_at":"2024-03-01T10:30:00","severity":"high"},
		{"alert_id":"a2","item_id":"ms_004","type":"expiry","message":"expires soon",
		 "created_at":"2024-03-01T08:00:00"},
		{"alert_id":"a3","item_id":"ms_009","type":"something_else","message":"?",
		 "created_at":"2024-03-01T07:00:00","severity":"critical"}
	]`)
	s := NewStore(nil)
	s.Add(note("stale", true))
	f := NewFetcher(client, s, nil, nil)

	res := f.FetchSnapshot(context.Background())

	require.Equal(t, FetchApplied, res.Outcome)
	require.NoError(t, res.Err)
	list := s.List()
	require.Equal(t, []string{"a1", "a2", "a3"}, ids(list))

	assert.Equal(t, model.KindLowStock, list[0].Kind)
	assert.Equal(t, "Low Stock Alert", list[0].Title)
	assert.Equal(t, model.SeverityHigh, list[0].Severity)
	assert.Equal(t, "/inventory?item=ms_001", list[0].ActionURL)
	assert.Equal(t, "ms_001", list[0].ItemID)
	assert.Equal(t, 10, list[0].CreatedAt.Hour())

	assert.Equal(t, model.KindExpiry, list[1].Kind)
	assert.Equal(t, "Expiry Warning", list[1].Title)
	assert.Equal(t, model.SeverityMedium, list[1].Severity)

	assert.Equal(t, model.KindExpiry, list[2].Kind)
	for _, n := range list {
		assert.False(t, n.Read)
	}
	assert.Equal(t, 3, s.UnreadCount())
}

func TestFetchEmptyListEmptiesStore(t *testing.T) {
	s := NewStore(nil)
	s.Add(note("a", false))
	f := NewFetcher(alertBackend(t, http.StatusOK, `[]`), s, nil, nil)

	res := f.FetchSnapshot(context.Background())

	assert.Equal(t, FetchApplied, res.Outcome)
	assert.Zero(t, s.Len())
	assert.Zero(t, s.UnreadCount())
}

func TestFetchNetworkFailureInstallsFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	clock := newFakeClock()
	s := NewStore(nil)
	s.Add(note("a", false))
	f := NewFetcher(inventory.NewClient(url, inventory.WithTimeout(2*time.Second)), s, clock, nil)

	res := f.FetchSnapshot(context.Background())

	assert.Equal(t, FetchFallback, res.Outcome)
	assert.Error(t, res.Err)
	list := s.List()
	require.Equal(t, []string{"fallback_1", "fallback_2", "fallback_3"}, ids(list))
	assert.Equal(t, 2, s.UnreadCount())
	assert.True(t, list[2].Read)
	assert.Equal(t, clock.Now().Add(-30*time.Minute), list[0].CreatedAt)
}

func TestFetchMalformedBodyInstallsFallback(t *testing.T) {
	s := NewStore(nil)
	f := NewFetcher(alertBackend(t, http.StatusOK, `{"oops"`), s, nil, nil)

	res := f.FetchSnapshot(context.Background())

	assert.Equal(t, FetchFallback, res.Outcome)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.UnreadCount())
}

func TestFetchErrorStatusKeepsStore(t *testing.T) {
	s := NewStore(nil)
	s.Add(note("a", false))
	f := NewFetcher(alertBackend(t, http.StatusInternalServerError, `boom`), s, nil, nil)

	res := f.FetchSnapshot(context.Background())

	assert.Equal(t, FetchKept, res.Outcome)
	assert.True(t, inventory.IsStatusError(res.Err))
	assert.Equal(t, []string{"a"}, ids(s.List()))
}

func TestFetchSkipsLocallyDismissedAlerts(t *testing.T) {
	s := NewStore(nil)
	s.Add(note("a1", false))
	<-s.Dismiss(context.Background(), "a1")
	f := NewFetcher(alertBackend(t, http.StatusOK, `[
		{"alert_id":"a1","item_id":"ms_001","type":"low_stock","message":"m","created_at":"2024-03-01T10:30:00"},
		{"alert_id":"a2","item_id":"ms_002","type":"low_stock","message":"m","created_at":"2024-03-01T10:30:00"}
	]`), s, nil, nil)

	f.FetchSnapshot(context.Background())

	assert.Equal(t, []string{"a2"}, ids(s.List()))
}

func TestFetchCollapsesRepeatedAlertIDs(t *testing.T) {
	s := NewStore(nil)
	f := NewFetcher(alertBackend(t, http.StatusOK, `[
		{"alert_id":"a1","item_id":"ms_001","type":"low_stock","message":"first","created_at":"2024-03-01T10:30:00"},
		{"alert_id":"a1","item_id":"ms_001","type":"low_stock","message":"again","created_at":"2024-03-01T10:31:00"}
	]`), s, nil, nil)

	res := f.FetchSnapshot(context.Background())
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []string{"a1"}, ids(s.List()))
	assert.Equal(t, "first", s.List()[0].Message)

	<-s.Dismiss(context.Background(), "a1")
	assert.Zero(t, s.Len())
	assert.Zero(t, s.UnreadCount())
}

// gatedSource blocks each call until released, so fetch completion
// order can be controlled.
type gatedSource struct {
	mu    sync.Mutex
	gates []chan []model.Alert
	calls chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{calls: make(chan struct{}, 8)}
}

func (g *gatedSource) Alerts(ctx context.Context) ([]model.Alert, error) {
	gate := make(chan []model.Alert, 1)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	g.calls <- struct{}{}
	return <-gate, nil
}

func (g *gatedSource) release(i int, alerts []model.Alert) {
	g.mu.Lock()
	gate := g.gates[i]
	g.mu.Unlock()
	gate <- alerts
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	src := newGatedSource()
	s := NewStore(nil)
	f := NewFetcher(src, s, nil, nil)

	first := make(chan FetchResult, 1)
	go func() { first <- f.FetchSnapshot(context.Background()) }()
	<-src.calls
	second := make(chan FetchResult, 1)
	go func() { second <- f.FetchSnapshot(context.Background()) }()
	<-src.calls

	// The newer fetch resolves first; the older one must not overwrite it.
	src.release(1, []model.Alert{{AlertID: "new", Type: "low_stock"}})
	assert.Equal(t, FetchApplied, (<-second).Outcome)
	src.release(0, []model.Alert{{AlertID: "old", Type: "expiry"}})
	assert.Equal(t, FetchStale, (<-first).Outcome)

	assert.Equal(t, []string{"new"}, ids(s.List()))
}

func TestDismissDuringFetchApplyIsKept(t *testing.T) {
	src := newGatedSource()
	s := NewStore(nil)
	s.Add(note("a1", false))
	f := NewFetcher(src, s, nil, nil)

	done := make(chan FetchResult, 1)
	go func() { done <- f.FetchSnapshot(context.Background()) }()
	<-src.calls

	// Hold the apply step so the snapshot is mapped before the dismiss
	// lands but installed after it.
	f.mu.Lock()
	src.release(0, []model.Alert{{AlertID: "a1", Type: "low_stock"}, {AlertID: "a2", Type: "expiry"}})
	time.Sleep(20 * time.Millisecond)
	<-s.Dismiss(context.Background(), "a1")
	assert.Equal(t, 0, s.Len())
	f.mu.Unlock()

	res := <-done
	assert.Equal(t, FetchApplied, res.Outcome)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []string{"a2"}, ids(s.List()))
}
