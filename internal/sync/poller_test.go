package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/notify"
)

type stubFetcher struct {
	calls  atomic.Int32
	manual atomic.Int32
	result atomic.Value // notify.FetchResult
}

func newStubFetcher(res notify.FetchResult) *stubFetcher {
	f := &stubFetcher{}
	f.result.Store(res)
	return f
}

func (f *stubFetcher) FetchSnapshot(context.Context) notify.FetchResult {
	f.calls.Add(1)
	return f.result.Load().(notify.FetchResult)
}

func (f *stubFetcher) Refresh(ctx context.Context) notify.FetchResult {
	f.manual.Add(1)
	return f.FetchSnapshot(ctx)
}

func TestStartFetchesImmediately(t *testing.T) {
	f := newStubFetcher(notify.FetchResult{Outcome: notify.FetchApplied, Count: 2})
	p := New(f, notify.NewStore(nil), 0, nil)
	p.Start()
	t.Cleanup(p.Stop)

	msg := p.WaitForNextResult()()
	res, ok := msg.(SyncResultMsg)
	require.True(t, ok)
	assert.Equal(t, notify.FetchApplied, res.Result.Outcome)
	assert.Nil(t, res.AuthError)
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.False(t, p.Status().LastSync.IsZero())
}

func TestAuthFailureIsReported(t *testing.T) {
	err := &inventory.AuthError{BaseURL: "http://localhost:8000"}
	f := newStubFetcher(notify.FetchResult{Outcome: notify.FetchKept, Err: err})
	p := New(f, notify.NewStore(nil), 0, nil)
	p.Start()
	t.Cleanup(p.Stop)

	res := p.WaitForNextResult()().(SyncResultMsg)
	require.NotNil(t, res.AuthError)
	assert.Equal(t, SyncError, p.Status().State)
	assert.Equal(t, notify.FetchKept, p.Status().Outcome)
}

func TestRefreshAllTriggersFetch(t *testing.T) {
	f := newStubFetcher(notify.FetchResult{Outcome: notify.FetchApplied})
	p := New(f, notify.NewStore(nil), 0, nil)
	p.Start()
	t.Cleanup(p.Stop)
	p.WaitForNextResult()()

	assert.Zero(t, f.manual.Load())

	p.RefreshAll()
	p.WaitForNextResult()()
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Equal(t, int32(1), f.manual.Load())
}

func TestPollsOnlyWhilePushIsDown(t *testing.T) {
	f := newStubFetcher(notify.FetchResult{Outcome: notify.FetchApplied})
	p := New(f, notify.NewStore(nil), 10*time.Millisecond, nil)
	p.PushListener()(true)
	p.Start()
	t.Cleanup(p.Stop)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), f.calls.Load())

	p.PushListener()(false)
	require.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestStoreChangesCoalesce(t *testing.T) {
	s := notify.NewStore(nil)
	p := New(newStubFetcher(notify.FetchResult{Outcome: notify.FetchApplied}), s, 0, nil)

	s.Add(model.Notification{ID: "a"})
	s.Add(model.Notification{ID: "b"})
	s.MarkRead("a")

	assert.Equal(t, StoreChangedMsg{}, p.WaitForChange()())
	select {
	case <-p.changeCh:
		t.Fatal("changes were not coalesced")
	default:
	}
}

func TestPushListenerKeepsLatestState(t *testing.T) {
	p := New(newStubFetcher(notify.FetchResult{}), notify.NewStore(nil), 0, nil)

	listen := p.PushListener()
	listen(true)
	listen(false)

	assert.Equal(t, PushStateMsg{Connected: false}, p.WaitForPush()())
	assert.False(t, p.Status().Pushing)
}

func TestStopUnblocksWaiters(t *testing.T) {
	p := New(newStubFetcher(notify.FetchResult{Err: errors.New("down"), Outcome: notify.FetchFallback}), notify.NewStore(nil), 0, nil)
	p.Start()
	p.WaitForNextResult()()
	p.Stop()

	assert.Nil(t, p.WaitForChange()())
	assert.Nil(t, p.WaitForPush()())
	assert.Nil(t, p.WaitForNextResult()())
}
