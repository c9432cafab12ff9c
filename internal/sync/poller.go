package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/notify"
)

// SyncState represents the current state of the alert snapshot sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the last snapshot fetch and the push
// channel.
type SyncStatus struct {
	State    SyncState
	Outcome  notify.FetchOutcome
	LastSync time.Time
	Error    error
	Pushing  bool
}

// SyncResultMsg is a tea.Msg sent when a snapshot fetch completes.
type SyncResultMsg struct {
	Result    notify.FetchResult
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is sent when the backend rejects the API token.
type AuthErrorMsg struct {
	Message string
}

// StoreChangedMsg is sent when the notification store changed since the
// last one was delivered. Bursts of changes coalesce into one message.
type StoreChangedMsg struct{}

// PushStateMsg is sent when the push channel connects or drops.
type PushStateMsg struct {
	Connected bool
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Fetcher is the snapshot half of the notify package.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) notify.FetchResult
	Refresh(ctx context.Context) notify.FetchResult
}

// Poller runs the alert snapshot fetches and turns notify events into
// Bubble Tea messages.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *zap.Logger

	status    SyncStatus
	resultCh  chan SyncResultMsg
	changeCh  chan struct{}
	pushCh    chan bool
	triggerCh chan struct{}
	stopCh    chan struct{}
	unwatch   func()
	mu        gosync.Mutex
	running   bool
	wg        gosync.WaitGroup
}

// New creates a Poller. interval is the background poll period used
// while the push channel is down; zero disables background polling.
func New(f Fetcher, s *notify.Store, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{
		fetcher:   f,
		interval:  interval,
		logger:    logger.Named("poller"),
		resultCh:  make(chan SyncResultMsg, 16),
		changeCh:  make(chan struct{}, 1),
		pushCh:    make(chan bool, 1),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	p.unwatch = s.Watch(func(notify.Change) {
		select {
		case p.changeCh <- struct{}{}:
		default:
		}
	})
	return p
}

// PushListener returns the callback to register on the channel manager.
func (p *Poller) PushListener() func(connected bool) {
	return func(connected bool) {
		p.mu.Lock()
		p.status.Pushing = connected
		p.mu.Unlock()

		// Keep only the latest state.
		select {
		case <-p.pushCh:
		default:
		}
		select {
		case p.pushCh <- connected:
		default:
		}
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results, store changes and push state. The first fetch
// runs immediately.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.poll()

	return tea.Batch(p.waitForResult(), p.WaitForChange(), p.WaitForPush())
}

// Stop halts the polling goroutine and the store subscription.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.unwatch()
	p.wg.Wait()
}

// RefreshAll triggers an immediate fetch.
func (p *Poller) RefreshAll() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A fetch is already queued
	}
}

// Status returns the current sync status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// poll runs the fetch loop. Ticks are skipped while the push channel
// is connected.
func (p *Poller) poll() {
	defer p.wg.Done()

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	// Do an initial fetch immediately
	p.fetch(p.fetcher.FetchSnapshot)

	for {
		select {
		case <-p.stopCh:
			return
		case <-tick:
			if p.Status().Pushing {
				continue
			}
			p.fetch(p.fetcher.FetchSnapshot)
		case <-p.triggerCh:
			p.fetch(p.fetcher.Refresh)
		}
	}
}

// fetch performs one snapshot fetch through run and reports it on the
// result channel.
func (p *Poller) fetch(run func(context.Context) notify.FetchResult) {
	p.setStatus(SyncRunning, "", nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	res := run(ctx)
	cancel()

	msg := SyncResultMsg{Result: res}
	switch {
	case res.Outcome == notify.FetchStale:
		// A newer fetch owns the status.
	case res.Err != nil && inventory.IsAuthError(res.Err):
		p.setStatus(SyncError, res.Outcome, res.Err)
		msg.AuthError = &AuthErrorMsg{
			Message: "backend rejected the API token. Run :token to update it.",
		}
	case res.Err != nil:
		p.setStatus(SyncError, res.Outcome, res.Err)
	default:
		p.setStatus(SyncIdle, res.Outcome, nil)
	}

	p.logger.Debug("snapshot fetch finished",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("count", res.Count),
		zap.Error(res.Err))
	p.sendResult(msg)
}

// setStatus updates the sync status.
func (p *Poller) setStatus(state SyncState, outcome notify.FetchOutcome, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if outcome != "" {
		p.status.Outcome = outcome
	}
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// Call it after processing a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

// WaitForChange returns a tea.Cmd that waits for the next store change.
func (p *Poller) WaitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-p.changeCh:
			return StoreChangedMsg{}
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForPush returns a tea.Cmd that waits for the next push state change.
func (p *Poller) WaitForPush() tea.Cmd {
	return func() tea.Msg {
		select {
		case up := <-p.pushCh:
			return PushStateMsg{Connected: up}
		case <-p.stopCh:
			return nil
		}
	}
}
