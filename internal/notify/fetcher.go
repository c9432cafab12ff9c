package notify

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/metrics"
	"github.com/medchain/inventory-console/internal/model"
)

// AlertSource lists the backend's active alerts.
type AlertSource interface {
	Alerts(ctx context.Context) ([]model.Alert, error)
}

// FetchOutcome says what a snapshot fetch did to the store.
type FetchOutcome string

const (
	// FetchApplied means the backend snapshot replaced the store contents.
	FetchApplied FetchOutcome = "applied"
	// FetchFallback means the backend was unreachable or sent garbage and
	// the demonstration set was installed.
	FetchFallback FetchOutcome = "fallback"
	// FetchStale means a newer fetch started before this one finished, so
	// its result was dropped.
	FetchStale FetchOutcome = "stale"
	// FetchKept means the backend answered with a non-success status or
	// the fetch was cancelled; the store was left untouched.
	FetchKept FetchOutcome = "kept"
)

// FetchResult reports one FetchSnapshot call.
type FetchResult struct {
	Outcome FetchOutcome
	Count   int
	Err     error
}

// Fetcher pulls the alert list and installs it in the Store.
type Fetcher struct {
	source AlertSource
	store  *Store
	clock  Clock
	logger *zap.Logger

	mu         sync.Mutex
	generation uint64
}

// NewFetcher creates a Fetcher. A nil clock means the real clock.
func NewFetcher(source AlertSource, store *Store, clock Clock, logger *zap.Logger) *Fetcher {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source: source,
		store:  store,
		clock:  clock,
		logger: logger.Named("fetcher"),
	}
}

// FetchSnapshot issues one alert query and replaces the store contents
// with the mapped result. Transport and decode failures install the
// demonstration set instead. Only the most recently started fetch may
// write to the store; older ones finish as FetchStale.
func (f *Fetcher) FetchSnapshot(ctx context.Context) FetchResult {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.mu.Unlock()

	alerts, err := f.source.Alerts(ctx)

	var (
		list    []model.Notification
		outcome FetchOutcome
	)
	switch {
	case err == nil:
		list = f.mapAlerts(alerts)
		outcome = FetchApplied
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		outcome = FetchKept
	case inventory.IsStatusError(err), inventory.IsAuthError(err):
		outcome = FetchKept
	default:
		list = Fallback(f.clock.Now())
		outcome = FetchFallback
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.generation {
		metrics.RecordFetch(string(FetchStale))
		f.logger.Debug("discarding stale snapshot", zap.Uint64("generation", gen))
		return FetchResult{Outcome: FetchStale, Err: err}
	}

	metrics.RecordFetch(string(outcome))
	count := 0
	switch outcome {
	case FetchApplied:
		count = f.store.ReplaceAll(list)
		f.logger.Debug("snapshot applied", zap.Int("count", count))
	case FetchFallback:
		count = f.store.ReplaceAll(list)
		f.logger.Warn("alert fetch failed, showing demo notifications", zap.Error(err))
	case FetchKept:
		f.logger.Warn("alert fetch rejected, keeping current notifications", zap.Error(err))
	}
	return FetchResult{Outcome: outcome, Count: count, Err: err}
}

// Refresh is the user-triggered form of FetchSnapshot. It supersedes any
// fetch still in flight.
func (f *Fetcher) Refresh(ctx context.Context) FetchResult {
	f.logger.Info("manual refresh requested")
	return f.FetchSnapshot(ctx)
}

// mapAlerts converts backend alerts in backend order. Read state is
// always false because the backend does not track it. Dismissed and
// repeated ids are left for Store.ReplaceAll to drop.
func (f *Fetcher) mapAlerts(alerts []model.Alert) []model.Notification {
	out := make([]model.Notification, 0, len(alerts))
	for _, a := range alerts {
		n := model.Notification{
			ID:        a.AlertID,
			Kind:      model.KindExpiry,
			Title:     "Expiry Warning",
			Message:   a.Message,
			CreatedAt: a.CreatedAt.Time,
			Severity:  model.ParseSeverity(a.Severity),
			ItemID:    a.ItemID,
			ActionURL: itemURL(a.ItemID),
		}
		if a.Type == string(model.KindLowStock) {
			n.Kind = model.KindLowStock
			n.Title = "Low Stock Alert"
		}
		out = append(out, n)
	}
	return out
}
