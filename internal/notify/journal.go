package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/model"
)

// EventRecorder persists history entries.
type EventRecorder interface {
	RecordEvent(ctx context.Context, entry model.HistoryEntry) error
}

// journalBuffer bounds entries waiting to be written.
const journalBuffer = 256

// Journal copies store mutations into an EventRecorder on its own
// goroutine so slow writes never hold up the store. Snapshot
// replacements are not journalled.
type Journal struct {
	store   *Store
	rec     EventRecorder
	clock   Clock
	logger  *zap.Logger
	entries chan model.HistoryEntry
	unwatch func()
	once    sync.Once
	done    chan struct{}
}

// StartJournal subscribes to s and starts the writer.
func StartJournal(s *Store, rec EventRecorder, clock Clock, logger *zap.Logger) *Journal {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &Journal{
		store:   s,
		rec:     rec,
		clock:   clock,
		logger:  logger.Named("journal"),
		entries: make(chan model.HistoryEntry, journalBuffer),
		done:    make(chan struct{}),
	}
	j.unwatch = s.Watch(j.observe)
	go j.run()
	return j
}

func (j *Journal) observe(c Change) {
	var event model.HistoryEvent
	switch c.Op {
	case OpAdded:
		event = model.HistoryAdded
	case OpRead:
		event = model.HistoryRead
	case OpDismissed:
		event = model.HistoryDismissed
	default:
		return
	}

	select {
	case j.entries <- model.NewHistoryEntry(event, c.Notification, j.clock.Now()):
	default:
		j.logger.Warn("history buffer full, dropping entry",
			zap.String("id", c.Notification.ID), zap.String("event", string(event)))
	}
}

func (j *Journal) run() {
	defer close(j.done)
	for e := range j.entries {
		if err := j.rec.RecordEvent(context.Background(), e); err != nil {
			j.logger.Warn("recording history failed",
				zap.String("id", e.NotificationID), zap.Error(err))
		}
	}
}

// Close unsubscribes, flushes buffered entries and waits for the writer.
func (j *Journal) Close() {
	j.once.Do(func() {
		j.unwatch()
		j.store.settle()
		close(j.entries)
		<-j.done
	})
}
