package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medchain/inventory-console/internal/model"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []model.HistoryEntry
}

func (r *memRecorder) RecordEvent(_ context.Context, e model.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func TestJournalRecordsLifecycle(t *testing.T) {
	s := NewStore(nil)
	rec := &memRecorder{}
	clock := newFakeClock()
	j := StartJournal(s, rec, clock, nil)

	s.Add(note("a", false))
	s.MarkRead("a")
	s.ReplaceAll([]model.Notification{note("b", false)})
	<-s.Dismiss(context.Background(), "b")
	j.Close()

	s.Add(note("c", false))

	var events []model.HistoryEvent
	for _, e := range rec.entries {
		events = append(events, e.Event)
		assert.Equal(t, clock.Now(), e.RecordedAt)
	}
	assert.Equal(t, []model.HistoryEvent{
		model.HistoryAdded, model.HistoryRead, model.HistoryDismissed,
	}, events)
	assert.Equal(t, "b", rec.entries[2].NotificationID)
}
