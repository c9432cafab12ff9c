package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medchain/inventory-console/internal/model"
	"github.com/medchain/inventory-console/internal/store"
	"github.com/medchain/inventory-console/tests/testutil"
)

func entry(id string, event model.HistoryEvent, title string, at time.Time) model.HistoryEntry {
	return model.NewHistoryEntry(event, model.Notification{
		ID:        id,
		Kind:      model.KindLowStock,
		Title:     title,
		Message:   title + " message",
		Severity:  model.SeverityHigh,
		ItemID:    "ms_001",
		CreatedAt: at.Add(-time.Minute),
	}, at)
}

func TestRecordAndListHistory(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordEvent(ctx, entry("n1", model.HistoryAdded, "Low Stock", base)))
	require.NoError(t, s.RecordEvent(ctx, entry("n1", model.HistoryRead, "Low Stock", base.Add(time.Minute))))
	require.NoError(t, s.RecordEvent(ctx, entry("n2", model.HistoryAdded, "Expiry", base.Add(2*time.Minute))))

	got, err := s.History(ctx, store.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "n2", got[0].NotificationID)
	assert.Equal(t, model.HistoryRead, got[1].Event)
	assert.Equal(t, model.KindLowStock, got[2].Kind)
	assert.Equal(t, model.SeverityHigh, got[2].Severity)
	assert.Equal(t, "ms_001", got[2].ItemID)
	assert.True(t, base.Equal(got[2].RecordedAt))
	assert.NotEmpty(t, got[2].ID)
}

func TestHistoryFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, e := range []model.HistoryEntry{
		entry("n1", model.HistoryAdded, "Paracetamol low", base),
		entry("n2", model.HistoryAdded, "Bandages expiring", base.Add(time.Minute)),
		entry("n1", model.HistoryDismissed, "Paracetamol low", base.Add(2*time.Minute)),
	} {
		require.NoError(t, s.RecordEvent(ctx, e), "entry %d", i)
	}

	dismissed := string(model.HistoryDismissed)
	got, err := s.History(ctx, store.HistoryFilter{Event: &dismissed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].NotificationID)

	query := "bandage"
	count, err := s.HistoryCount(ctx, store.HistoryFilter{Query: &query})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	id := "n1"
	count, err = s.HistoryCount(ctx, store.HistoryFilter{NotificationID: &id})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	since := base.Add(time.Minute)
	got, err = s.History(ctx, store.HistoryFilter{Since: &since, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.HistoryDismissed, got[0].Event)

	got, err = s.History(ctx, store.HistoryFilter{Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n1", got[0].NotificationID)
}

func TestPruneRemovesOldEntries(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordEvent(ctx, entry("old", model.HistoryAdded, "old", base.Add(-48*time.Hour))))
	require.NoError(t, s.RecordEvent(ctx, entry("new", model.HistoryAdded, "new", base)))

	removed, err := s.Prune(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	count, err := s.HistoryCount(ctx, store.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := t.TempDir() + "/history.db"

	first, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordEvent(context.Background(),
		entry("n1", model.HistoryAdded, "kept", time.Now())))
	require.NoError(t, first.Close())

	second, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	count, err := second.HistoryCount(context.Background(), store.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
