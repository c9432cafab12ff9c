package store

import (
	"context"
	"time"

	"github.com/medchain/inventory-console/internal/model"
)

// HistoryFilter controls filtering and pagination for journal queries.
type HistoryFilter struct {
	Event          *string // "added", "read", "dismissed", or nil (all)
	Kind           *string // notification kind or nil (all)
	NotificationID *string
	Query          *string // search title + message
	Since          *time.Time
	Limit          int
	Offset         int
}

// Store defines the persistence interface for the notification history
// journal. The live notification collection is in memory; the journal
// only keeps a record of what happened to it.
type Store interface {
	RecordEvent(ctx context.Context, entry model.HistoryEntry) error
	History(ctx context.Context, filter HistoryFilter) ([]model.HistoryEntry, error)
	HistoryCount(ctx context.Context, filter HistoryFilter) (int, error)
	Prune(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
