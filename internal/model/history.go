package model

import "time"

// HistoryEvent is the kind of lifecycle step recorded in the journal.
type HistoryEvent string

const (
	HistoryAdded     HistoryEvent = "added"
	HistoryRead      HistoryEvent = "read"
	HistoryDismissed HistoryEvent = "dismissed"
)

// HistoryEntry is one journalled notification lifecycle step. The
// notification's display fields are copied so the entry outlives the
// in-memory collection.
type HistoryEntry struct {
	ID             string       `json:"id"`
	NotificationID string       `json:"notification_id"`
	Event          HistoryEvent `json:"event"`
	Kind           Kind         `json:"kind"`
	Severity       Severity     `json:"severity"`
	Title          string       `json:"title"`
	Message        string       `json:"message"`
	ItemID         string       `json:"item_id"`
	CreatedAt      time.Time    `json:"created_at"`
	RecordedAt     time.Time    `json:"recorded_at"`
}

// NewHistoryEntry copies n into an entry for the given event.
func NewHistoryEntry(event HistoryEvent, n Notification, at time.Time) HistoryEntry {
	return HistoryEntry{
		NotificationID: n.ID,
		Event:          event,
		Kind:           n.Kind,
		Severity:       n.Severity,
		Title:          n.Title,
		Message:        n.Message,
		ItemID:         n.ItemID,
		CreatedAt:      n.CreatedAt,
		RecordedAt:     at,
	}
}
