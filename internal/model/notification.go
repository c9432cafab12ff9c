package model

import "time"

// Kind classifies a notification for display.
type Kind string

const (
	KindLowStock Kind = "low_stock"
	KindExpiry   Kind = "expiry"
	KindSystem   Kind = "system"
	KindInfo     Kind = "info"
	KindSuccess  Kind = "success"
	KindError    Kind = "error"
)

// ParseKind maps a wire value to a Kind. Unknown or empty values
// resolve to KindSystem.
func ParseKind(s string) Kind {
	switch k := Kind(s); k {
	case KindLowStock, KindExpiry, KindSystem, KindInfo, KindSuccess, KindError:
		return k
	default:
		return KindSystem
	}
}

// Severity is the urgency attached to a notification.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps a wire value to a Severity. Unknown or empty
// values resolve to SeverityMedium.
func ParseSeverity(s string) Severity {
	switch sev := Severity(s); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev
	default:
		return SeverityMedium
	}
}

// Rank orders severities from least (0) to most (3) urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 1
	}
}

// Notification is a single user-facing event record: an inventory
// alert, a system message, or the result of an operation.
type Notification struct {
	// ID is unique within the notification store and is never reused
	// once the notification has been dismissed.
	ID string `json:"id"`

	// Kind is fixed at creation.
	Kind Kind `json:"kind"`

	// Title is the non-empty headline.
	Title string `json:"title"`

	// Message is the optional body text.
	Message string `json:"message"`

	// CreatedAt is the source timestamp. It is used for display only;
	// the store orders by arrival.
	CreatedAt time.Time `json:"created_at"`

	// Severity is fixed at creation.
	Severity Severity `json:"severity"`

	// Read is false at creation and only set by an explicit read action.
	Read bool `json:"read"`

	// ActionURL is an opaque reference for a "view" affordance.
	ActionURL string `json:"action_url,omitempty"`

	// ItemID is an opaque reference to the subject inventory item.
	ItemID string `json:"item_id,omitempty"`
}

// Draft holds the caller-supplied fields of a locally initiated
// notification. The store assigns the id, timestamp and read state.
type Draft struct {
	Kind      Kind
	Title     string
	Message   string
	Severity  Severity
	ActionURL string
	ItemID    string
}
