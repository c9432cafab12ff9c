package notify

import (
	"math/rand/v2"
	"time"

	"github.com/medchain/inventory-console/internal/model"
)

// Fallback returns the built-in demonstration set installed when the
// alert endpoint cannot be reached. Two entries are unread.
func Fallback(now time.Time) []model.Notification {
	return []model.Notification{
		{
			ID:        "fallback_1",
			Kind:      model.KindLowStock,
			Title:     "Low Stock Alert",
			Message:   "Paracetamol 500mg is running low (15 units left)",
			CreatedAt: now.Add(-30 * time.Minute),
			Severity:  model.SeverityHigh,
			ItemID:    "ms_001",
			ActionURL: itemURL("ms_001"),
		},
		{
			ID:        "fallback_2",
			Kind:      model.KindExpiry,
			Title:     "Expiry Warning",
			Message:   "Antibiotic Cream expires in 15 days",
			CreatedAt: now.Add(-2 * time.Hour),
			Severity:  model.SeverityCritical,
			ItemID:    "ms_004",
			ActionURL: itemURL("ms_004"),
		},
		{
			ID:        "fallback_3",
			Kind:      model.KindSystem,
			Title:     "System Update",
			Message:   "Inventory system has been updated with new features",
			CreatedAt: now.Add(-24 * time.Hour),
			Severity:  model.SeverityLow,
			Read:      true,
		},
	}
}

// DemoBatch is the fixed set of five drafts published by the demo command.
func DemoBatch() []model.Draft {
	return []model.Draft{
		{
			Kind:      model.KindLowStock,
			Title:     "Low Stock Alert",
			Message:   "Paracetamol 500mg is running low (15 units left). Please reorder soon.",
			Severity:  model.SeverityHigh,
			ActionURL: itemURL("ms_001"),
			ItemID:    "ms_001",
		},
		{
			Kind:      model.KindExpiry,
			Title:     "Expiry Warning",
			Message:   "Antibiotic Cream expires in 15 days. Consider using or disposing.",
			Severity:  model.SeverityCritical,
			ActionURL: itemURL("ms_004"),
			ItemID:    "ms_004",
		},
		{
			Kind:     model.KindSystem,
			Title:    "System Update",
			Message:  "Inventory system has been updated with new features and improvements.",
			Severity: model.SeverityLow,
		},
		{
			Kind:      model.KindSuccess,
			Title:     "Order Confirmed",
			Message:   "Purchase order #PO-2024-001 has been confirmed by supplier.",
			Severity:  model.SeverityMedium,
			ActionURL: "/inventory/purchase-orders",
		},
		{
			Kind:     model.KindError,
			Title:    "Connection Error",
			Message:  "Failed to connect to supplier API. Please check your internet connection.",
			Severity: model.SeverityMedium,
		},
	}
}

var randomPool = []model.Draft{
	{
		Kind:      model.KindLowStock,
		Title:     "Low Stock Alert",
		Message:   "Ibuprofen 400mg is running low (8 units left).",
		Severity:  model.SeverityHigh,
		ActionURL: itemURL("ms_002"),
		ItemID:    "ms_002",
	},
	{
		Kind:      model.KindExpiry,
		Title:     "Expiry Warning",
		Message:   "Bandages (10cm) expire in 30 days.",
		Severity:  model.SeverityMedium,
		ActionURL: itemURL("ms_003"),
		ItemID:    "ms_003",
	},
	{
		Kind:     model.KindSystem,
		Title:    "Backup Complete",
		Message:  "System backup completed successfully at 2:30 AM.",
		Severity: model.SeverityLow,
	},
	{
		Kind:      model.KindSuccess,
		Title:     "Stock Updated",
		Message:   "Gauze Pads stock has been updated successfully.",
		Severity:  model.SeverityMedium,
		ActionURL: itemURL("ms_005"),
		ItemID:    "ms_005",
	},
}

// RandomDemo picks one draft from the random demo pool.
func RandomDemo() model.Draft {
	return randomPool[rand.IntN(len(randomPool))]
}

func itemURL(itemID string) string {
	return "/inventory?item=" + itemID
}
