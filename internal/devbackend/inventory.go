package devbackend

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medchain/inventory-console/internal/model"
)

// Alert statuses.
const (
	AlertActive    = "active"
	AlertDismissed = "dismissed"
)

// Alert types raised by CheckAlerts.
const (
	AlertLowStock = "low_stock"
	AlertExpiry   = "expiry"
)

// expiryWindow is how far ahead CheckAlerts looks for expiring stock.
const expiryWindow = 30 * 24 * time.Hour

// Inventory is the in-memory data set behind the development backend.
type Inventory struct {
	mu        sync.Mutex
	now       func() time.Time
	supplies  []model.Supply
	suppliers []model.Supplier
	alerts    []model.Alert
	orders    []model.PurchaseOrder
	nextAlert int
}

// NewInventory returns an inventory seeded with a small hospital
// pharmacy and its initial alerts. now may be nil.
func NewInventory(now func() time.Time) *Inventory {
	if now == nil {
		now = time.Now
	}
	inv := &Inventory{now: now}
	inv.seed()
	inv.CheckAlerts()
	return inv
}

func strPtr(s string) *string { return &s }

func (inv *Inventory) seed() {
	t := inv.now().UTC()
	expires := func(days int) *model.Timestamp {
		return &model.Timestamp{Time: t.Add(time.Duration(days) * 24 * time.Hour).Truncate(time.Second)}
	}

	inv.suppliers = []model.Supplier{
		{
			ID: "sup_001", Name: "MedSupply Co",
			Email: strPtr("orders@medsupply.example"), Phone: strPtr("+1-555-0100"),
			DefaultOrderQuantity: 200, MinimumOrderQuantity: 50, LeadTimeDays: 3,
		},
		{
			ID: "sup_002", Name: "PharmaDirect",
			Email:                strPtr("supply@pharmadirect.example"),
			Address:              strPtr("12 Harbour Road"),
			DefaultOrderQuantity: 100, MinimumOrderQuantity: 20, LeadTimeDays: 5,
		},
	}

	inv.supplies = []model.Supply{
		{ID: "ms_001", Name: "Paracetamol 500mg", CurrentStock: 40, ThresholdQuantity: 100, SupplierID: "sup_001", Unit: "tablets", ExpiryDate: expires(400)},
		{ID: "ms_002", Name: "Sterile Gauze", CurrentStock: 300, ThresholdQuantity: 150, SupplierID: "sup_001", Unit: "packs"},
		{ID: "ms_003", Name: "Insulin Glargine", CurrentStock: 25, ThresholdQuantity: 30, SupplierID: "sup_002", Unit: "vials", ExpiryDate: expires(20)},
		{ID: "ms_004", Name: "Nitrile Gloves", CurrentStock: 1200, ThresholdQuantity: 500, SupplierID: "sup_001", Unit: "pairs"},
		{ID: "ms_005", Name: "Amoxicillin 250mg", CurrentStock: 80, ThresholdQuantity: 60, SupplierID: "sup_002", Unit: "capsules", ExpiryDate: expires(10)},
	}
	for i := range inv.supplies {
		inv.refreshSupplyLocked(&inv.supplies[i])
	}
}

func (inv *Inventory) refreshSupplyLocked(s *model.Supply) {
	s.Status = model.SupplyStatusNormal
	if s.CurrentStock <= s.ThresholdQuantity {
		s.Status = model.SupplyStatusLowStock
	}
	if sup := inv.supplierLocked(s.SupplierID); sup != nil {
		s.SupplierName = sup.Name
	}
}

func (inv *Inventory) supplierLocked(id string) *model.Supplier {
	for i := range inv.suppliers {
		if inv.suppliers[i].ID == id {
			return &inv.suppliers[i]
		}
	}
	return nil
}

// Supplies returns every supply line.
func (inv *Inventory) Supplies() []model.Supply {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]model.Supply(nil), inv.supplies...)
}

// Suppliers returns every supplier.
func (inv *Inventory) Suppliers() []model.Supplier {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]model.Supplier(nil), inv.suppliers...)
}

// Alerts returns the active alerts, newest first.
func (inv *Inventory) Alerts() []model.Alert {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]model.Alert, 0, len(inv.alerts))
	for i := len(inv.alerts) - 1; i >= 0; i-- {
		if inv.alerts[i].Status == AlertActive {
			out = append(out, inv.alerts[i])
		}
	}
	return out
}

// PurchaseOrders returns every purchase order, newest first.
func (inv *Inventory) PurchaseOrders() []model.PurchaseOrder {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]model.PurchaseOrder, 0, len(inv.orders))
	for i := len(inv.orders) - 1; i >= 0; i-- {
		out = append(out, inv.orders[i])
	}
	return out
}

// DismissAlert marks an active alert dismissed. It reports whether the
// alert existed and was active.
func (inv *Inventory) DismissAlert(alertID string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for i := range inv.alerts {
		if inv.alerts[i].AlertID == alertID && inv.alerts[i].Status == AlertActive {
			inv.alerts[i].Status = AlertDismissed
			return true
		}
	}
	return false
}

// SetStock changes a supply's stock level, as a stock count would.
func (inv *Inventory) SetStock(itemID string, stock int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for i := range inv.supplies {
		if inv.supplies[i].ID == itemID {
			inv.supplies[i].CurrentStock = stock
			inv.refreshSupplyLocked(&inv.supplies[i])
			return nil
		}
	}
	return fmt.Errorf("supply %q not found", itemID)
}

// CheckAlerts raises a low_stock alert for every supply at or below its
// threshold and an expiry alert for every supply expiring within 30
// days, unless an active alert of that type already exists for the
// item. It returns the alerts it created.
func (inv *Inventory) CheckAlerts() []model.Alert {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	now := inv.now().UTC()
	var raised []model.Alert
	for _, s := range inv.supplies {
		if s.CurrentStock <= s.ThresholdQuantity && !inv.hasActiveLocked(s.ID, AlertLowStock) {
			raised = append(raised, inv.raiseLocked(s, AlertLowStock, lowStockSeverity(s), now,
				fmt.Sprintf("%s is low: %d %s left (threshold %d)", s.Name, s.CurrentStock, s.Unit, s.ThresholdQuantity)))
		}
		if s.ExpiryDate == nil || s.ExpiryDate.IsZero() {
			continue
		}
		left := s.ExpiryDate.Sub(now)
		if left <= expiryWindow && !inv.hasActiveLocked(s.ID, AlertExpiry) {
			days := int(math.Ceil(left.Hours() / 24))
			raised = append(raised, inv.raiseLocked(s, AlertExpiry, expirySeverity(days), now,
				fmt.Sprintf("%s expires in %d days", s.Name, days)))
		}
	}
	return raised
}

func (inv *Inventory) hasActiveLocked(itemID, kind string) bool {
	for _, a := range inv.alerts {
		if a.ItemID == itemID && a.Type == kind && a.Status == AlertActive {
			return true
		}
	}
	return false
}

func (inv *Inventory) raiseLocked(s model.Supply, kind, severity string, now time.Time, msg string) model.Alert {
	inv.nextAlert++
	a := model.Alert{
		AlertID:   fmt.Sprintf("alert_%d", inv.nextAlert),
		ItemID:    s.ID,
		ItemName:  s.Name,
		Type:      kind,
		Message:   msg,
		CreatedAt: model.Timestamp{Time: now},
		Status:    AlertActive,
		Severity:  severity,
	}
	inv.alerts = append(inv.alerts, a)
	return a
}

func lowStockSeverity(s model.Supply) string {
	switch {
	case s.CurrentStock == 0:
		return string(model.SeverityCritical)
	case s.CurrentStock*2 <= s.ThresholdQuantity:
		return string(model.SeverityHigh)
	default:
		return string(model.SeverityMedium)
	}
}

func expirySeverity(days int) string {
	switch {
	case days <= 0:
		return string(model.SeverityCritical)
	case days <= 7:
		return string(model.SeverityHigh)
	default:
		return string(model.SeverityMedium)
	}
}

// AutoGenerateOrders raises a pending purchase order for every low-stock
// supply that has no open order, sized to the supplier's default
// quantity but at least enough to clear the threshold. It returns the
// orders it created.
func (inv *Inventory) AutoGenerateOrders() []model.PurchaseOrder {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	now := inv.now().UTC()
	var created []model.PurchaseOrder
	for _, s := range inv.supplies {
		if s.Status != model.SupplyStatusLowStock || inv.hasOpenOrderLocked(s.ID) {
			continue
		}
		sup := inv.supplierLocked(s.SupplierID)
		if sup == nil {
			continue
		}

		qty := sup.DefaultOrderQuantity
		if short := s.ThresholdQuantity - s.CurrentStock; short > qty {
			qty = short
		}
		if qty < sup.MinimumOrderQuantity {
			qty = sup.MinimumOrderQuantity
		}

		po := model.PurchaseOrder{
			OrderID:       "PO-" + strings.ToUpper(uuid.NewString()[:8]),
			ItemID:        s.ID,
			ItemName:      s.Name,
			Quantity:      qty,
			SupplierID:    sup.ID,
			SupplierName:  sup.Name,
			SupplierEmail: sup.Email,
			Status:        model.OrderPending,
			CreatedAt:     model.Timestamp{Time: now},
		}
		inv.orders = append(inv.orders, po)
		created = append(created, po)
	}
	return created
}

func (inv *Inventory) hasOpenOrderLocked(itemID string) bool {
	for _, o := range inv.orders {
		if o.ItemID != itemID {
			continue
		}
		switch o.Status {
		case model.OrderPending, model.OrderSent, model.OrderConfirmed:
			return true
		}
	}
	return false
}
