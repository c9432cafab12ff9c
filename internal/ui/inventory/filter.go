package inventory

import (
	"strings"

	"github.com/medchain/inventory-console/internal/model"
)

// Criteria is the search box plus the per-tab status or severity
// selector. Empty and "all" both mean no restriction.
type Criteria struct {
	Query    string
	Status   string
	Severity string
}

func (c Criteria) matches(fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(c.Query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func selected(want, got string) bool {
	return want == "" || want == "all" || want == got
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FilterSupplies matches name, supplier, unit or item id, and status.
func FilterSupplies(in []model.Supply, c Criteria) []model.Supply {
	var out []model.Supply
	for _, s := range in {
		if c.matches(s.Name, s.SupplierName, s.Unit, s.ID) && selected(c.Status, s.Status) {
			out = append(out, s)
		}
	}
	return out
}

// FilterAlerts matches item name, message or type, and severity.
func FilterAlerts(in []model.Alert, c Criteria) []model.Alert {
	var out []model.Alert
	for _, a := range in {
		if c.matches(a.ItemName, a.Message, a.Type) && selected(c.Severity, a.Severity) {
			out = append(out, a)
		}
	}
	return out
}

// FilterOrders matches item, supplier, order id or status text, and status.
func FilterOrders(in []model.PurchaseOrder, c Criteria) []model.PurchaseOrder {
	var out []model.PurchaseOrder
	for _, o := range in {
		if c.matches(o.ItemName, o.SupplierName, o.OrderID, o.Status) && selected(c.Status, o.Status) {
			out = append(out, o)
		}
	}
	return out
}

// FilterSuppliers matches name, email or phone. Suppliers carry no status.
func FilterSuppliers(in []model.Supplier, c Criteria) []model.Supplier {
	var out []model.Supplier
	for _, s := range in {
		if c.matches(s.Name, deref(s.Email), deref(s.Phone)) {
			out = append(out, s)
		}
	}
	return out
}

// Summary is the headline counts shown above the tables.
type Summary struct {
	Supplies       int
	LowStock       int
	Alerts         int
	CriticalAlerts int
	Orders         int
	PendingOrders  int
	Suppliers      int
}

// Summarize counts filtered collections.
func Summarize(
	supplies []model.Supply,
	alerts []model.Alert,
	orders []model.PurchaseOrder,
	suppliers []model.Supplier,
) Summary {
	s := Summary{
		Supplies:  len(supplies),
		Alerts:    len(alerts),
		Orders:    len(orders),
		Suppliers: len(suppliers),
	}
	for _, sp := range supplies {
		if sp.Status == model.SupplyStatusLowStock {
			s.LowStock++
		}
	}
	for _, a := range alerts {
		if a.Severity == string(model.SeverityCritical) {
			s.CriticalAlerts++
		}
	}
	for _, o := range orders {
		if o.Status == model.OrderPending {
			s.PendingOrders++
		}
	}
	return s
}
