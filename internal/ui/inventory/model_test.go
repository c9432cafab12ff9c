package inventory

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backend "github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/keys"
	"github.com/medchain/inventory-console/internal/model"
)

type stubBackend struct {
	snap      *backend.Snapshot
	err       error
	checks    int
	generates int
}

func (b *stubBackend) FetchSnapshot(context.Context) (*backend.Snapshot, error) {
	return b.snap, b.err
}

func (b *stubBackend) CheckAlerts(context.Context) error {
	b.checks++
	return nil
}

func (b *stubBackend) AutoGenerateOrders(context.Context) error {
	b.generates++
	return nil
}

func fixture() *backend.Snapshot {
	return &backend.Snapshot{
		Supplies: []model.Supply{
			{ID: "ms_001", Name: "Paracetamol 500mg", Status: model.SupplyStatusLowStock, CurrentStock: 15, ThresholdQuantity: 50},
			{ID: "ms_002", Name: "Gauze Pads", Status: model.SupplyStatusNormal, CurrentStock: 200, ThresholdQuantity: 40},
			{ID: "ms_003", Name: "Bandages", Status: model.SupplyStatusNormal},
		},
		Alerts: []model.Alert{
			{AlertID: "alert_1", ItemName: "Paracetamol", Type: "low_stock", Severity: "high"},
			{AlertID: "alert_2", ItemName: "Cream", Type: "expiry", Severity: "critical"},
		},
		PurchaseOrders: []model.PurchaseOrder{
			{OrderID: "PO-1", ItemName: "Paracetamol", Quantity: 100, Status: model.OrderPending},
		},
	}
}

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, b *stubBackend) Model {
	t.Helper()
	m := New(context.Background(), b, keys.DefaultKeyMap(), 120, 30)
	cmd := m.Init()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func TestLoadPopulatesSuppliesTab(t *testing.T) {
	m := loaded(t, &stubBackend{snap: fixture()})

	assert.Equal(t, TabSupplies, m.ActiveTab())
	assert.Equal(t, 3, m.RowCount())
	assert.Contains(t, m.View(), "Paracetamol 500mg")
}

func TestPartialSnapshotShowsError(t *testing.T) {
	snap := fixture()
	snap.Suppliers = nil
	m := loaded(t, &stubBackend{snap: snap, err: errors.New("listing suppliers: boom")})

	assert.Equal(t, 3, m.RowCount())
	assert.Contains(t, m.View(), "boom")
}

func TestTabAndFilterCycling(t *testing.T) {
	m := loaded(t, &stubBackend{snap: fixture()})

	m, _ = m.Update(press("f"))
	assert.Equal(t, model.SupplyStatusLowStock, m.Criteria().Status)
	assert.Equal(t, 1, m.RowCount())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabAlerts, m.ActiveTab())
	assert.Equal(t, 2, m.RowCount())

	m, _ = m.Update(press("f"))
	assert.Equal(t, "critical", m.Criteria().Severity)
	assert.Equal(t, 1, m.RowCount())
}

func TestSearchNarrowsRows(t *testing.T) {
	m := loaded(t, &stubBackend{snap: fixture()})

	m, _ = m.Update(press("/"))
	for _, r := range "gauze" {
		m, _ = m.Update(press(string(r)))
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "gauze", m.Criteria().Query)
	assert.Equal(t, 1, m.RowCount())

	m, _ = m.Update(press("/"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 3, m.RowCount())
}

func TestFocusItemFiltersToOneSupply(t *testing.T) {
	m := loaded(t, &stubBackend{snap: fixture()})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})

	m.FocusItem("ms_002")
	assert.Equal(t, TabSupplies, m.ActiveTab())
	assert.Equal(t, 1, m.RowCount())
}

func TestDismissOnlyOnAlertsTab(t *testing.T) {
	m := loaded(t, &stubBackend{snap: fixture()})

	_, cmd := m.Update(press("x"))
	assert.Nil(t, cmd)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd = m.Update(press("x"))
	require.NotNil(t, cmd)
	assert.Equal(t, DismissAlertMsg{AlertID: "alert_1"}, cmd())
}

func TestTriggerActionsReload(t *testing.T) {
	b := &stubBackend{snap: fixture()}
	m := loaded(t, b)

	_, cmd := m.Update(press("c"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, ActionDoneMsg{Action: "check alerts"}, msg)
	assert.Equal(t, 1, b.checks)

	_, cmd = m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, SnapshotLoadedMsg{}, cmd())

	_, cmd = m.Update(press("g"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, b.generates)
}
