package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/medchain/inventory-console/internal/model"
)

// Backend endpoint paths.
const (
	PathSupplies          = "/inventory/supplies"
	PathAlerts            = "/inventory/alerts"
	PathAlertsDismiss     = "/inventory/alerts/dismiss"
	PathAlertsCheck       = "/inventory/alerts/check"
	PathPurchaseOrders    = "/inventory/purchase-orders"
	PathAutoGenerateOrder = "/inventory/purchase-orders/auto-generate"
	PathSuppliers         = "/inventory/suppliers"
)

// DismissRequest is the body of POST /inventory/alerts/dismiss.
type DismissRequest struct {
	AlertID string `json:"alert_id"`
}

// Alerts returns the backend's active alert list in backend order.
func (c *Client) Alerts(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := c.Get(ctx, PathAlerts, &alerts); err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// DismissAlert asks the backend to dismiss an alert. The endpoint is
// idempotent and its response body is ignored.
func (c *Client) DismissAlert(ctx context.Context, alertID string) error {
	if err := c.Post(ctx, PathAlertsDismiss, DismissRequest{AlertID: alertID}, nil); err != nil {
		return fmt.Errorf("dismissing alert %s: %w", alertID, err)
	}
	return nil
}

// CheckAlerts triggers a backend alert evaluation run.
func (c *Client) CheckAlerts(ctx context.Context) error {
	if err := c.Post(ctx, PathAlertsCheck, nil, nil); err != nil {
		return fmt.Errorf("running alert check: %w", err)
	}
	return nil
}

// AutoGenerateOrders triggers purchase order generation for every
// supply below its threshold.
func (c *Client) AutoGenerateOrders(ctx context.Context) error {
	if err := c.Post(ctx, PathAutoGenerateOrder, nil, nil); err != nil {
		return fmt.Errorf("auto-generating purchase orders: %w", err)
	}
	return nil
}

// Supplies lists tracked supplies.
func (c *Client) Supplies(ctx context.Context) ([]model.Supply, error) {
	var supplies []model.Supply
	if err := c.Get(ctx, PathSupplies, &supplies); err != nil {
		return nil, fmt.Errorf("listing supplies: %w", err)
	}
	return supplies, nil
}

// PurchaseOrders lists purchase orders.
func (c *Client) PurchaseOrders(ctx context.Context) ([]model.PurchaseOrder, error) {
	var orders []model.PurchaseOrder
	if err := c.Get(ctx, PathPurchaseOrders, &orders); err != nil {
		return nil, fmt.Errorf("listing purchase orders: %w", err)
	}
	return orders, nil
}

// Suppliers lists suppliers.
func (c *Client) Suppliers(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	if err := c.Get(ctx, PathSuppliers, &suppliers); err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	return suppliers, nil
}

// ValidateConnection verifies connectivity by listing alerts.
// Returns a human-readable status message on success.
func (c *Client) ValidateConnection(ctx context.Context) (string, error) {
	alerts, err := c.Alerts(ctx)
	if err != nil {
		return "", fmt.Errorf("validating backend connection: %w", err)
	}
	return fmt.Sprintf("connected to %s (%d active alerts)", c.baseURL, len(alerts)), nil
}

// Snapshot is a consistent-enough view of every inventory collection,
// fetched in parallel.
type Snapshot struct {
	Supplies       []model.Supply
	Alerts         []model.Alert
	PurchaseOrders []model.PurchaseOrder
	Suppliers      []model.Supplier
}

// FetchSnapshot loads all four collections concurrently. Each
// collection that fails is left nil and its error is joined into the
// returned error, so callers can render partial data.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		snap                            Snapshot
		supErr, alertErr, poErr, splErr error
		done                            = make(chan struct{}, 4)
	)

	go func() { snap.Supplies, supErr = c.Supplies(ctx); done <- struct{}{} }()
	go func() { snap.Alerts, alertErr = c.Alerts(ctx); done <- struct{}{} }()
	go func() { snap.PurchaseOrders, poErr = c.PurchaseOrders(ctx); done <- struct{}{} }()
	go func() { snap.Suppliers, splErr = c.Suppliers(ctx); done <- struct{}{} }()
	for i := 0; i < 4; i++ {
		<-done
	}

	return &snap, errors.Join(supErr, alertErr, poErr, splErr)
}
