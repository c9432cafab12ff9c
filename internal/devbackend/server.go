// Package devbackend is an in-memory inventory backend for running the
// console without the real service. It serves the REST endpoints the
// console calls and pushes notification frames on /ws/notifications.
package devbackend

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/inventory"
	"github.com/medchain/inventory-console/internal/metrics"
	"github.com/medchain/inventory-console/internal/model"
)

// Server wires the inventory and the push hub to a fiber app.
type Server struct {
	app    *fiber.App
	inv    *Inventory
	hub    *Hub
	token  string
	logger *zap.Logger
}

// New builds the fiber app. A non-empty token is required as a Bearer
// Authorization header on every inventory and push route.
func New(inv *Inventory, hub *Hub, token string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		inv:    inv,
		hub:    hub,
		token:  token,
		logger: logger.Named("devbackend"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "medchain-devbackend",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(s.recordRequest)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "subscribers": hub.Subscribers()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/inventory", s.requireToken)
	api.Get("/supplies", s.getSupplies)
	api.Get("/suppliers", s.getSuppliers)
	api.Get("/alerts", s.getAlerts)
	api.Post("/alerts/dismiss", s.dismissAlert)
	api.Post("/alerts/check", s.checkAlerts)
	api.Get("/purchase-orders", s.getPurchaseOrders)
	api.Post("/purchase-orders/auto-generate", s.autoGenerateOrders)
	api.Patch("/supplies/:id/stock", s.setStock)

	app.Use("/ws", s.requireToken, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws/notifications", websocket.New(hub.Serve))

	app.Post("/dev/notify", s.requireToken, s.notify)

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and closes open connections.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// CheckAndBroadcast runs an alert check and pushes a frame for each new
// alert. It returns the alerts raised.
func (s *Server) CheckAndBroadcast() []model.Alert {
	raised := s.inv.CheckAlerts()
	for _, a := range raised {
		s.hub.Broadcast(alertFrame(a))
	}
	return raised
}

func (s *Server) recordRequest(c *fiber.Ctx) error {
	err := c.Next()

	status := c.Response().StatusCode()
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
	}
	metrics.RecordDevRequest(c.Method(), c.Route().Path, status)
	return err
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.token == "" {
		return c.Next()
	}
	if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.token {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or missing API token",
		})
	}
	return c.Next()
}

func (s *Server) getSupplies(c *fiber.Ctx) error {
	return c.JSON(s.inv.Supplies())
}

func (s *Server) getSuppliers(c *fiber.Ctx) error {
	return c.JSON(s.inv.Suppliers())
}

func (s *Server) getAlerts(c *fiber.Ctx) error {
	return c.JSON(s.inv.Alerts())
}

func (s *Server) getPurchaseOrders(c *fiber.Ctx) error {
	return c.JSON(s.inv.PurchaseOrders())
}

func (s *Server) dismissAlert(c *fiber.Ctx) error {
	var req inventory.DismissRequest
	if err := c.BodyParser(&req); err != nil || req.AlertID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "alert_id is required",
		})
	}
	if !s.inv.DismissAlert(req.AlertID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Alert not found",
		})
	}
	s.logger.Info("alert dismissed", zap.String("alert_id", req.AlertID))
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) checkAlerts(c *fiber.Ctx) error {
	raised := s.CheckAndBroadcast()
	s.logger.Info("alert check", zap.Int("raised", len(raised)))
	return c.JSON(fiber.Map{"raised": len(raised)})
}

func (s *Server) autoGenerateOrders(c *fiber.Ctx) error {
	created := s.inv.AutoGenerateOrders()
	for _, po := range created {
		s.hub.Broadcast(Frame{
			Type:             FrameNotification,
			NotificationType: string(model.KindSuccess),
			Title:            "Purchase Order Created",
			Message:          fmt.Sprintf("%s: %d x %s from %s", po.OrderID, po.Quantity, po.ItemName, po.SupplierName),
			Timestamp:        po.CreatedAt.UTC().Format(time.RFC3339),
			Severity:         string(model.SeverityLow),
			ItemID:           po.ItemID,
			ActionURL:        "/inventory?item=" + po.ItemID,
		})
	}
	s.logger.Info("purchase orders generated", zap.Int("created", len(created)))
	return c.JSON(fiber.Map{"created": len(created), "orders": created})
}

type stockRequest struct {
	CurrentStock *int `json:"current_stock"`
}

func (s *Server) setStock(c *fiber.Ctx) error {
	var req stockRequest
	if err := c.BodyParser(&req); err != nil || req.CurrentStock == nil || *req.CurrentStock < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "current_stock must be a non-negative integer",
		})
	}
	if err := s.inv.SetStock(c.Params("id"), *req.CurrentStock); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true})
}

// notify broadcasts an arbitrary frame. Missing type and timestamp are
// filled in; everything else is passed through so clients' defaulting
// can be exercised.
func (s *Server) notify(c *fiber.Ctx) error {
	var f Frame
	if err := c.BodyParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid frame",
		})
	}
	if f.Type == "" {
		f.Type = FrameNotification
	}
	if f.Timestamp == "" {
		f.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	sent := s.hub.Broadcast(f)
	return c.JSON(fiber.Map{"delivered": sent})
}

func alertFrame(a model.Alert) Frame {
	title := "Low Stock Alert"
	if a.Type == AlertExpiry {
		title = "Expiry Warning"
	}
	return Frame{
		Type:             FrameNotification,
		ID:               a.AlertID,
		NotificationType: a.Type,
		Title:            title,
		Message:          a.Message,
		Timestamp:        a.CreatedAt.UTC().Format(time.RFC3339),
		Severity:         a.Severity,
		ItemID:           a.ItemID,
		ActionURL:        "/inventory?item=" + a.ItemID,
	}
}
