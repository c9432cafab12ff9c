package devbackend

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/medchain/inventory-console/internal/metrics"
)

// Frame is a push notification frame as sent on /ws/notifications.
type Frame struct {
	Type             string `json:"type"`
	ID               string `json:"id,omitempty"`
	NotificationType string `json:"notification_type,omitempty"`
	Title            string `json:"title,omitempty"`
	Message          string `json:"message,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
	Severity         string `json:"severity,omitempty"`
	ActionURL        string `json:"action_url,omitempty"`
	ItemID           string `json:"item_id,omitempty"`
}

// FrameNotification is the only frame type clients act on.
const FrameNotification = "notification"

// Hub tracks push subscribers and fans frames out to them.
type Hub struct {
	// mu is held exclusively while writing: a websocket conn does not
	// support concurrent writers.
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	logger *zap.Logger
}

// NewHub returns an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		conns:  make(map[*websocket.Conn]bool),
		logger: logger.Named("hub"),
	}
}

func (h *Hub) register(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = true
	metrics.SetDevSubscribers(len(h.conns))
	h.logger.Info("subscriber joined", zap.Int("total", len(h.conns)))
}

func (h *Hub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
	metrics.SetDevSubscribers(len(h.conns))
	h.logger.Info("subscriber left", zap.Int("remaining", len(h.conns)))
}

// Subscribers returns the number of open subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends f to every subscriber and returns how many writes
// succeeded.
func (h *Hub) Broadcast(f Frame) int {
	msg, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("marshalling frame", zap.Error(err))
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Warn("writing frame", zap.Error(err))
			continue
		}
		sent++
	}
	h.logger.Debug("broadcast",
		zap.String("title", f.Title),
		zap.Int("sent", sent),
		zap.Int("subscribers", len(h.conns)))
	return sent
}

// Serve holds a subscriber until it disconnects. Inbound messages such
// as keepalive pings are read and ignored.
func (h *Hub) Serve(c *websocket.Conn) {
	h.register(c)
	defer h.unregister(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
