package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PushFrames counts inbound push frames by result (accepted, dropped).
	PushFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medchain_push_frames_total",
			Help: "Inbound push channel frames by result",
		},
		[]string{"result"},
	)

	// ChannelDials counts push channel dial attempts by outcome.
	ChannelDials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medchain_channel_dials_total",
			Help: "Push channel dial attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ChannelConnected is 1 while the push channel is open.
	ChannelConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medchain_channel_connected",
			Help: "Whether the push channel is currently open",
		},
	)

	// FetchOutcomes counts snapshot fetches by outcome
	// (applied, fallback, stale, kept).
	FetchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medchain_fetch_outcomes_total",
			Help: "Alert snapshot fetches by outcome",
		},
		[]string{"outcome"},
	)

	// DismissOutcomes counts backend dismiss requests by status.
	DismissOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medchain_dismiss_requests_total",
			Help: "Backend dismiss requests by status",
		},
		[]string{"status"},
	)

	// UnreadNotifications tracks the store's unread count.
	UnreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medchain_unread_notifications",
			Help: "Unread notifications in the local store",
		},
	)

	// HTTPRequestDuration records backend request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medchain_backend_request_duration_seconds",
			Help:    "Inventory backend request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "path", "status"},
	)

	// DevRequests counts requests served by the development backend.
	DevRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medchain_devbackend_requests_total",
			Help: "Development backend requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	// DevSubscribers is the number of open push subscribers on the
	// development backend.
	DevSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medchain_devbackend_push_subscribers",
			Help: "Open push channel subscribers on the development backend",
		},
	)
)

// RecordPushFrame counts an inbound frame.
func RecordPushFrame(accepted bool) {
	if accepted {
		PushFrames.WithLabelValues("accepted").Inc()
		return
	}
	PushFrames.WithLabelValues("dropped").Inc()
}

// RecordDial counts a dial attempt and updates the connected gauge.
func RecordDial(err error) {
	if err != nil {
		ChannelDials.WithLabelValues("failed").Inc()
		return
	}
	ChannelDials.WithLabelValues("connected").Inc()
	ChannelConnected.Set(1)
}

// RecordDisconnect marks the push channel closed.
func RecordDisconnect() {
	ChannelConnected.Set(0)
}

// RecordFetch counts a snapshot fetch outcome.
func RecordFetch(outcome string) {
	FetchOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDismiss counts a backend dismiss result.
func RecordDismiss(err error) {
	if err != nil {
		DismissOutcomes.WithLabelValues("failed").Inc()
		return
	}
	DismissOutcomes.WithLabelValues("ok").Inc()
}

// SetUnread publishes the current unread count.
func SetUnread(n int) {
	UnreadNotifications.Set(float64(n))
}

// RecordHTTPRequestDuration observes one backend request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDevRequest counts one development backend request.
func RecordDevRequest(method, route string, status int) {
	DevRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// SetDevSubscribers publishes the development backend's subscriber count.
func SetDevSubscribers(n int) {
	DevSubscribers.Set(float64(n))
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
