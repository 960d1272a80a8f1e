package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_api_requests_total",
			Help: "Total number of REST requests issued by the client.",
		},
		[]string{"method", "route", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_client_api_request_duration_seconds",
			Help:    "REST request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	tokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_token_refresh_total",
			Help: "Total number of access token refresh attempts.",
		},
		[]string{"result"},
	)
	statusRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_status_requests_total",
			Help: "Total number of requests served by the local status server.",
		},
		[]string{"method", "route", "status"},
	)
	wsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "social_client_ws_connected",
			Help: "Whether the realtime connection is up.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_ws_events_total",
			Help: "Total number of realtime events by name.",
		},
		[]string{"event"},
	)
	streamDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_stream_dropped_total",
			Help: "Events dropped because a subscriber buffer was full.",
		},
		[]string{"stream"},
	)
	localNotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_client_local_notifications_total",
			Help: "Local notifications shown or suppressed for incoming messages.",
		},
		[]string{"decision"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_client_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		tokenRefreshTotal,
		statusRequestsTotal,
		wsConnected,
		wsEventsTotal,
		streamDroppedTotal,
		localNotificationsTotal,
		amqpPublishErrorsTotal,
	)
}

// StatusMetricsMiddleware counts requests served by the status server.
func StatusMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		statusRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ObserveAPIRequest records one REST call. status is 0 for transport failures.
func ObserveAPIRequest(method, route string, status int, started time.Time) {
	apiRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}

func IncTokenRefresh(result string) {
	tokenRefreshTotal.WithLabelValues(result).Inc()
}

func SetWSConnected(up bool) {
	if up {
		wsConnected.Set(1)
		return
	}
	wsConnected.Set(0)
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncStreamDropped(stream string) {
	streamDroppedTotal.WithLabelValues(stream).Inc()
}

func IncLocalNotification(decision string) {
	localNotificationsTotal.WithLabelValues(decision).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
