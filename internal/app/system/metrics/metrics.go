// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APILatency measures HTTP request latencies by route pattern.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pairup_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// LoginAttempts records login attempts by result (success|failure|limited).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairup_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// PairsGenerated counts pairs written by roster generation.
	PairsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairup_pairs_generated_total",
		Help: "Total number of pairs created by pairing generation",
	})

	// PairingRuns counts generation runs by result (ok|error|empty).
	PairingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairup_pairing_runs_total",
			Help: "Pairing generation runs",
		},
		[]string{"result"},
	)

	// Negotiation counts negotiation actions (propose|confirm|meeting_link) and
	// whether a common slot was found for proposals.
	Negotiation = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairup_negotiation_actions_total",
			Help: "Slot negotiation actions",
		},
		[]string{"action"},
	)

	// Notifications counts outbound notifications by channel and result.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairup_notifications_total",
			Help: "Notifications dispatched",
		},
		[]string{"channel", "result"},
	)

	// RealtimeConnections is the number of open websocket clients.
	RealtimeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairup_realtime_connections",
		Help: "Open realtime websocket connections",
	})

	// JobRuns counts scheduled job runs by job and result.
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairup_job_runs_total",
			Help: "Scheduled job runs",
		},
		[]string{"job", "result"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records APILatency using the matched chi route pattern so ids in
// paths do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		APILatency.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
