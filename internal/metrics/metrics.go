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
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trusthire_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "status"},
	)

	PaymentCaptures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusthire_payment_captures_total",
			Help: "Escrow capture attempts by method and result",
		},
		[]string{"method", "result"},
	)

	EscrowReleases = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trusthire_escrow_releases_total",
			Help: "Escrow amounts released to freelancers",
		},
	)

	SignatureVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusthire_signature_verifications_total",
			Help: "Gateway signature verifications by result",
		},
		[]string{"result"},
	)

	Withdrawals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trusthire_withdrawals_total",
			Help: "Withdrawal requests by result",
		},
		[]string{"result"},
	)

	ExpiredOrders = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trusthire_payment_orders_expired_total",
			Help: "Gateway orders expired by the cleaner",
		},
	)

	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trusthire_feed_connections",
			Help: "Open WebSocket feed connections",
		},
	)
)

// Result turns an error into a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument records request duration. Paths are left out to keep label cardinality bounded.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		HTTPRequestDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
