// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tour_ratings_http_requests_total",
			Help: "Total HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tour_ratings_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tour_ratings_http_active_requests",
			Help: "Requests currently being served",
		},
	)

	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tour_ratings_recommendation_requests_total",
			Help: "Recommendation calls by kind (top, customer) and outcome (ok, invalid, error)",
		},
		[]string{"kind", "outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tour_ratings_recommendation_duration_seconds",
			Help:    "Time spent producing recommendations, store query included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RecommendationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tour_ratings_recommendation_results",
			Help:    "Number of entries returned per recommendation call",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)
)

// Recommendation outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
		return
	}
	HTTPActiveRequests.Dec()
}

// RecordRecommendation records one engine call.
func RecordRecommendation(kind, outcome string, results int, duration time.Duration) {
	RecommendationRequests.WithLabelValues(kind, outcome).Inc()
	RecommendationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if outcome == OutcomeOK {
		RecommendationResults.WithLabelValues(kind).Observe(float64(results))
	}
}

// RegisterPoolStats exports connection pool gauges read from statFn on scrape.
// Registering twice is a no-op.
func RegisterPoolStats(reg prometheus.Registerer, statFn func() *pgxpool.Stat) error {
	gauges := []prometheus.Collector{
		poolGauge("tour_ratings_db_pool_acquired_conns", "Connections currently checked out", statFn,
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		poolGauge("tour_ratings_db_pool_idle_conns", "Idle connections in the pool", statFn,
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		poolGauge("tour_ratings_db_pool_total_conns", "Total connections in the pool", statFn,
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
	}
	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

func poolGauge(name, help string, statFn func() *pgxpool.Stat, read func(*pgxpool.Stat) float64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
		stat := statFn()
		if stat == nil {
			return 0
		}
		return read(stat)
	})
}
