package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/sitefind/internal/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcomes recorded by RecordSearch.
const (
	OutcomeFound         = "found"
	OutcomeNotFound      = "not_found"
	OutcomeUpstreamError = "upstream_error"
	OutcomeFetchError    = "fetch_error"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitefind_upstream_requests_total",
			Help: "Total number of fetches sent to the scraping proxy",
		},
		[]string{"status", "blocked", "blocked_by"},
	)

	UpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitefind_upstream_duration_seconds",
			Help:    "Duration of scraping proxy fetches in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	UpstreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitefind_upstream_bytes_total",
			Help: "Total bytes downloaded from the scraping proxy",
		},
	)

	SearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitefind_search_candidates",
			Help:    "Number of candidates extracted per search",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
		},
	)

	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitefind_searches_total",
			Help: "Total number of searches by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordFetch updates the upstream metrics for a single proxy response.
func RecordFetch(res *upstream.Response) {
	if res == nil {
		return
	}

	blockedStr := "false"
	if res.Blocked {
		blockedStr = "true"
	}

	statusStr := strconv.Itoa(res.StatusCode)
	if res.Error != "" {
		statusStr = "error"
	}

	UpstreamRequestsTotal.WithLabelValues(statusStr, blockedStr, res.BlockedBy).Inc()
	UpstreamDuration.Observe(res.Duration.Seconds())
	UpstreamBytesTotal.Add(float64(len(res.Body)))
}

// RecordSearch counts a finished search and, when candidates >= 0, how many
// candidates extraction produced.
func RecordSearch(outcome string, candidates int) {
	SearchesTotal.WithLabelValues(outcome).Inc()
	if candidates >= 0 {
		SearchCandidates.Observe(float64(candidates))
	}
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// NewServer returns a metrics server exposing /metrics on port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{srv: &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// ListenAndServe blocks until the server stops. Shutdown is not an error.
func (s *Server) ListenAndServe() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
