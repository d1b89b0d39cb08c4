// Package metrics exposes the run's Prometheus collectors: queue
// depth, dispatch latency, lines demultiplexed per consequence type,
// and HTTP dispatch errors. It is pure observability — nothing in
// internal/pipeline depends on a collector's value to make a decision.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors bundles the run's metric instruments behind one registry,
// so a run's collectors never leak into the next run's global state.
type Collectors struct {
	registry *prometheus.Registry

	QueueDepth       prometheus.Gauge
	DispatchDuration *prometheus.HistogramVec
	LinesDemuxed     *prometheus.CounterVec
	DispatchErrors   prometheus.Counter
}

// New registers a fresh set of collectors against their own registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		registry: reg,
		QueueDepth: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "annokit",
			Name:      "queue_depth",
			Help:      "Current number of batches waiting in the batch queue.",
		}),
		DispatchDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "annokit",
			Name:      "dispatch_duration_seconds",
			Help:      "Latency of one chunk dispatch to the annotation service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		LinesDemuxed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "annokit",
			Name:      "lines_demultiplexed_total",
			Help:      "Annotated lines written, by consequence type.",
		}, []string{"consequence_type"}),
		DispatchErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "annokit",
			Name:      "dispatch_errors_total",
			Help:      "Chunk dispatches that failed (transport error or non-2xx status).",
		}),
	}
	return c
}

// ListenAndServe starts a promhttp.Handler-backed server on addr until
// ctx is cancelled. It never returns a fatal error to the caller for
// http.ErrServerClosed, matching "pure observability, never gates
// pipeline correctness."
func (c *Collectors) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
