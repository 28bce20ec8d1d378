// Package metrics exports rope construction and flatten activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/consrope/internal/engine/rope"
)

const namespace = "consrope"

// Flatten modes.
const (
	ModeLazy  = "lazy"
	ModeEager = "eager"
)

// Failure kinds.
const (
	KindOverflow   = "overflow"
	KindIndex      = "index"
	KindAllocation = "allocation"
	KindOther      = "other"
)

// Collector is a rope.Observer backed by Prometheus collectors.
// It is safe for concurrent use.
type Collector struct {
	ConstructedTotal prometheus.Counter
	NodeCount        prometheus.Histogram
	FlattensTotal    *prometheus.CounterVec
	FlattenedBytes   prometheus.Counter
	FlattenLeaves    prometheus.Histogram
	FailuresTotal    *prometheus.CounterVec
}

var _ rope.Observer = (*Collector)(nil)

// New registers the rope collectors with reg.
// A nil reg uses the default Prometheus registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		ConstructedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rope",
			Name:      "constructed_total",
			Help:      "Concatenations that produced a rope",
		}),
		NodeCount: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rope",
			Name:      "lazy_nodes",
			Help:      "Lazy node count of each constructed rope",
			Buckets:   []float64{1, 2, 4, 16, 64, 256, 1024, 2000, 4096},
		}),
		FlattensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flatten",
			Name:      "total",
			Help:      "Completed flattens by mode",
		}, []string{"mode"}),
		FlattenedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flatten",
			Name:      "bytes_total",
			Help:      "Bytes copied by flattens",
		}),
		FlattenLeaves: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "flatten",
			Name:      "leaves",
			Help:      "Leaves copied per flatten",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		FailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rope",
			Name:      "failures_total",
			Help:      "Failed rope operations by kind",
		}, []string{"kind"}),
	}
}

// Constructed implements rope.Observer.
func (c *Collector) Constructed(s rope.Stats) {
	c.ConstructedTotal.Inc()
	c.NodeCount.Observe(float64(s.Nodes))
}

// Flattened implements rope.Observer.
func (c *Collector) Flattened(e rope.FlattenEvent) {
	mode := ModeLazy
	if e.Eager {
		mode = ModeEager
	}
	c.FlattensTotal.WithLabelValues(mode).Inc()
	c.FlattenedBytes.Add(float64(e.Len))
	c.FlattenLeaves.Observe(float64(e.Leaves))
}

// Failed implements rope.Observer.
func (c *Collector) Failed(err error) {
	c.FailuresTotal.WithLabelValues(Kind(err)).Inc()
}

// Kind classifies a rope error for the failures_total label.
func Kind(err error) string {
	switch {
	case errors.Is(err, rope.ErrConstructionOverflow):
		return KindOverflow
	case errors.Is(err, rope.ErrIndexOutOfRange):
		return KindIndex
	case errors.Is(err, rope.ErrAllocationFailure):
		return KindAllocation
	default:
		return KindOther
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
