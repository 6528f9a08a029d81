// Package metrics exposes client-side Prometheus metrics for a board session.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "drawboard"

// Frame kinds used as the "kind" label of frames_sent_total.
const (
	FrameSubmission = "submission"
	FrameHeartbeat  = "heartbeat"
)

// Metrics holds the collectors of one client. A nil *Metrics is valid and
// records nothing, so components can take it unconditionally.
type Metrics struct {
	pendingDepth   prometheus.Gauge
	participants   prometheus.Gauge
	watermark      prometheus.Gauge
	batches        prometheus.Counter
	confirmedOps   *prometheus.CounterVec
	pruned         prometheus.Counter
	parseErrors    prometheus.Counter
	serverErrors   prometheus.Counter
	framesSent     *prometheus.CounterVec
	snapshots      *prometheus.CounterVec
	redrawDuration prometheus.Histogram
}

// New registers the client collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		pendingDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_operations",
			Help:      "Submitted operations not yet acknowledged by the server",
		}),
		participants: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Participants in the room as last reported by the server",
		}),
		watermark: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ack_watermark",
			Help:      "Highest acknowledged submission id",
		}),
		batches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_batches_total",
			Help:      "Draw batches received from the server",
		}),
		confirmedOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmed_operations_total",
			Help:      "Confirmed operations by outcome",
		}, []string{"result"}),
		pruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_operations_total",
			Help:      "Pending operations removed by acknowledgements",
		}),
		parseErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Inbound frames or batch entries that could not be parsed",
		}),
		serverErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_errors_total",
			Help:      "Error frames received from the server",
		}),
		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Frames written to the server",
		}, []string{"kind"}),
		snapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Canvas snapshots received by outcome",
		}, []string{"result"}),
		redrawDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "redraw_duration_seconds",
			Help:      "Time spent on a full compositor redraw",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pendingDepth.Set(float64(n))
}

func (m *Metrics) SetParticipants(n int) {
	if m == nil {
		return
	}
	m.participants.Set(float64(n))
}

func (m *Metrics) SetWatermark(w uint64) {
	if m == nil {
		return
	}
	m.watermark.Set(float64(w))
}

// ObserveBatch records one applied draw batch.
func (m *Metrics) ObserveBatch(applied, failed, skipped, pruned int) {
	if m == nil {
		return
	}
	m.batches.Inc()
	m.confirmedOps.WithLabelValues("applied").Add(float64(applied))
	m.confirmedOps.WithLabelValues("failed").Add(float64(failed))
	m.pruned.Add(float64(pruned))
	m.parseErrors.Add(float64(skipped))
}

func (m *Metrics) AddParseErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.parseErrors.Add(float64(n))
}

func (m *Metrics) IncServerErrors() {
	if m == nil {
		return
	}
	m.serverErrors.Inc()
}

// IncFramesSent counts one outbound frame of the given kind.
func (m *Metrics) IncFramesSent(kind string) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveSnapshot(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.snapshots.WithLabelValues("failed").Inc()
		return
	}
	m.snapshots.WithLabelValues("loaded").Inc()
}

func (m *Metrics) ObserveRedraw(d time.Duration) {
	if m == nil {
		return
	}
	m.redrawDuration.Observe(d.Seconds())
}

// Handler serves the collectors registered with g in the Prometheus text
// format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes g on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
