// Package metrics defines the Prometheus collectors for training and ranking
// and exposes an HTTP handler for scraping.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	TrainRunsTotal       *prometheus.CounterVec
	TrainIterationsTotal prometheus.Counter
	TrainLoss            *prometheus.GaugeVec
	TrainDuration        prometheus.Histogram
	RankRequestsTotal    *prometheus.CounterVec
	RankLatency          prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		TrainRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deltr_train_runs_total",
				Help: "Total training runs by status (ok, error).",
			},
			[]string{"status"},
		),
		TrainIterationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "deltr_train_iterations_total",
				Help: "Total gradient descent iterations executed.",
			},
		),
		TrainLoss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deltr_train_loss",
				Help: "Loss of the latest iteration by component (standard, exposure, total, objective).",
			},
			[]string{"component"},
		),
		TrainDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deltr_train_duration_seconds",
				Help:    "Wall time of a full training run in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		RankRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deltr_rank_requests_total",
				Help: "Total rank calls by status (ok, error).",
			},
			[]string{"status"},
		),
		RankLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deltr_rank_latency_seconds",
				Help:    "Latency of scoring and re-ordering one group in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
	}
	reg.MustRegister(
		m.TrainRunsTotal,
		m.TrainIterationsTotal,
		m.TrainLoss,
		m.TrainDuration,
		m.RankRequestsTotal,
		m.RankLatency,
	)
	return m
}

// ObserveIteration records the losses of one training iteration.
func (m *Metrics) ObserveIteration(standard, exposure, total, objective float64) {
	if m == nil {
		return
	}
	m.TrainIterationsTotal.Inc()
	m.TrainLoss.WithLabelValues("standard").Set(standard)
	m.TrainLoss.WithLabelValues("exposure").Set(exposure)
	m.TrainLoss.WithLabelValues("total").Set(total)
	m.TrainLoss.WithLabelValues("objective").Set(objective)
}

// ObserveTrain records the outcome of a training run.
func (m *Metrics) ObserveTrain(start time.Time, err error) {
	if m == nil {
		return
	}
	m.TrainDuration.Observe(time.Since(start).Seconds())
	m.TrainRunsTotal.WithLabelValues(status(err)).Inc()
}

// ObserveRank records the outcome of a rank call.
func (m *Metrics) ObserveRank(start time.Time, err error) {
	if m == nil {
		return
	}
	m.RankLatency.Observe(time.Since(start).Seconds())
	m.RankRequestsTotal.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// StartServer serves /metrics for g on addr in a background goroutine.
func StartServer(addr string, g prometheus.Gatherer) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
