// Copyright (c) YugaByte, Inc.

package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	instance *Metrics
	once     = &sync.Once{}
)

// GetInstance returns the singleton metrics.
func GetInstance() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

// Metrics struct contains all the metrics published by the state store.
type Metrics struct {
	mutationCounter *prometheus.CounterVec
	failureCounter  *prometheus.CounterVec
	flushHistogram  *prometheus.HistogramVec
	batchSizeGauge  *prometheus.GaugeVec
}

func newMetrics() *Metrics {
	metrics := &Metrics{
		// Start of all metrics.
		mutationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabletmeta_mutations_total",
				Help: "Total number of tablet metadata mutations committed.",
			}, []string{"store"}),
		failureCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabletmeta_mutation_failures_total",
				Help: "Total number of tablet metadata mutations that failed to commit.",
			}, []string{"store"}),
		flushHistogram: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabletmeta_flush_seconds",
			Help:    "Histogram of batch flush durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"store"}),
		batchSizeGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tabletmeta_batch_mutations",
			Help: "Number of mutations in the most recent flushed batch.",
		}, []string{"store"}),
		// End of all metrics.
	}
	// Register this collector.
	prometheus.MustRegister(metrics)
	return metrics
}

// HTTPHandler returns the HTTP handler for scraping.
func (metrics *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}

// PublishFlushStats records the outcome of one flushed batch.
func (metrics *Metrics) PublishFlushStats(
	store string,
	mutations int,
	duration time.Duration,
	failed bool,
) {
	if failed {
		metrics.failureCounter.WithLabelValues(store).Add(float64(mutations))
	} else {
		metrics.mutationCounter.WithLabelValues(store).Add(float64(mutations))
	}
	metrics.flushHistogram.WithLabelValues(store).Observe(duration.Seconds())
	metrics.batchSizeGauge.WithLabelValues(store).Set(float64(mutations))
}

// Describe implements the prometheus collector interface.
func (metrics *Metrics) Describe(ch chan<- *prometheus.Desc) {
	metrics.mutationCounter.Describe(ch)
	metrics.failureCounter.Describe(ch)
	metrics.flushHistogram.Describe(ch)
	metrics.batchSizeGauge.Describe(ch)
}

// Collect implements the prometheus collector interface.
func (metrics *Metrics) Collect(ch chan<- prometheus.Metric) {
	metrics.mutationCounter.Collect(ch)
	metrics.failureCounter.Collect(ch)
	metrics.flushHistogram.Collect(ch)
	metrics.batchSizeGauge.Collect(ch)
}
