// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exposes command queue activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type queueMetrics struct {
	createTotal        *prometheus.CounterVec
	releaseTotal       prometheus.Counter
	destroyTotal       prometheus.Counter
	queuesLive         prometheus.Gauge
	recordsOutstanding prometheus.Gauge
	drainWait          *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *queueMetrics
)

func getMetrics() *queueMetrics {
	metricsOnce.Do(func() {
		m := &queueMetrics{
			createTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "clq_queue_create_total",
					Help: "Command queue create calls by resulting status.",
				},
				[]string{"status"},
			),
			releaseTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "clq_queue_release_total",
					Help: "Successful command queue release calls.",
				},
			),
			destroyTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "clq_queue_destroy_total",
					Help: "Command queues whose storage was reclaimed.",
				},
			),
			queuesLive: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "clq_queues_live",
					Help: "Command queues created and not yet destroyed.",
				},
			),
			recordsOutstanding: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "clq_records_outstanding",
					Help: "Command records enqueued and not yet retired, across all queues.",
				},
			),
			drainWait: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "clq_drain_wait_seconds",
					Help:    "Time spent waiting for a queue to become quiescent, by reason.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"reason"},
			),
		}

		prometheus.MustRegister(
			m.createTotal,
			m.releaseTotal,
			m.destroyTotal,
			m.queuesLive,
			m.recordsOutstanding,
			m.drainWait,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordCreate counts a create call that ended with status.
func RecordCreate(status string) {
	getMetrics().createTotal.WithLabelValues(status).Inc()
}

// QueueCreated counts a queue that became live.
func QueueCreated() {
	getMetrics().queuesLive.Inc()
}

// QueueDestroyed counts a reclaimed queue and drops it from the live gauge.
func QueueDestroyed() {
	m := getMetrics()
	m.destroyTotal.Inc()
	m.queuesLive.Dec()
}

// RecordRelease counts a successful release.
func RecordRelease() {
	getMetrics().releaseTotal.Inc()
}

// AddOutstandingRecords moves the outstanding record gauge by delta.
func AddOutstandingRecords(delta int) {
	getMetrics().recordsOutstanding.Add(float64(delta))
}

// ObserveDrainWait records how long a caller waited for quiescence.
// reason is "release" or "ordering".
func ObserveDrainWait(reason string, d time.Duration) {
	getMetrics().drainWait.WithLabelValues(reason).Observe(d.Seconds())
}
