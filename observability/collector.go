package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector is a Recorder backed by Prometheus metrics.
type Collector struct {
	batchesTotal   *prometheus.CounterVec
	batchDuration  *prometheus.HistogramVec
	batchNodes     prometheus.Histogram
	batchesActive  prometheus.Gauge
	nodesTotal     *prometheus.CounterVec
	nodeDuration   *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	rejectionTotal prometheus.Counter
}

var _ Recorder = (*Collector)(nil)

// NewCollector registers the gobatch metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		batchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gobatch_batches_total",
			Help: "Total number of batches by outcome",
		}, []string{"outcome"}),
		batchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gobatch_batch_duration_seconds",
			Help:    "Batch duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"outcome"}),
		batchNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobatch_batch_nodes",
			Help:    "Number of nodes per batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		batchesActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "gobatch_batches_active",
			Help: "Batches currently being executed",
		}),
		nodesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gobatch_nodes_total",
			Help: "Total number of node results by method and outcome",
		}, []string{"method", "outcome"}),
		nodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gobatch_node_duration_seconds",
			Help:    "Node invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		errorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gobatch_errors_total",
			Help: "Total number of errors by code and component",
		}, []string{"code", "component"}),
		rejectionTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "gobatch_batches_rejected_total",
			Help: "Batches rejected because the endpoint was saturated",
		}),
	}
}

// RecordBatch implements Recorder.
func (c *Collector) RecordBatch(_ context.Context, outcome string, nodes int, d time.Duration) {
	c.batchesTotal.WithLabelValues(outcome).Inc()
	c.batchDuration.WithLabelValues(outcome).Observe(d.Seconds())
	c.batchNodes.Observe(float64(nodes))
}

// RecordNode implements Recorder.
func (c *Collector) RecordNode(_ context.Context, method, outcome string, d time.Duration) {
	c.nodesTotal.WithLabelValues(method, outcome).Inc()
	c.nodeDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordError implements Recorder.
func (c *Collector) RecordError(_ context.Context, code, component string) {
	c.errorsTotal.WithLabelValues(code, component).Inc()
}

// BatchStarted increments the active batch gauge.
func (c *Collector) BatchStarted() { c.batchesActive.Inc() }

// BatchFinished decrements the active batch gauge.
func (c *Collector) BatchFinished() { c.batchesActive.Dec() }

// BatchRejected counts a batch turned away by the bulkhead.
func (c *Collector) BatchRejected() { c.rejectionTotal.Inc() }
