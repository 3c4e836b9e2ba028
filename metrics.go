// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.
//
// metrics.go adapts eventloop's metrics.go + psquare.go (P² streaming
// percentile estimator) into an optional, Prometheus-exportable snapshot,
// grounded on kstaniek-go-ampio-server/internal/metrics' use of
// github.com/prometheus/client_golang for a long-running server process.
package asyncio

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LoopMetrics is a point-in-time snapshot of [Loop] runtime statistics.
type LoopMetrics struct {
	Ticks            uint64
	ExternalQueueMax int
	TickLatency      map[float64]time.Duration
	TickLatencyMean  time.Duration
}

type loopMetrics struct {
	mu               sync.Mutex
	ticks            uint64
	externalQueueMax int
	percentiles      []float64
	estimator        *pSquareMultiQuantile
}

func newLoopMetrics(percentiles ...float64) *loopMetrics {
	return &loopMetrics{
		percentiles: percentiles,
		estimator:   newPSquareMultiQuantile(percentiles...),
	}
}

func (m *loopMetrics) recordTick(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	m.estimator.Update(float64(d))
}

func (m *loopMetrics) recordExternalDepth(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > m.externalQueueMax {
		m.externalQueueMax = n
	}
}

func (m *loopMetrics) snapshot() LoopMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	lat := make(map[float64]time.Duration, len(m.percentiles))
	for i, p := range m.percentiles {
		lat[p] = time.Duration(m.estimator.Quantile(i))
	}
	return LoopMetrics{
		Ticks:            m.ticks,
		ExternalQueueMax: m.externalQueueMax,
		TickLatency:      lat,
		TickLatencyMean:  time.Duration(m.estimator.Mean()),
	}
}

// PrometheusCollector exposes a [Loop]'s metrics as Prometheus
// instruments. Register it with a prometheus.Registerer to export
// asyncio_loop_ticks_total, asyncio_loop_tick_latency_seconds, and
// asyncio_loop_external_queue_depth_max.
type PrometheusCollector struct {
	loop *Loop

	ticks        *prometheus.Desc
	tickLatency  *prometheus.Desc
	queueMaxSize *prometheus.Desc
}

// NewPrometheusCollector wraps l for Prometheus registration.
func NewPrometheusCollector(l *Loop) *PrometheusCollector {
	return &PrometheusCollector{
		loop: l,
		ticks: prometheus.NewDesc(
			"asyncio_loop_ticks_total", "Total loop iterations executed.", []string{"loop_id"}, nil,
		),
		tickLatency: prometheus.NewDesc(
			"asyncio_loop_tick_latency_seconds", "Loop tick latency quantile.", []string{"loop_id", "quantile"}, nil,
		),
		queueMaxSize: prometheus.NewDesc(
			"asyncio_loop_external_queue_depth_max", "High-water mark of the external submission queue.", []string{"loop_id"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ticks
	ch <- c.tickLatency
	ch <- c.queueMaxSize
}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.loop.Metrics()
	id := strconv.FormatUint(c.loop.ID(), 10)

	ch <- prometheus.MustNewConstMetric(c.ticks, prometheus.CounterValue, float64(snap.Ticks), id)
	ch <- prometheus.MustNewConstMetric(c.queueMaxSize, prometheus.GaugeValue, float64(snap.ExternalQueueMax), id)
	for q, d := range snap.TickLatency {
		ch <- prometheus.MustNewConstMetric(c.tickLatency, prometheus.GaugeValue, d.Seconds(), id, quantileLabel(q))
	}
}

// WorkerPoolCollector exposes a [WorkerPool]'s utilization as Prometheus
// instruments, grounded on the same kstaniek-go-ampio-server metrics
// pattern as [PrometheusCollector], applied to worker utilization instead
// of loop tick latency.
type WorkerPoolCollector struct {
	label string
	pool  *WorkerPool

	active *prometheus.Desc
	max    *prometheus.Desc
}

// NewWorkerPoolCollector wraps p for Prometheus registration under label
// (e.g. a loop ID or a caller-chosen pool name).
func NewWorkerPoolCollector(label string, p *WorkerPool) *WorkerPoolCollector {
	return &WorkerPoolCollector{
		label: label,
		pool:  p,
		active: prometheus.NewDesc(
			"asyncio_workerpool_active_workers", "Goroutines currently executing submitted work.", []string{"pool"}, nil,
		),
		max: prometheus.NewDesc(
			"asyncio_workerpool_max_workers", "Configured worker bound, 0 if unbounded.", []string{"pool"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *WorkerPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.max
}

// Collect implements prometheus.Collector.
func (c *WorkerPoolCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.pool.ActiveWorkers()), c.label)
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(c.pool.MaxWorkers()), c.label)
}

// ChannelCollector exposes a channel's buffer occupancy as a Prometheus
// gauge. occupancy is typically a [Channel.Occupancy] method value, kept
// generics-free so one concrete collector type serves every element type.
type ChannelCollector struct {
	label     string
	occupancy func() (length, capacity int)

	length *prometheus.Desc
	cap    *prometheus.Desc
}

// NewChannelCollector wraps occupancy (e.g. (*Channel[T]).Occupancy) for
// Prometheus registration under label.
func NewChannelCollector(label string, occupancy func() (length, capacity int)) *ChannelCollector {
	return &ChannelCollector{
		label:     label,
		occupancy: occupancy,
		length: prometheus.NewDesc(
			"asyncio_channel_length", "Buffered elements currently queued.", []string{"channel"}, nil,
		),
		cap: prometheus.NewDesc(
			"asyncio_channel_capacity", "Fixed channel buffer capacity.", []string{"channel"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *ChannelCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.length
	ch <- c.cap
}

// Collect implements prometheus.Collector.
func (c *ChannelCollector) Collect(ch chan<- prometheus.Metric) {
	length, capacity := c.occupancy()
	ch <- prometheus.MustNewConstMetric(c.length, prometheus.GaugeValue, float64(length), c.label)
	ch <- prometheus.MustNewConstMetric(c.cap, prometheus.GaugeValue, float64(capacity), c.label)
}

func quantileLabel(q float64) string {
	switch q {
	case 0.5:
		return "p50"
	case 0.95:
		return "p95"
	case 0.99:
		return "p99"
	default:
		return strconv.FormatFloat(q, 'g', -1, 64)
	}
}
