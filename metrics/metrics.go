// Package metrics exposes Prometheus counters and histograms for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the pipeline reports to.
type Recorder interface {
	RecordRun(outcome string)
	RecordStep(step string, duration time.Duration, err error)
	RecordImageDegraded()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	runs          *prometheus.CounterVec
	stepLatency   *prometheus.HistogramVec
	stepFailures  *prometheus.CounterVec
	imageDegraded prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlepub_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "articlepub_step_duration_seconds",
			Help:    "Duration of each pipeline step.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"step"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlepub_step_failures_total",
			Help: "Failed pipeline steps.",
		}, []string{"step"}),
		imageDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "articlepub_image_degraded_total",
			Help: "Runs that continued without a featured image.",
		}),
	}

	reg.MustRegister(c.runs, c.stepLatency, c.stepFailures, c.imageDegraded)
	return c
}

func (c *Collector) RecordRun(outcome string) {
	c.runs.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStep(step string, duration time.Duration, err error) {
	c.stepLatency.WithLabelValues(step).Observe(duration.Seconds())
	if err != nil {
		c.stepFailures.WithLabelValues(step).Inc()
	}
}

func (c *Collector) RecordImageDegraded() {
	c.imageDegraded.Inc()
}

// Handler serves the Prometheus scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(string)                        {}
func (Nop) RecordStep(string, time.Duration, error) {}
func (Nop) RecordImageDegraded()                    {}
