// Package build renders template details, copies assets and drives whole
// builds of a site.
package build

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Task kinds
const (
	TaskRender = "render"
	TaskCopy   = "copy"
	TaskRemove = "remove"
)

// Metrics records task and build counts and durations in a prometheus registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prom.Registry
	taskDuration  *prom.HistogramVec
	taskResults   *prom.CounterVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
}

// NewMetrics constructs and registers the build metrics in reg. A nil reg
// gets a private registry.
func NewMetrics(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{registry: reg}
	m.taskDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "stencil",
		Name:      "task_duration_seconds",
		Help:      "Duration of individual render, copy and remove tasks",
		Buckets:   prom.DefBuckets,
	}, []string{"kind"})
	m.taskResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "stencil",
		Name:      "task_results_total",
		Help:      "Task results by kind and outcome",
	}, []string{"kind", "result"})
	m.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "stencil",
		Name:      "build_duration_seconds",
		Help:      "Total build duration",
		Buckets:   prom.DefBuckets,
	})
	m.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "stencil",
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	reg.MustRegister(m.taskDuration, m.taskResults, m.buildDuration, m.buildOutcome)
	return m
}

// Registry returns the registry the metrics are registered in
func (m *Metrics) Registry() *prom.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveTask records one task of kind
func (m *Metrics) ObserveTask(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.taskResults.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveBuild records one build
func (m *Metrics) ObserveBuild(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
	m.buildOutcome.WithLabelValues(outcome(err)).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prom.WriteToTextfile(path, m.registry)
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
