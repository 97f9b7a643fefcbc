// Copyright 2025 The Candid LS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "candidls"

// Outcomes of an analysis build.
const (
	BuildPublished  = "published"
	BuildSuperseded = "superseded"
	BuildFailed     = "failed"
)

// Metrics holds the Prometheus collectors of one server. All methods are
// safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	builds             *prometheus.CounterVec
	buildDuration      prometheus.Histogram
	completions        *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	openDocuments      prometheus.Gauge
	diagnostics        prometheus.Counter
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_builds_total",
				Help:      "Analysis snapshot builds by outcome.",
			},
			[]string{"outcome"},
		),
		buildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_build_duration_seconds",
				Help:      "Time spent parsing and resolving one document version.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completion_jobs_total",
				Help:      "Completion jobs by final state.",
			},
			[]string{"state"},
		),
		completionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_duration_seconds",
				Help:      "Completion job latency by synthesis mode.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"mode"},
		),
		openDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_documents",
				Help:      "Number of documents open in the client.",
			},
		),
		diagnostics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_published_total",
				Help:      "Diagnostics sent to the client.",
			},
		),
	}
	m.registry.MustRegister(
		m.builds,
		m.buildDuration,
		m.completions,
		m.completionDuration,
		m.openDocuments,
		m.diagnostics,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
}

// ObserveBuild records one analysis build.
func (m *Metrics) ObserveBuild(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(outcome).Inc()
	if outcome == BuildPublished {
		m.buildDuration.Observe(d.Seconds())
	}
}

// ObserveCompletion records the end of a completion job.
func (m *Metrics) ObserveCompletion(mode, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(state).Inc()
	m.completionDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// SetOpenDocuments records the number of open documents.
func (m *Metrics) SetOpenDocuments(n int) {
	if m == nil {
		return
	}
	m.openDocuments.Set(float64(n))
}

// AddDiagnostics counts published diagnostics.
func (m *Metrics) AddDiagnostics(n int) {
	if m == nil {
		return
	}
	m.diagnostics.Add(float64(n))
}
