// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bimiready"

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can run without instrumentation.
type Metrics struct {
	lookups       *prometheus.CounterVec
	lookupLatency *prometheus.HistogramVec
	cache         *prometheus.CounterVec
	steps         *prometheus.CounterVec
	runs          *prometheus.CounterVec
	scores        prometheus.Histogram
	validations   *prometheus.CounterVec
	violations    *prometheus.CounterVec
	generations   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_lookups_total",
			Help:      "DNS lookups by upstream, record type and outcome.",
		}, []string{"upstream", "type", "outcome"}),
		lookupLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dns_lookup_duration_seconds",
			Help:      "Latency of DNS lookups per upstream.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_cache_requests_total",
			Help:      "Answer cache lookups by backend and result.",
		}, []string{"backend", "result"}),
		steps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostic_steps_total",
			Help:      "Terminal diagnostic step outcomes.",
		}, []string{"step", "status"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostic_runs_total",
			Help:      "Diagnostic runs by outcome.",
		}, []string{"outcome"}),
		scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagnostic_score",
			Help:      "Readiness scores of completed runs.",
			Buckets:   []float64{0, 17, 34, 50, 67, 84, 100},
		}),
		validations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_validations_total",
			Help:      "Asset validations by compliance and repair.",
		}, []string{"compliant", "repaired"}),
		violations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_violations_total",
			Help:      "Asset profile violations by rule.",
		}, []string{"rule"}),
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_generations_total",
			Help:      "Generation gateway calls by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveLookup(upstream, rtype, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(upstream, rtype, outcome).Inc()
	m.lookupLatency.WithLabelValues(upstream).Observe(d.Seconds())
}

func (m *Metrics) ObserveCache(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(backend, result).Inc()
}

func (m *Metrics) ObserveStep(step, status string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step, status).Inc()
}

func (m *Metrics) ObserveRun(score int, cancelled bool) {
	if m == nil {
		return
	}
	if cancelled {
		m.runs.WithLabelValues("cancelled").Inc()
		return
	}
	m.runs.WithLabelValues("completed").Inc()
	m.scores.Observe(float64(score))
}

func (m *Metrics) ObserveValidation(compliant, repaired bool, rules []string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(strconv.FormatBool(compliant), strconv.FormatBool(repaired)).Inc()
	for _, rule := range rules {
		m.violations.WithLabelValues(rule).Inc()
	}
}

func (m *Metrics) ObserveGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}
