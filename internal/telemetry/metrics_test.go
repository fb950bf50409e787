// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLookup("a", "TXT", "answer", time.Millisecond)
	m.ObserveCache("lru", true)
	m.ObserveStep("spf", "PASS")
	m.ObserveRun(100, false)
	m.ObserveValidation(true, false, nil)
	m.ObserveGeneration("ok")
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveLookup("udp:1.1.1.1:53", "MX", "answer", 20*time.Millisecond)
	m.ObserveLookup("udp:1.1.1.1:53", "MX", "answer", 20*time.Millisecond)
	if got := testutil.ToFloat64(m.lookups.WithLabelValues("udp:1.1.1.1:53", "MX", "answer")); got != 2 {
		t.Errorf("lookups = %v, want 2", got)
	}

	m.ObserveCache("redis", false)
	if got := testutil.ToFloat64(m.cache.WithLabelValues("redis", "miss")); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}

	m.ObserveRun(0, true)
	m.ObserveRun(67, false)
	if got := testutil.ToFloat64(m.runs.WithLabelValues("cancelled")); got != 1 {
		t.Errorf("cancelled runs = %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed runs = %v", got)
	}

	m.ObserveValidation(false, true, []string{"script", "gradient", "script"})
	if got := testutil.ToFloat64(m.violations.WithLabelValues("script")); got != 2 {
		t.Errorf("script violations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.validations.WithLabelValues("false", "true")); got != 1 {
		t.Errorf("validations = %v, want 1", got)
	}
}

func TestMetricsRegistryCollects(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveStep("bimi", "FAIL")
	m.ObserveGeneration("no_svg")

	if n, err := testutil.GatherAndCount(reg, "bimiready_diagnostic_steps_total", "bimiready_asset_generations_total"); err != nil || n != 2 {
		t.Errorf("GatherAndCount = %d, %v", n, err)
	}
}
