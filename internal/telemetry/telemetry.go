// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

type HealthState string

const (
	Healthy   HealthState = "healthy"
	Degraded  HealthState = "degraded"
	Unhealthy HealthState = "unhealthy"

	degradedThreshold  = 3
	unhealthyThreshold = 5
	cooldownBase       = 5 * time.Second
	cooldownMax        = 5 * time.Minute
	latencyWindowSize  = 100
)

// UpstreamStats is a point-in-time view of one resolver upstream.
type UpstreamStats struct {
	Name            string      `json:"name"`
	State           HealthState `json:"state"`
	TotalRequests   int64       `json:"total_requests"`
	SuccessCount    int64       `json:"success_count"`
	FailureCount    int64       `json:"failure_count"`
	ConsecFailures  int         `json:"consecutive_failures"`
	LastError       string      `json:"last_error,omitempty"`
	LastErrorTime   *time.Time  `json:"last_error_time,omitempty"`
	LastSuccessTime *time.Time  `json:"last_success_time,omitempty"`
	AvgLatencyMs    float64     `json:"avg_latency_ms"`
	P95LatencyMs    float64     `json:"p95_latency_ms"`
	InCooldown      bool        `json:"in_cooldown"`
	CooldownUntil   *time.Time  `json:"cooldown_until,omitempty"`
}

type upstream struct {
	mu             sync.RWMutex
	name           string
	totalRequests  int64
	successCount   int64
	failureCount   int64
	consecFailures int
	lastError      string
	lastErrorTime  time.Time
	lastSuccess    time.Time
	latencies      []float64
	latencyIdx     int
	latencyFull    bool
	cooldownUntil  time.Time
}

// Registry tracks the health of resolver upstreams. After degradedThreshold
// consecutive failures an upstream enters a cooldown that doubles with each
// further failure, capped at cooldownMax.
type Registry struct {
	mu        sync.RWMutex
	upstreams map[string]*upstream
	now       func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		upstreams: make(map[string]*upstream),
		now:       time.Now,
	}
}

func (r *Registry) getOrCreate(name string) *upstream {
	r.mu.RLock()
	u, ok := r.upstreams[name]
	r.mu.RUnlock()
	if ok {
		return u
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok = r.upstreams[name]; ok {
		return u
	}
	u = &upstream{
		name:      name,
		latencies: make([]float64, latencyWindowSize),
	}
	r.upstreams[name] = u
	return u
}

func (r *Registry) RecordSuccess(name string, latency time.Duration) {
	u := r.getOrCreate(name)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.totalRequests++
	u.successCount++
	u.consecFailures = 0
	u.lastSuccess = r.now()
	u.cooldownUntil = time.Time{}

	u.latencies[u.latencyIdx] = float64(latency.Microseconds()) / 1000.0
	u.latencyIdx++
	if u.latencyIdx >= latencyWindowSize {
		u.latencyIdx = 0
		u.latencyFull = true
	}
}

func (r *Registry) RecordFailure(name, errMsg string) {
	u := r.getOrCreate(name)
	u.mu.Lock()
	defer u.mu.Unlock()

	now := r.now()
	u.totalRequests++
	u.failureCount++
	u.consecFailures++
	u.lastError = errMsg
	u.lastErrorTime = now

	if u.consecFailures >= degradedThreshold {
		backoff := time.Duration(math.Min(
			float64(cooldownBase)*math.Pow(2, float64(u.consecFailures-degradedThreshold)),
			float64(cooldownMax),
		))
		u.cooldownUntil = now.Add(backoff)
	}
}

func (r *Registry) InCooldown(name string) bool {
	r.mu.RLock()
	u, ok := r.upstreams[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.cooldownUntil.IsZero() {
		return false
	}
	return r.now().Before(u.cooldownUntil)
}

func (r *Registry) Stats(name string) UpstreamStats {
	u := r.getOrCreate(name)
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.stats(r.now())
}

// AllStats returns every known upstream sorted by name.
func (r *Registry) AllStats() []UpstreamStats {
	r.mu.RLock()
	names := make([]string, 0, len(r.upstreams))
	for name := range r.upstreams {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	stats := make([]UpstreamStats, 0, len(names))
	for _, name := range names {
		stats = append(stats, r.Stats(name))
	}
	return stats
}

// Overall folds every upstream into the worst observed state.
func (r *Registry) Overall() HealthState {
	overall := Healthy
	for _, s := range r.AllStats() {
		if s.State == Unhealthy {
			return Unhealthy
		}
		if s.State == Degraded {
			overall = Degraded
		}
	}
	return overall
}

func (u *upstream) stats(now time.Time) UpstreamStats {
	s := UpstreamStats{
		Name:           u.name,
		TotalRequests:  u.totalRequests,
		SuccessCount:   u.successCount,
		FailureCount:   u.failureCount,
		ConsecFailures: u.consecFailures,
		LastError:      u.lastError,
	}

	if !u.lastErrorTime.IsZero() {
		t := u.lastErrorTime
		s.LastErrorTime = &t
	}
	if !u.lastSuccess.IsZero() {
		t := u.lastSuccess
		s.LastSuccessTime = &t
	}

	switch {
	case u.consecFailures >= unhealthyThreshold:
		s.State = Unhealthy
	case u.consecFailures >= degradedThreshold:
		s.State = Degraded
	default:
		s.State = Healthy
	}

	if !u.cooldownUntil.IsZero() && now.Before(u.cooldownUntil) {
		s.InCooldown = true
		t := u.cooldownUntil
		s.CooldownUntil = &t
	}

	count := u.latencyIdx
	if u.latencyFull {
		count = latencyWindowSize
	}
	if count > 0 {
		sorted := make([]float64, count)
		copy(sorted, u.latencies[:count])
		sort.Float64s(sorted)
		sum := 0.0
		for _, v := range sorted {
			sum += v
		}
		s.AvgLatencyMs = sum / float64(count)
		s.P95LatencyMs = sorted[int(float64(count-1)*0.95)]
	}

	return s
}
