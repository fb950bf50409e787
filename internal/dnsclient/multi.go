// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

// Upstream is a resolver with a stable name for health tracking.
type Upstream interface {
	Resolver
	Name() string
}

// MultiResolver tries its upstreams in order and returns the first answer.
// Upstreams in health cooldown are tried only after every healthy one failed.
// A definitive DNS status (NXDOMAIN, REFUSED) from any upstream is returned
// as-is; asking the next upstream would not change the answer.
type MultiResolver struct {
	upstreams []Upstream
	health    *telemetry.Registry
	metrics   *telemetry.Metrics
}

func NewMultiResolver(health *telemetry.Registry, metrics *telemetry.Metrics, upstreams ...Upstream) *MultiResolver {
	if health == nil {
		health = telemetry.NewRegistry()
	}
	return &MultiResolver{upstreams: upstreams, health: health, metrics: metrics}
}

func (m *MultiResolver) Health() *telemetry.Registry {
	return m.health
}

func (m *MultiResolver) Resolve(ctx context.Context, name string, rtype RecordType) ([]Answer, error) {
	if len(m.upstreams) == 0 {
		return nil, newTransportError(name, rtype, "", errors.New("no upstream resolvers configured"))
	}

	var cooling []Upstream
	var lastErr error
	for _, u := range m.upstreams {
		if m.health.InCooldown(u.Name()) {
			cooling = append(cooling, u)
			continue
		}
		answers, done, err := m.try(ctx, u, name, rtype)
		if done {
			return answers, err
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}

	for _, u := range cooling {
		answers, done, err := m.try(ctx, u, name, rtype)
		if done {
			return answers, err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// try reports done=true when the upstream produced a result the caller
// should see, including definitive DNS error statuses.
func (m *MultiResolver) try(ctx context.Context, u Upstream, name string, rtype RecordType) ([]Answer, bool, error) {
	start := time.Now()
	answers, err := u.Resolve(ctx, name, rtype)
	elapsed := time.Since(start)

	if err == nil {
		m.health.RecordSuccess(u.Name(), elapsed)
		outcome := "answer"
		if len(answers) == 0 {
			outcome = "empty"
		}
		m.metrics.ObserveLookup(u.Name(), string(rtype), outcome, elapsed)
		return answers, true, nil
	}

	if re, ok := IsResolutionError(err); ok && re.Status > 0 && !re.Temporary() {
		m.health.RecordSuccess(u.Name(), elapsed)
		m.metrics.ObserveLookup(u.Name(), string(rtype), "status_"+StatusText(re.Status), elapsed)
		return nil, true, err
	}

	m.health.RecordFailure(u.Name(), err.Error())
	m.metrics.ObserveLookup(u.Name(), string(rtype), "error", elapsed)
	slog.Warn("Upstream lookup failed", "upstream", u.Name(), "domain", name, "type", rtype, "error", err)
	return nil, false, err
}
