// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"errors"
	"log/slog"
	"time"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

// StackConfig describes the resolver chain shared by the server and the CLI:
// DoH first, then each UDP server, behind an optional answer cache.
type StackConfig struct {
	DoHEndpoint     string
	UDPServers      []string
	UpstreamTimeout time.Duration
	Cache           Cache
	MaxCacheTTL     time.Duration
	Health          *telemetry.Registry
	Metrics         *telemetry.Metrics
}

// NewStack builds the resolver described by cfg. The MultiResolver is
// returned as well so callers can report upstream health.
func NewStack(cfg StackConfig) (Resolver, *MultiResolver, error) {
	var upstreams []Upstream
	if cfg.DoHEndpoint != "" {
		upstreams = append(upstreams, NewDoHResolver(cfg.DoHEndpoint))
	}
	for _, s := range cfg.UDPServers {
		upstreams = append(upstreams, NewUDPResolver(s, cfg.UpstreamTimeout))
	}
	if len(upstreams) == 0 {
		return nil, nil, errors.New("no upstream resolvers configured")
	}

	multi := NewMultiResolver(cfg.Health, cfg.Metrics, upstreams...)
	names := make([]string, 0, len(upstreams))
	for _, u := range upstreams {
		names = append(names, u.Name())
	}

	if cfg.Cache == nil {
		slog.Info("Resolver stack ready", "upstreams", names, "cache", "none")
		return multi, multi, nil
	}
	slog.Info("Resolver stack ready", "upstreams", names, "cache", cfg.Cache.Backend())
	return NewCachingResolver(multi, cfg.Cache, cfg.MaxCacheTTL, cfg.Metrics), multi, nil
}
