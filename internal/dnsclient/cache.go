// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

const (
	DefaultCacheTTL  = 5 * time.Minute
	DefaultCacheSize = 1024
	negativeCacheTTL = 60 * time.Second
	minCacheableTTL  = time.Second
)

// Cache stores answer sets keyed by query. Implementations treat backend
// failures as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]Answer, bool)
	Set(ctx context.Context, key string, answers []Answer, ttl time.Duration)
	Backend() string
}

// CachingResolver serves repeated queries from a Cache. Only successful
// lookups are cached; empty answer sets are kept for a shorter negative TTL.
type CachingResolver struct {
	next    Resolver
	cache   Cache
	maxTTL  time.Duration
	metrics *telemetry.Metrics
}

func NewCachingResolver(next Resolver, cache Cache, maxTTL time.Duration, metrics *telemetry.Metrics) *CachingResolver {
	if maxTTL <= 0 {
		maxTTL = DefaultCacheTTL
	}
	return &CachingResolver{next: next, cache: cache, maxTTL: maxTTL, metrics: metrics}
}

func cacheKey(name string, rtype RecordType) string {
	return string(rtype) + ":" + strings.ToLower(strings.TrimSuffix(name, "."))
}

func (c *CachingResolver) Resolve(ctx context.Context, name string, rtype RecordType) ([]Answer, error) {
	key := cacheKey(name, rtype)
	if cached, ok := c.cache.Get(ctx, key); ok {
		c.metrics.ObserveCache(c.cache.Backend(), true)
		return cloneAnswers(cached), nil
	}
	c.metrics.ObserveCache(c.cache.Backend(), false)

	answers, err := c.next.Resolve(ctx, name, rtype)
	if err != nil {
		return nil, err
	}
	if ttl := c.ttlFor(answers); ttl >= minCacheableTTL {
		c.cache.Set(ctx, key, cloneAnswers(answers), ttl)
	}
	return answers, nil
}

func (c *CachingResolver) ttlFor(answers []Answer) time.Duration {
	if len(answers) == 0 {
		return min(negativeCacheTTL, c.maxTTL)
	}
	ttl := c.maxTTL
	for _, a := range answers {
		if d := time.Duration(a.TTL) * time.Second; d < ttl {
			ttl = d
		}
	}
	return ttl
}

func cloneAnswers(in []Answer) []Answer {
	out := make([]Answer, len(in))
	copy(out, in)
	return out
}

type lruEntry struct {
	answers []Answer
	expires time.Time
}

// LRUCache is a process-local cache. Entries carry their own expiry; the
// LRU's TTL only bounds how long an entry can outlive its last use.
type LRUCache struct {
	lru *expirable.LRU[string, lruEntry]
	now func() time.Time
}

func NewLRUCache(size int, maxTTL time.Duration) *LRUCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if maxTTL <= 0 {
		maxTTL = DefaultCacheTTL
	}
	return &LRUCache{
		lru: expirable.NewLRU[string, lruEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (c *LRUCache) Backend() string { return "lru" }

func (c *LRUCache) Get(_ context.Context, key string) ([]Answer, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		c.lru.Remove(key)
		return nil, false
	}
	return entry.answers, true
}

func (c *LRUCache) Set(_ context.Context, key string, answers []Answer, ttl time.Duration) {
	c.lru.Add(key, lruEntry{answers: answers, expires: c.now().Add(ttl)})
}

func (c *LRUCache) Len() int {
	return c.lru.Len()
}
