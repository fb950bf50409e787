// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	RateLimitWindow      = 60 * time.Second
	RateLimitMaxRequests = 8
	AntiRepeatWindow     = 15 * time.Second
)

const (
	ReasonOK         = "ok"
	ReasonRateLimit  = "rate_limit"
	ReasonAntiRepeat = "anti_repeat"
)

type RateLimitResult struct {
	Allowed     bool
	Reason      string
	WaitSeconds int
}

type RateLimiter interface {
	CheckAndRecord(ip, domain string) RateLimitResult
}

type requestEntry struct {
	at     time.Time
	domain string
}

// InMemoryRateLimiter allows maxRequests diagnose requests per client IP in
// a sliding window and rejects the same domain again within AntiRepeatWindow.
type InMemoryRateLimiter struct {
	mu          sync.Mutex
	requests    map[string][]requestEntry
	maxRequests int
	now         func() time.Time
	done        chan struct{}
	closeOnce   sync.Once
}

func NewInMemoryRateLimiter(maxRequests int) *InMemoryRateLimiter {
	if maxRequests <= 0 {
		maxRequests = RateLimitMaxRequests
	}
	limiter := &InMemoryRateLimiter{
		requests:    make(map[string][]requestEntry),
		maxRequests: maxRequests,
		now:         time.Now,
		done:        make(chan struct{}),
	}

	go limiter.cleanupLoop()

	return limiter
}

func (l *InMemoryRateLimiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *InMemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *InMemoryRateLimiter) prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, entries := range l.requests {
		l.requests[ip] = pruneOld(entries, now)
		if len(l.requests[ip]) == 0 {
			delete(l.requests, ip)
		}
	}
}

func pruneOld(entries []requestEntry, now time.Time) []requestEntry {
	cutoff := now.Add(-RateLimitWindow)
	result := entries[:0]
	for _, e := range entries {
		if !e.at.Before(cutoff) {
			result = append(result, e)
		}
	}
	return result
}

func waitUntil(t, now time.Time) int {
	wait := int(t.Sub(now)/time.Second) + 1
	if wait < 1 {
		wait = 1
	}
	return wait
}

func (l *InMemoryRateLimiter) CheckAndRecord(ip, domain string) RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	domain = strings.ToLower(domain)

	l.requests[ip] = pruneOld(l.requests[ip], now)
	entries := l.requests[ip]

	if len(entries) >= l.maxRequests {
		return RateLimitResult{
			Reason:      ReasonRateLimit,
			WaitSeconds: waitUntil(entries[0].at.Add(RateLimitWindow), now),
		}
	}

	antiRepeatCutoff := now.Add(-AntiRepeatWindow)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].at.Before(antiRepeatCutoff) {
			break
		}
		if entries[i].domain == domain {
			return RateLimitResult{
				Reason:      ReasonAntiRepeat,
				WaitSeconds: waitUntil(entries[i].at.Add(AntiRepeatWindow), now),
			}
		}
	}

	l.requests[ip] = append(entries, requestEntry{at: now, domain: domain})

	return RateLimitResult{Allowed: true, Reason: ReasonOK}
}

type domainFields struct {
	Domain  string   `json:"domain"`
	Domains []string `json:"domains"`
}

// requestDomain finds the domain a diagnose request is about: the "domain"
// query parameter, or the JSON body's domain or domains fields. The body is
// cached on the context so handlers can bind it again with ShouldBindBodyWith.
func requestDomain(c *gin.Context) string {
	if d := strings.TrimSpace(c.Query("domain")); d != "" {
		return d
	}
	if c.Request.Method != http.MethodPost {
		return ""
	}
	var body domainFields
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		return ""
	}
	if d := strings.TrimSpace(body.Domain); d != "" {
		return d
	}
	return strings.Join(body.Domains, ",")
}

func DiagnoseRateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain := requestDomain(c)
		if domain == "" {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		result := limiter.CheckAndRecord(clientIP, domain)
		if result.Allowed {
			c.Next()
			return
		}

		traceID, _ := c.Get("trace_id")
		slog.Info("Rate limit triggered",
			"trace_id", traceID,
			"ip", clientIP,
			"domain", domain,
			"reason", result.Reason,
			"wait_seconds", result.WaitSeconds,
		)

		var msg string
		switch result.Reason {
		case ReasonRateLimit:
			msg = fmt.Sprintf("Rate limit reached. Please wait %d seconds before trying again.", result.WaitSeconds)
		case ReasonAntiRepeat:
			msg = fmt.Sprintf("This domain was recently checked. Please wait %d seconds before checking it again.", result.WaitSeconds)
		}

		c.Header("Retry-After", fmt.Sprintf("%d", result.WaitSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":        msg,
			"reason":       result.Reason,
			"wait_seconds": result.WaitSeconds,
		})
	}
}
