// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const AppVersion = "1.4.0"

type Config struct {
	Port       string
	LogLevel   slog.Level
	AppVersion string

	// DatabaseURL and RedisURL are optional. Without a database report
	// history is disabled; without Redis answers are cached in-process.
	DatabaseURL string
	RedisURL    string

	DoHEndpoint   string
	UDPResolvers  []string
	LookupTimeout time.Duration
	LookupRetries int
	CacheSize     int
	CacheTTL      time.Duration

	BatchMaxDomains  int
	BatchConcurrency int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	RateLimitMaxRequests int
}

// ValidationError names the environment variable that failed to parse or
// fell outside its allowed range.
type ValidationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %s", e.Key, e.Value, e.Reason)
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "5000"),
		AppVersion:    AppVersion,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		DoHEndpoint:   getEnv("DOH_ENDPOINT", "https://dns.google/resolve"),
		UDPResolvers:  splitList(getEnv("UDP_RESOLVERS", "1.1.1.1,8.8.8.8")),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LookupTimeout, err = durationIn("LOOKUP_TIMEOUT", 8*time.Second, time.Second, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.LookupRetries, err = intIn("LOOKUP_RETRIES", 0, 0, 1<<30); err != nil {
		return nil, err
	}
	if cfg.LookupRetries > 2 {
		cfg.LookupRetries = 2
	}
	if cfg.CacheSize, err = intIn("CACHE_SIZE", 1024, 1, 1<<20); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationIn("CACHE_TTL", 5*time.Minute, time.Second, 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BatchMaxDomains, err = intIn("BATCH_MAX_DOMAINS", 25, 1, 500); err != nil {
		return nil, err
	}
	if cfg.BatchConcurrency, err = intIn("BATCH_CONCURRENCY", 4, 1, 64); err != nil {
		return nil, err
	}
	if cfg.RateLimitMaxRequests, err = intIn("RATE_LIMIT_MAX_REQUESTS", 8, 1, 10000); err != nil {
		return nil, err
	}

	if strings.EqualFold(cfg.DoHEndpoint, "off") {
		cfg.DoHEndpoint = ""
	}
	if cfg.DoHEndpoint != "" && !strings.HasPrefix(cfg.DoHEndpoint, "https://") && !strings.HasPrefix(cfg.DoHEndpoint, "http://") {
		return nil, &ValidationError{Key: "DOH_ENDPOINT", Value: cfg.DoHEndpoint, Reason: "must be an http(s) URL"}
	}
	if cfg.DoHEndpoint == "" && len(cfg.UDPResolvers) == 0 {
		return nil, errors.New("at least one of DOH_ENDPOINT or UDP_RESOLVERS must be set")
	}
	return cfg, nil
}

// GenerationEnabled reports whether an asset generation backend is configured.
func (c *Config) GenerationEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, &ValidationError{Key: "LOG_LEVEL", Value: s, Reason: "want debug, info, warn or error"}
	}
	return level, nil
}

func intIn(key string, fallback, lo, hi int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Key: key, Value: raw, Reason: "not an integer"}
	}
	if n < lo || n > hi {
		return 0, &ValidationError{Key: key, Value: raw, Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return n, nil
}

func durationIn(key string, fallback, lo, hi time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		// Bare numbers are seconds.
		n, nerr := strconv.Atoi(raw)
		if nerr != nil {
			return 0, &ValidationError{Key: key, Value: raw, Reason: "not a duration"}
		}
		d = time.Duration(n) * time.Second
	}
	if d < lo || d > hi {
		return 0, &ValidationError{Key: key, Value: raw, Reason: fmt.Sprintf("must be between %s and %s", lo, hi)}
	}
	return d, nil
}
