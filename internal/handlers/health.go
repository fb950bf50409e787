// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

// Pinger is satisfied by the database store.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	DB         Pinger
	Upstreams  *telemetry.Registry
	AppVersion string
	StartTime  time.Time
}

func NewHealthHandler(db Pinger, upstreams *telemetry.Registry, appVersion string) *HealthHandler {
	return &HealthHandler{
		DB:         db,
		Upstreams:  upstreams,
		AppVersion: appVersion,
		StartTime:  time.Now(),
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	if h.DB != nil {
		dbStatus = "healthy"
		if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := gin.H{
		"status":  "ok",
		"version": h.AppVersion,
		"uptime":  time.Since(h.StartTime).String(),
		"database": gin.H{
			"status": dbStatus,
		},
		"memory": gin.H{
			"alloc_mb":       memStats.Alloc / 1024 / 1024,
			"sys_mb":         memStats.Sys / 1024 / 1024,
			"num_goroutines": runtime.NumGoroutine(),
		},
	}

	if h.Upstreams != nil {
		stats := h.Upstreams.AllStats()
		if stats == nil {
			stats = []telemetry.UpstreamStats{}
		}
		response["resolvers"] = gin.H{
			"overall":   string(h.Upstreams.Overall()),
			"upstreams": stats,
		}
	}

	c.JSON(http.StatusOK, response)
}
