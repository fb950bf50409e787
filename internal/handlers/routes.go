// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/middleware"
)

// Routes bundles the handlers mounted by Register. Metrics may be nil.
type Routes struct {
	Diagnose *DiagnoseHandler
	Stream   *StreamHandler
	Assets   *AssetsHandler
	Health   *HealthHandler
	Limiter  middleware.RateLimiter
	Metrics  http.Handler
}

func Register(router *gin.Engine, r Routes) {
	limit := func(c *gin.Context) { c.Next() }
	if r.Limiter != nil {
		limit = middleware.DiagnoseRateLimit(r.Limiter)
	}

	api := router.Group("/api")
	api.POST("/diagnose", limit, r.Diagnose.Diagnose)
	api.POST("/diagnose/batch", limit, r.Diagnose.Batch)
	api.GET("/diagnose/stream", limit, r.Stream.Stream)
	api.GET("/reports", r.Diagnose.ListReports)
	api.GET("/reports/:id", r.Diagnose.GetReport)
	api.POST("/assets/validate", r.Assets.Validate)
	api.POST("/assets/generate", r.Assets.Generate)
	api.GET("/health", r.Health.HealthCheck)

	if r.Metrics != nil {
		router.GET("/metrics", gin.WrapH(r.Metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Not found")
	})
}
