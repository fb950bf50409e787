// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.

// Package handlers exposes the diagnostic chain, asset validation and
// generation over a JSON HTTP API.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/diagnostic"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/store"
)

const (
	mapKeyError   = "error"
	mapKeyTraceID = "trace_id"
)

// ReportStore is the report history backend. A nil ReportStore disables
// history.
type ReportStore interface {
	SaveReport(ctx context.Context, r *diagnostic.Report) error
	GetReport(ctx context.Context, id string) (*diagnostic.Report, error)
	ListReports(ctx context.Context, domain string, limit int) ([]store.ReportSummary, error)
}

// diagnosis is the response body for a single report.
type diagnosis struct {
	ID          string             `json:"id"`
	Report      *diagnostic.Report `json:"report"`
	Score       int                `json:"score"`
	Verdict     string             `json:"verdict"`
	Complete    bool               `json:"complete"`
	Remediation []diagnostic.Fix   `json:"remediation"`
}

func newDiagnosis(r *diagnostic.Report) diagnosis {
	score := diagnostic.Score(r)
	fixes := diagnostic.Remediate(r)
	if fixes == nil {
		fixes = []diagnostic.Fix{}
	}
	return diagnosis{
		ID:          r.ID,
		Report:      r,
		Score:       score,
		Verdict:     diagnostic.VerdictFor(score),
		Complete:    r.Complete(),
		Remediation: fixes,
	}
}

func abortWithError(c *gin.Context, status int, msg string) {
	traceID, _ := c.Get("trace_id")
	c.AbortWithStatusJSON(status, gin.H{mapKeyError: msg, mapKeyTraceID: traceID})
}

func respondBadRequest(c *gin.Context, msg string) {
	abortWithError(c, http.StatusBadRequest, msg)
}

// bindLimitedJSON decodes a JSON body of at most limit bytes into obj. On
// failure it has already written the 400 or 413 response.
func bindLimitedJSON(c *gin.Context, obj any, limit int64, msg string) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	respondBadRequest(c, msg)
	return false
}
