// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/diagnostic"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/dnsclient"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/store"
)

const (
	DefaultBatchMaxDomains = 25
	saveTimeout            = 5 * time.Second
)

type DiagnoseHandler struct {
	Chain            *diagnostic.Chain
	Store            ReportStore
	BatchMaxDomains  int
	BatchConcurrency int
}

func NewDiagnoseHandler(chain *diagnostic.Chain, reports ReportStore, batchMax, batchConcurrency int) *DiagnoseHandler {
	if batchMax <= 0 {
		batchMax = DefaultBatchMaxDomains
	}
	return &DiagnoseHandler{
		Chain:            chain,
		Store:            reports,
		BatchMaxDomains:  batchMax,
		BatchConcurrency: batchConcurrency,
	}
}

type diagnoseRequest struct {
	Domain   string `json:"domain"`
	Selector string `json:"selector"`
}

type batchRequest struct {
	Domains  []string `json:"domains"`
	Selector string   `json:"selector"`
}

type batchItem struct {
	Domain string `json:"domain"`
	*diagnosis
	Error string `json:"error,omitempty"`
}

func targetError(err error) string {
	switch {
	case errors.Is(err, diagnostic.ErrInvalidSelector):
		return "Invalid BIMI selector"
	case errors.Is(err, dnsclient.ErrInvalidDomain):
		return "Invalid domain name"
	default:
		return err.Error()
	}
}

func (h *DiagnoseHandler) Diagnose(c *gin.Context) {
	var req diagnoseRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBadRequest(c, "Request body must be JSON with a domain field")
		return
	}
	target, err := diagnostic.NewTarget(req.Domain, req.Selector)
	if err != nil {
		respondBadRequest(c, targetError(err))
		return
	}

	report, err := h.Chain.Run(c.Request.Context(), target)
	if err != nil {
		// The client went away between steps; nothing useful to send.
		abortWithError(c, http.StatusRequestTimeout, "Diagnostic cancelled")
		return
	}
	h.save(c.Request.Context(), report)
	c.JSON(http.StatusOK, newDiagnosis(report))
}

func (h *DiagnoseHandler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBadRequest(c, "Request body must be JSON with a domains list")
		return
	}
	if len(req.Domains) == 0 {
		respondBadRequest(c, "At least one domain is required")
		return
	}
	if len(req.Domains) > h.BatchMaxDomains {
		respondBadRequest(c, fmt.Sprintf("At most %d domains per batch", h.BatchMaxDomains))
		return
	}

	items := make([]batchItem, len(req.Domains))
	var targets []diagnostic.Target
	var slots []int
	for i, d := range req.Domains {
		items[i].Domain = d
		t, err := diagnostic.NewTarget(d, req.Selector)
		if err != nil {
			items[i].Error = targetError(err)
			continue
		}
		targets = append(targets, t)
		slots = append(slots, i)
	}

	results, err := h.Chain.RunBatch(c.Request.Context(), targets, h.BatchConcurrency)
	if err != nil {
		abortWithError(c, http.StatusRequestTimeout, "Batch cancelled")
		return
	}
	for j, res := range results {
		item := &items[slots[j]]
		if res.Err != nil {
			item.Error = res.Err.Error()
			continue
		}
		h.save(c.Request.Context(), res.Report)
		d := newDiagnosis(res.Report)
		item.diagnosis = &d
	}

	slog.Info("Batch diagnostic completed", "domains", len(req.Domains), "valid", len(targets))
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (h *DiagnoseHandler) save(ctx context.Context, r *diagnostic.Report) {
	if h.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := h.Store.SaveReport(ctx, r); err != nil {
		slog.Error("Failed to save report", "id", r.ID, "domain", r.Target.Domain, "error", err)
	}
}

// GetReport serves a stored report with its score and remediation.
func (h *DiagnoseHandler) GetReport(c *gin.Context) {
	if h.Store == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Report history is not enabled")
		return
	}
	report, err := h.Store.GetReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		abortWithError(c, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load report", "id", c.Param("id"), "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to load report")
		return
	}
	c.JSON(http.StatusOK, newDiagnosis(report))
}

// ListReports serves the newest stored reports for ?domain= (and ?limit=).
func (h *DiagnoseHandler) ListReports(c *gin.Context) {
	if h.Store == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Report history is not enabled")
		return
	}
	domain, err := dnsclient.NormalizeDomain(c.Query("domain"))
	if err != nil {
		respondBadRequest(c, "Invalid domain name")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
			respondBadRequest(c, "Invalid limit")
			return
		}
	}
	list, err := h.Store.ListReports(c.Request.Context(), domain, limit)
	if err != nil {
		slog.Error("Failed to list reports", "domain", domain, "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	if list == nil {
		list = []store.ReportSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"domain": domain, "reports": list})
}
