// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/assets"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/generator"
)

const (
	maxSVGBytes = 1 << 20
	// JSON escaping can double SVG text; base64 adds a third to images.
	maxValidateBody = 2 * maxSVGBytes
	maxGenerateBody = 8 << 20
)

// ValidationStore records validation outcomes. Optional.
type ValidationStore interface {
	SaveValidation(ctx context.Context, source string, c *assets.Candidate) (string, error)
}

type AssetsHandler struct {
	Validator *assets.Validator
	Generator *generator.Service
	Fetcher   *assets.Fetcher
	Store     ValidationStore
}

func NewAssetsHandler(v *assets.Validator, g *generator.Service, s ValidationStore) *AssetsHandler {
	if v == nil {
		v = assets.NewValidator()
	}
	return &AssetsHandler{Validator: v, Generator: g, Fetcher: assets.NewFetcher(), Store: s}
}

// validateRequest carries either the SVG text or the https URL of a
// published logo (a BIMI l= value) to fetch and validate.
type validateRequest struct {
	SVG string `json:"svg"`
	URL string `json:"url"`
}

type generateRequest struct {
	BrandName   string `json:"brand_name"`
	SVG         string `json:"svg"`
	ImageBase64 string `json:"image_base64"`
	ImageMIME   string `json:"image_mime"`
}

type assetResponse struct {
	Candidate *assets.Candidate       `json:"candidate"`
	Result    assets.ValidationResult `json:"result"`
}

func (h *AssetsHandler) Validate(c *gin.Context) {
	var req validateRequest
	if !bindLimitedJSON(c, &req, maxValidateBody, "Request body must be JSON with an svg or url field") {
		return
	}

	source := "upload"
	if strings.TrimSpace(req.SVG) == "" && req.URL != "" {
		svg, ok := h.fetch(c, req.URL)
		if !ok {
			return
		}
		req.SVG, source = svg, "url"
	}
	if strings.TrimSpace(req.SVG) == "" {
		respondBadRequest(c, "svg or url is required")
		return
	}
	if len(req.SVG) > maxSVGBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "svg exceeds 1 MiB")
		return
	}

	candidate := &assets.Candidate{SourceText: req.SVG}
	result := h.Validator.Validate(candidate)
	h.record(c.Request.Context(), source, candidate)
	c.JSON(http.StatusOK, assetResponse{Candidate: candidate, Result: result})
}

func (h *AssetsHandler) fetch(c *gin.Context, logoURL string) (string, bool) {
	svg, err := h.Fetcher.Fetch(c.Request.Context(), logoURL)
	if err == nil {
		return svg, true
	}
	var fetchErr *assets.LogoFetchError
	switch {
	case errors.Is(err, assets.ErrLogoURL), errors.Is(err, assets.ErrDisallowedAddress):
		respondBadRequest(c, err.Error())
	case errors.Is(err, assets.ErrLogoNotSVG), errors.Is(err, assets.ErrLogoTooLarge), errors.As(err, &fetchErr):
		abortWithError(c, http.StatusBadGateway, err.Error())
	default:
		slog.Warn("Logo fetch failed", "url", logoURL, "error", err)
		abortWithError(c, http.StatusBadGateway, "Failed to fetch logo")
	}
	return "", false
}

func (h *AssetsHandler) Generate(c *gin.Context) {
	if h.Generator == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Asset generation is not configured")
		return
	}
	var req generateRequest
	if !bindLimitedJSON(c, &req, maxGenerateBody, "Request body must be JSON") {
		return
	}

	in := generator.Input{BrandName: strings.TrimSpace(req.BrandName), SVGText: req.SVG, ImageMIME: req.ImageMIME}
	if req.ImageBase64 != "" {
		img, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			respondBadRequest(c, "image_base64 is not valid base64")
			return
		}
		in.Image = img
		if in.ImageMIME == "" {
			in.ImageMIME = http.DetectContentType(img)
		}
	}

	candidate, err := h.Generator.Generate(c.Request.Context(), in)
	switch {
	case errors.Is(err, generator.ErrImageTooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, err.Error())
		return
	case generator.IsInputError(err):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, generator.ErrNoSVG):
		abortWithError(c, http.StatusBadGateway, "The generator did not return an SVG document")
		return
	case err != nil:
		abortWithError(c, http.StatusBadGateway, "Asset generation failed")
		return
	}

	h.record(c.Request.Context(), "generated", candidate)
	c.JSON(http.StatusOK, assetResponse{Candidate: candidate, Result: *candidate.Result})
}

func (h *AssetsHandler) record(ctx context.Context, source string, candidate *assets.Candidate) {
	if h.Store == nil {
		return
	}
	if _, err := h.Store.SaveValidation(context.WithoutCancel(ctx), source, candidate); err != nil {
		slog.Error("Failed to record validation", "source", source, "error", err)
	}
}
