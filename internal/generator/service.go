// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/assets"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

const DefaultGenerateTimeout = 90 * time.Second

// Service runs gateway, extraction and validation. Non-compliant candidates
// are returned with their violations; they are never dropped.
type Service struct {
	gateway   Gateway
	validator *assets.Validator
	metrics   *telemetry.Metrics
	timeout   time.Duration
}

func NewService(gateway Gateway, validator *assets.Validator, metrics *telemetry.Metrics) *Service {
	if validator == nil {
		validator = assets.NewValidator(assets.WithValidatorMetrics(metrics))
	}
	return &Service{gateway: gateway, validator: validator, metrics: metrics, timeout: DefaultGenerateTimeout}
}

func (s *Service) Generate(ctx context.Context, in Input) (*assets.Candidate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	output, err := s.gateway.Generate(ctx, in)
	if err != nil {
		s.metrics.ObserveGeneration("error")
		slog.Error("Asset generation failed", "brand", in.BrandName, "error", err)
		return nil, err
	}

	svg, err := ExtractSVG(output)
	if err != nil {
		s.metrics.ObserveGeneration("no_svg")
		slog.Warn("Generator returned no SVG", "brand", in.BrandName, "output_bytes", len(output))
		return nil, err
	}

	candidate := &assets.Candidate{SourceText: svg}
	result := s.validator.Validate(candidate)

	outcome := "compliant"
	if !result.Compliant {
		outcome = "non_compliant"
	}
	s.metrics.ObserveGeneration(outcome)
	slog.Info("Asset generated",
		"brand", in.BrandName,
		"compliant", result.Compliant,
		"repaired", result.Repaired,
		"violations", len(result.Violations),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return candidate, nil
}

// IsInputError reports whether err was caused by the caller's input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrImageTooLarge)
}
