// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/assets"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/diagnostic"
)

// ReportSummary is one row of a domain's history, without the report body.
type ReportSummary struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	Selector  string    `json:"selector"`
	Score     int       `json:"score"`
	Verdict   string    `json:"verdict"`
	Complete  bool      `json:"complete"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) SaveReport(ctx context.Context, r *diagnostic.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	score := diagnostic.Score(r)
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO diagnostic_reports (id, domain, selector, score, verdict, complete, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			score = EXCLUDED.score,
			verdict = EXCLUDED.verdict,
			complete = EXCLUDED.complete,
			report = EXCLUDED.report
	`, r.ID, r.Target.Domain, r.Target.Selector, score, diagnostic.VerdictFor(score), r.Complete(), body)
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*diagnostic.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var body []byte
	err := s.Pool.QueryRow(ctx, `SELECT report FROM diagnostic_reports WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}
	var r diagnostic.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &r, nil
}

// ListReports returns the newest reports for a domain first.
func (s *Store) ListReports(ctx context.Context, domain string, limit int) ([]ReportSummary, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id::text, domain, selector, score, verdict, complete, created_at
		FROM diagnostic_reports
		WHERE domain = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", domain, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[ReportSummary])
	if err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", domain, err)
	}
	return out, nil
}

// SaveValidation records the outcome of an asset validation. source names
// where the candidate came from ("upload" or "generated").
func (s *Store) SaveValidation(ctx context.Context, source string, c *assets.Candidate) (string, error) {
	if c.Result == nil {
		return "", errors.New("candidate has not been validated")
	}
	violations, err := json.Marshal(c.Result.Violations)
	if err != nil {
		return "", fmt.Errorf("encode violations: %w", err)
	}
	sum := sha256.Sum256([]byte(c.SourceText))
	id := uuid.NewString()
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO asset_validations (id, source, compliant, repaired, violations, svg_sha256)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, source, c.Result.Compliant, c.Result.Repaired, violations, hex.EncodeToString(sum[:]))
	if err != nil {
		return "", fmt.Errorf("save validation: %w", err)
	}
	return id, nil
}
