// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.

// Package diagnostic runs the ordered MX, SPF, DMARC, BIMI, logo and
// certificate checks for one domain and grades the outcome.
package diagnostic

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/dnsclient"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/records"
)

type StepID string

const (
	StepMX    StepID = "MX"
	StepSPF   StepID = "SPF"
	StepDMARC StepID = "DMARC"
	StepBIMI  StepID = "BIMI"
	StepSVG   StepID = "SVG"
	StepVMC   StepID = "VMC"
)

// StepOrder is the fixed execution order. Report.Steps is indexed the same way.
var StepOrder = [...]StepID{StepMX, StepSPF, StepDMARC, StepBIMI, StepSVG, StepVMC}

const TotalSteps = len(StepOrder)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusWarn    Status = "WARN"
)

func (s Status) Terminal() bool {
	return s == StatusPass || s == StatusFail || s == StatusWarn
}

// StepResult is the state of one step. Skipped marks steps forced terminal
// because a prerequisite failed; no lookup was made for them.
type StepResult struct {
	ID      StepID `json:"id"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

const DefaultSelector = "default"

var ErrInvalidSelector = errors.New("invalid BIMI selector")

// Target is the normalized domain and BIMI selector a run checks.
type Target struct {
	Domain   string `json:"domain"`
	Selector string `json:"selector"`
}

func NewTarget(domain, selector string) (Target, error) {
	d, err := dnsclient.NormalizeDomain(domain)
	if err != nil {
		return Target{}, err
	}
	if selector == "" {
		selector = DefaultSelector
	}
	if !dnsclient.ValidateSelector(selector) {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}
	return Target{Domain: d, Selector: selector}, nil
}

func (t Target) DMARCName() string {
	return "_dmarc." + t.Domain
}

func (t Target) BIMIName() string {
	return t.Selector + "._bimi." + t.Domain
}

// Report is created fresh for each run and filled in by the chain.
type Report struct {
	ID          string                 `json:"id"`
	Target      Target                 `json:"target"`
	Steps       [TotalSteps]StepResult `json:"steps"`
	SPF         *records.SPF           `json:"spf,omitempty"`
	DMARC       *records.DMARC         `json:"dmarc,omitempty"`
	BIMI        *records.BIMI          `json:"bimi,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

func NewReport(target Target) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Target:    target,
		StartedAt: time.Now().UTC(),
	}
	for i, id := range StepOrder {
		r.Steps[i] = StepResult{ID: id, Status: StatusPending}
	}
	return r
}

// Step returns the result slot for id.
func (r *Report) Step(id StepID) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].ID == id {
			return &r.Steps[i]
		}
	}
	return nil
}

// Complete reports whether every step reached a terminal status.
func (r *Report) Complete() bool {
	for _, s := range r.Steps {
		if !s.Status.Terminal() {
			return false
		}
	}
	return true
}
