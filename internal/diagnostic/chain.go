// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package diagnostic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/dnsclient"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/records"
	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

const (
	DefaultLookupTimeout = 8 * time.Second
	DefaultRetryBase     = 200 * time.Millisecond
	MaxRetries           = 2

	detailLookupFailed = "DNS lookup failed"
	detailWaitingBIMI  = "waiting for BIMI record"
	vmcAdvice          = "no VMC (optional for some providers, required for Gmail's verified indicator)"
)

// Observer receives a copy of every step transition, RUNNING and terminal.
// It is called synchronously from the run's goroutine.
type Observer func(StepResult)

type Chain struct {
	resolver  dnsclient.Resolver
	timeout   time.Duration
	retries   int
	retryBase time.Duration
	metrics   *telemetry.Metrics
}

type Option func(*Chain)

func WithLookupTimeout(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how often a temporary lookup failure is retried, 0 to 2.
func WithRetries(n int) Option {
	return func(c *Chain) { c.retries = min(max(n, 0), MaxRetries) }
}

func WithRetryBase(d time.Duration) Option {
	return func(c *Chain) {
		if d > 0 {
			c.retryBase = d
		}
	}
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Chain) { c.metrics = m }
}

func NewChain(resolver dnsclient.Resolver, opts ...Option) *Chain {
	c := &Chain{
		resolver:  resolver,
		timeout:   DefaultLookupTimeout,
		retryBase: DefaultRetryBase,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run executes the six steps in order. Cancellation of ctx is honoured
// between steps only: an in-flight lookup finishes (bounded by the lookup
// timeout), then Run returns the report with every unreached step PENDING
// together with ctx.Err().
func (c *Chain) Run(ctx context.Context, target Target) (*Report, error) {
	return c.RunObserved(ctx, target, nil)
}

func (c *Chain) RunObserved(ctx context.Context, target Target, obs Observer) (*Report, error) {
	report := NewReport(target)
	r := &run{chain: c, report: report, observer: obs}
	start := time.Now()

	err := r.execute(ctx)

	now := time.Now().UTC()
	report.CompletedAt = &now
	score := Score(report)
	c.metrics.ObserveRun(score, err != nil)

	if err != nil {
		slog.Info("Diagnostic run cancelled", "domain", target.Domain, "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return report, err
	}
	slog.Info("Diagnostic run completed",
		"domain", target.Domain,
		"selector", target.Selector,
		"score", score,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

type run struct {
	chain    *Chain
	report   *Report
	observer Observer
}

type stepFunc func(ctx context.Context) (Status, string)

func (r *run) execute(ctx context.Context) error {
	pre := []struct {
		id StepID
		fn stepFunc
	}{
		{StepMX, r.checkMX},
		{StepSPF, r.checkSPF},
		{StepDMARC, r.checkDMARC},
		{StepBIMI, r.checkBIMI},
	}
	for _, s := range pre {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.set(s.id, StatusRunning, "", false)
		status, detail := s.fn(ctx)
		r.set(s.id, status, detail, false)
	}

	if r.report.Step(StepBIMI).Status == StatusFail {
		r.set(StepSVG, StatusFail, detailWaitingBIMI, true)
		r.set(StepVMC, StatusFail, detailWaitingBIMI, true)
		return nil
	}

	post := []struct {
		id StepID
		fn func() (Status, string)
	}{
		{StepSVG, r.checkLogo},
		{StepVMC, r.checkCertificate},
	}
	for _, s := range post {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.set(s.id, StatusRunning, "", false)
		status, detail := s.fn()
		r.set(s.id, status, detail, false)
	}
	return nil
}

func (r *run) set(id StepID, status Status, detail string, skipped bool) {
	step := r.report.Step(id)
	step.Status = status
	step.Detail = detail
	step.Skipped = skipped
	if status.Terminal() {
		r.chain.metrics.ObserveStep(string(id), string(status))
	}
	if r.observer != nil {
		r.observer(*step)
	}
}

// lookup runs one query detached from caller cancellation but bounded by the
// lookup timeout per attempt. NXDOMAIN is read as "no records".
func (r *run) lookup(ctx context.Context, name string, rtype dnsclient.RecordType) ([]dnsclient.Answer, error) {
	c := r.chain
	detached := context.WithoutCancel(ctx)

	var answers []dnsclient.Answer
	resolve := func(ctx context.Context) error {
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		a, err := c.resolver.Resolve(actx, name, rtype)
		answers = a
		return err
	}

	var err error
	if c.retries == 0 {
		err = resolve(detached)
	} else {
		b := retry.WithMaxRetries(uint64(c.retries), retry.NewExponential(c.retryBase))
		err = retry.Do(detached, b, func(ctx context.Context) error {
			err := resolve(ctx)
			if re, ok := dnsclient.IsResolutionError(err); ok && re.Temporary() {
				return retry.RetryableError(err)
			}
			return err
		})
	}

	if re, ok := dnsclient.IsResolutionError(err); ok && re.Status == dnsclient.StatusNXDomain {
		return []dnsclient.Answer{}, nil
	}
	if err != nil {
		slog.Warn("Diagnostic lookup failed", "domain", name, "type", rtype, "error", err)
		return nil, err
	}
	return answers, nil
}

func (r *run) txt(ctx context.Context, name string) ([]string, error) {
	answers, err := r.lookup(ctx, name, dnsclient.TypeTXT)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(answers))
	for _, a := range answers {
		out = append(out, a.Data)
	}
	return out, nil
}

func (r *run) checkMX(ctx context.Context) (Status, string) {
	answers, err := r.lookup(ctx, r.report.Target.Domain, dnsclient.TypeMX)
	if err != nil {
		return StatusFail, detailLookupFailed
	}
	if len(answers) == 0 {
		return StatusFail, "no MX records"
	}
	hosts := make([]string, 0, len(answers))
	for _, a := range answers {
		hosts = append(hosts, a.Data)
	}
	return StatusPass, fmt.Sprintf("%d MX record(s): %s", len(answers), strings.Join(hosts, ", "))
}

func (r *run) checkSPF(ctx context.Context) (Status, string) {
	txt, err := r.txt(ctx, r.report.Target.Domain)
	if err != nil {
		return StatusFail, detailLookupFailed
	}
	for _, raw := range txt {
		spf, ok := records.ParseSPF(raw)
		if !ok {
			continue
		}
		r.report.SPF = spf
		var detail string
		switch spf.Qualifier {
		case records.QualifierStrict:
			detail = "SPF record with strict qualifier (-all)"
		case records.QualifierSoft:
			detail = "SPF record with soft qualifier (~all)"
		default:
			detail = "SPF record with neutral qualifier"
			if spf.AllTerm != "" {
				detail += " (" + spf.AllTerm + ")"
			}
		}
		if spf.ExceedsLookupLimit() {
			detail += fmt.Sprintf("; %d DNS lookups exceeds the limit of %d", spf.LookupCount, records.SPFLookupLimit)
		}
		return StatusPass, detail
	}
	return StatusFail, "no SPF record"
}

func (r *run) checkDMARC(ctx context.Context) (Status, string) {
	txt, err := r.txt(ctx, r.report.Target.DMARCName())
	if err != nil {
		return StatusFail, detailLookupFailed
	}
	for _, raw := range txt {
		d, ok := records.ParseDMARC(raw)
		if !ok {
			continue
		}
		r.report.DMARC = d

		var clamp string
		if d.PercentageClamped {
			clamp = fmt.Sprintf("; pct=%d out of range, treated as %d", d.PercentageRaw, d.Percentage)
		}
		if d.Policy.Enforced() {
			return StatusPass, fmt.Sprintf("policy %s at %d%%%s", strings.ToLower(string(d.Policy)), d.Percentage, clamp)
		}
		return StatusWarn, "policy not enforced (p=none)" + clamp
	}
	return StatusFail, "no DMARC record"
}

func (r *run) checkBIMI(ctx context.Context) (Status, string) {
	name := r.report.Target.BIMIName()
	txt, err := r.txt(ctx, name)
	if err != nil {
		return StatusFail, detailLookupFailed
	}
	for _, raw := range txt {
		if b, ok := records.ParseBIMI(raw); ok {
			r.report.BIMI = b
			return StatusPass, "BIMI record at " + name
		}
	}
	return StatusFail, "no BIMI record at " + name
}

func (r *run) checkLogo() (Status, string) {
	l := r.report.BIMI.LogoURL
	switch {
	case !l.Present:
		return StatusFail, "l= tag missing"
	case l.Value == "":
		return StatusFail, "l= tag present but empty"
	}
	return StatusPass, "logo at " + l.Value
}

func (r *run) checkCertificate() (Status, string) {
	a := r.report.BIMI.CertificateURL
	switch {
	case !a.Present:
		return StatusWarn, "a= tag missing: " + vmcAdvice
	case a.Value == "":
		return StatusWarn, "a= tag empty: " + vmcAdvice
	}
	return StatusPass, "certificate at " + a.Value
}
