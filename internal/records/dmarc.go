// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package records

import (
	"strconv"
	"strings"
)

type Policy string

const (
	PolicyNone       Policy = "NONE"
	PolicyQuarantine Policy = "QUARANTINE"
	PolicyReject     Policy = "REJECT"
)

// Enforced reports whether the policy asks receivers to act on failures.
func (p Policy) Enforced() bool {
	return p == PolicyQuarantine || p == PolicyReject
}

type Alignment string

const (
	AlignRelaxed Alignment = "relaxed"
	AlignStrict  Alignment = "strict"
)

type DMARC struct {
	Raw             string  `json:"raw"`
	Policy          Policy  `json:"policy"`
	SubdomainPolicy *Policy `json:"subdomain_policy,omitempty"`
	// Percentage is pct= clamped to 0-100. When clamping happened,
	// PercentageClamped is set and PercentageRaw holds the published value.
	Percentage        int       `json:"percentage"`
	PercentageClamped bool      `json:"percentage_clamped,omitempty"`
	PercentageRaw     int       `json:"percentage_raw,omitempty"`
	AggregateReportTo string    `json:"aggregate_report_to,omitempty"`
	ForensicReportTo  string    `json:"forensic_report_to,omitempty"`
	AlignSPF          Alignment `json:"align_spf"`
	AlignDKIM         Alignment `json:"align_dkim"`
}

// ParseDMARC returns nil, false unless the first tag is v=DMARC1. A missing
// or unknown p= is read as NONE; a missing or unparsable pct= as 100.
func ParseDMARC(raw string) (*DMARC, bool) {
	record := Unquote(raw)
	tags := Tags(record)
	if !tags.versionIs("DMARC1") {
		return nil, false
	}

	d := &DMARC{
		Raw:        record,
		Policy:     PolicyNone,
		Percentage: 100,
		AlignSPF:   AlignRelaxed,
		AlignDKIM:  AlignRelaxed,
	}

	if v, ok := tags.Get("p"); ok {
		if p, known := parsePolicy(v); known {
			d.Policy = p
		}
	}
	if v, ok := tags.Get("sp"); ok {
		if p, known := parsePolicy(v); known {
			d.SubdomainPolicy = &p
		}
	}
	if v, ok := tags.Get("pct"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			d.PercentageRaw = n
			d.Percentage = min(max(n, 0), 100)
			d.PercentageClamped = d.Percentage != n
		}
	}
	if v, ok := tags.Get("rua"); ok {
		d.AggregateReportTo = firstURI(v)
	}
	if v, ok := tags.Get("ruf"); ok {
		d.ForensicReportTo = firstURI(v)
	}
	if v, ok := tags.Get("aspf"); ok && strings.EqualFold(v, "s") {
		d.AlignSPF = AlignStrict
	}
	if v, ok := tags.Get("adkim"); ok && strings.EqualFold(v, "s") {
		d.AlignDKIM = AlignStrict
	}
	return d, true
}

func parsePolicy(v string) (Policy, bool) {
	switch strings.ToLower(v) {
	case "none":
		return PolicyNone, true
	case "quarantine":
		return PolicyQuarantine, true
	case "reject":
		return PolicyReject, true
	}
	return "", false
}

func firstURI(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

// MailtoDomains extracts the receiving domains of mailto: report URIs.
func MailtoDomains(uris string) []string {
	var domains []string
	seen := make(map[string]bool)
	for _, uri := range strings.Split(uris, ",") {
		uri = strings.TrimSpace(uri)
		if !strings.HasPrefix(strings.ToLower(uri), "mailto:") {
			continue
		}
		addr := uri[len("mailto:"):]
		if i := strings.Index(addr, "!"); i >= 0 {
			addr = addr[:i]
		}
		_, domain, ok := strings.Cut(addr, "@")
		domain = strings.ToLower(strings.TrimSpace(domain))
		if !ok || domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		domains = append(domains, domain)
	}
	return domains
}
