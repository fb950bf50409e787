// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
// Remediation hints: the DNS change that would move each non-passing step to PASS.
package diagnostic

import (
	"fmt"
	"sort"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/records"
)

const (
	severityCritical = "Critical"
	severityHigh     = "High"
	severityMedium   = "Medium"
	severityLow      = "Low"
)

var severityOrder = map[string]int{
	severityCritical: 1,
	severityHigh:     2,
	severityMedium:   3,
	severityLow:      4,
}

type Fix struct {
	Step        StepID `json:"step"`
	Title       string `json:"title"`
	Description string `json:"fix"`
	DNSHost     string `json:"dns_host,omitempty"`
	DNSType     string `json:"dns_type,omitempty"`
	DNSValue    string `json:"dns_value,omitempty"`
	RFC         string `json:"rfc,omitempty"`
	RFCURL      string `json:"rfc_url,omitempty"`
	Severity    string `json:"severity"`
}

// Remediate lists fixes for a finished report, most severe first. Steps
// still PENDING (cancelled runs) and skipped steps get no fix of their own.
func Remediate(r *Report) []Fix {
	var fixes []Fix
	domain := r.Target.Domain

	if s := r.Step(StepMX); s.Status == StatusFail && s.Detail != detailLookupFailed {
		fixes = append(fixes, Fix{
			Step:        StepMX,
			Title:       "Publish MX Records",
			Description: "No mail exchangers are published. Receivers and BIMI-capable mailbox providers expect a domain that sends mail to also accept it.",
			DNSHost:     domain,
			DNSType:     "MX",
			DNSValue:    "10 mail." + domain + ".",
			RFC:         "RFC 5321 §5.1",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc5321#section-5.1",
			Severity:    severityMedium,
		})
	}

	fixes = appendSPFFixes(fixes, r)
	fixes = appendDMARCFixes(fixes, r)
	fixes = appendBIMIFixes(fixes, r)

	sort.SliceStable(fixes, func(i, j int) bool {
		return severityOrder[fixes[i].Severity] < severityOrder[fixes[j].Severity]
	})
	return fixes
}

func appendSPFFixes(fixes []Fix, r *Report) []Fix {
	domain := r.Target.Domain
	s := r.Step(StepSPF)
	if s.Status == StatusFail && s.Detail != detailLookupFailed {
		return append(fixes, Fix{
			Step:        StepSPF,
			Title:       "Publish SPF Record",
			Description: "Add an SPF record to authorize mail servers for this domain.",
			DNSHost:     domain,
			DNSType:     "TXT",
			DNSValue:    "v=spf1 mx ~all",
			RFC:         "RFC 7208",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc7208",
			Severity:    severityCritical,
		})
	}
	if r.SPF == nil {
		return fixes
	}
	if r.SPF.Qualifier == records.QualifierNeutral {
		fixes = append(fixes, Fix{
			Step:        StepSPF,
			Title:       "Upgrade SPF to ~all or -all",
			Description: "The SPF record does not end in ~all or -all, so it gives receivers no enforcement signal.",
			RFC:         "RFC 7208 §5.1",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc7208#section-5.1",
			Severity:    severityHigh,
		})
	}
	if r.SPF.ExceedsLookupLimit() {
		fixes = append(fixes, Fix{
			Step:        StepSPF,
			Title:       "Reduce SPF Lookup Count",
			Description: fmt.Sprintf("The SPF record uses %d DNS lookups, exceeding the limit of %d. Receivers return PermError and ignore the policy.", r.SPF.LookupCount, records.SPFLookupLimit),
			RFC:         "RFC 7208 §4.6.4",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc7208#section-4.6.4",
			Severity:    severityMedium,
		})
	}
	return fixes
}

func appendDMARCFixes(fixes []Fix, r *Report) []Fix {
	host := r.Target.DMARCName()
	s := r.Step(StepDMARC)
	switch {
	case s.Status == StatusFail && s.Detail != detailLookupFailed:
		return append(fixes, Fix{
			Step:        StepDMARC,
			Title:       "Publish DMARC Record",
			Description: "Add a DMARC record to protect the domain against spoofing and receive aggregate reports. BIMI requires an enforced policy.",
			DNSHost:     host,
			DNSType:     "TXT",
			DNSValue:    "v=DMARC1; p=quarantine; rua=mailto:dmarc-reports@" + r.Target.Domain,
			RFC:         "RFC 7489 §6.3",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc7489#section-6.3",
			Severity:    severityCritical,
		})
	case s.Status == StatusWarn && r.DMARC != nil:
		return append(fixes, Fix{
			Step:        StepDMARC,
			Title:       "Enforce DMARC Policy",
			Description: "The DMARC policy is p=none. Mailbox providers only show BIMI logos for domains at p=quarantine or p=reject.",
			DNSHost:     host,
			DNSType:     "TXT",
			DNSValue:    "v=DMARC1; p=quarantine; pct=100",
			RFC:         "RFC 7489 §6.3",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc7489#section-6.3",
			Severity:    severityHigh,
		})
	case r.DMARC != nil && r.DMARC.Percentage < 100:
		return append(fixes, Fix{
			Step:        StepDMARC,
			Title:       "Apply DMARC to All Mail",
			Description: fmt.Sprintf("The policy applies to %d%% of failing mail. BIMI requires pct=100.", r.DMARC.Percentage),
			DNSHost:     host,
			DNSType:     "TXT",
			RFC:         "RFC 7489 §6.3",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc7489#section-6.3",
			Severity:    severityMedium,
		})
	}
	return fixes
}

func appendBIMIFixes(fixes []Fix, r *Report) []Fix {
	host := r.Target.BIMIName()
	logo := "https://" + r.Target.Domain + "/brand/logo.svg"

	if s := r.Step(StepBIMI); s.Status == StatusFail && s.Detail != detailLookupFailed {
		return append(fixes, Fix{
			Step:        StepBIMI,
			Title:       "Add BIMI Record",
			Description: "Publish a BIMI record so supporting mail clients (Gmail, Apple Mail, Yahoo) can display the brand logo.",
			DNSHost:     host,
			DNSType:     "TXT",
			DNSValue:    "v=BIMI1; l=" + logo,
			RFC:         "RFC 9495",
			RFCURL:      "https://datatracker.ietf.org/doc/html/rfc9495",
			Severity:    severityLow,
		})
	}
	if r.BIMI == nil {
		return fixes
	}
	if s := r.Step(StepSVG); s.Status == StatusFail && !s.Skipped {
		fixes = append(fixes, Fix{
			Step:        StepSVG,
			Title:       "Set BIMI Logo URL",
			Description: "The BIMI record has no logo location. Point l= at an HTTPS URL serving an SVG Tiny PS file.",
			DNSHost:     host,
			DNSType:     "TXT",
			DNSValue:    "v=BIMI1; l=" + logo,
			Severity:    severityHigh,
		})
	}
	if s := r.Step(StepVMC); s.Status == StatusWarn {
		value := "v=BIMI1; l=" + logo + "; a=https://" + r.Target.Domain + "/brand/vmc.pem"
		if r.BIMI.HasLogo() {
			value = "v=BIMI1; l=" + r.BIMI.LogoURL.Value + "; a=https://" + r.Target.Domain + "/brand/vmc.pem"
		}
		fixes = append(fixes, Fix{
			Step:        StepVMC,
			Title:       "Add Verified Mark Certificate",
			Description: "Gmail shows the verified brand indicator only when a= points at a Verified Mark Certificate.",
			DNSHost:     host,
			DNSType:     "TXT",
			DNSValue:    value,
			Severity:    severityLow,
		})
	}
	return fixes
}
