// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package records

import (
	"reflect"
	"testing"
)

func TestParseDMARC_RejectAnyTagOrder(t *testing.T) {
	for _, raw := range []string{
		"v=DMARC1; p=reject",
		"v=DMARC1; rua=mailto:d@example.com; p=reject",
		"v=DMARC1; pct=50; adkim=s; p=reject; sp=none",
		`"v=DMARC1;p=REJECT"`,
	} {
		d, ok := ParseDMARC(raw)
		if !ok {
			t.Errorf("ParseDMARC(%q) not recognised", raw)
			continue
		}
		if d.Policy != PolicyReject {
			t.Errorf("ParseDMARC(%q).Policy = %s", raw, d.Policy)
		}
	}
}

func TestParseDMARC_Defaults(t *testing.T) {
	d, ok := ParseDMARC("v=DMARC1")
	if !ok {
		t.Fatal("not recognised")
	}
	if d.Policy != PolicyNone || d.Percentage != 100 || d.SubdomainPolicy != nil {
		t.Errorf("unexpected defaults %+v", d)
	}
	if d.AlignSPF != AlignRelaxed || d.AlignDKIM != AlignRelaxed || d.AggregateReportTo != "" {
		t.Errorf("unexpected defaults %+v", d)
	}

	d, _ = ParseDMARC("v=DMARC1; p=bogus; pct=abc")
	if d.Policy != PolicyNone || d.Percentage != 100 || d.PercentageClamped {
		t.Errorf("unknown p= and unparsable pct= should fall back, got %+v", d)
	}
}

func TestParseDMARC_Tags(t *testing.T) {
	d, _ := ParseDMARC("v=DMARC1; p=quarantine; sp=reject; pct=25; rua=mailto:agg@example.com,mailto:x@vendor.example; ruf=mailto:f@example.com; aspf=s; adkim=r")
	if d.Policy != PolicyQuarantine || !d.Policy.Enforced() {
		t.Errorf("Policy = %s", d.Policy)
	}
	if d.SubdomainPolicy == nil || *d.SubdomainPolicy != PolicyReject {
		t.Errorf("SubdomainPolicy = %v", d.SubdomainPolicy)
	}
	if d.Percentage != 25 || d.PercentageClamped {
		t.Errorf("Percentage = %d clamped=%v", d.Percentage, d.PercentageClamped)
	}
	if d.AggregateReportTo != "mailto:agg@example.com" || d.ForensicReportTo != "mailto:f@example.com" {
		t.Errorf("report URIs = %q, %q", d.AggregateReportTo, d.ForensicReportTo)
	}
	if d.AlignSPF != AlignStrict || d.AlignDKIM != AlignRelaxed {
		t.Errorf("alignment = %s/%s", d.AlignSPF, d.AlignDKIM)
	}
}

func TestParseDMARC_PercentageClamp(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		clamped bool
		rawPct  int
	}{
		{"v=DMARC1; p=reject; pct=150", 100, true, 150},
		{"v=DMARC1; p=reject; pct=-5", 0, true, -5},
		{"v=DMARC1; p=reject; pct=0", 0, false, 0},
		{"v=DMARC1; p=reject; pct=100", 100, false, 100},
	}
	for _, tt := range tests {
		d, _ := ParseDMARC(tt.raw)
		if d.Percentage != tt.want || d.PercentageClamped != tt.clamped || d.PercentageRaw != tt.rawPct {
			t.Errorf("%q: got pct=%d clamped=%v raw=%d", tt.raw, d.Percentage, d.PercentageClamped, d.PercentageRaw)
		}
	}
}

func TestParseDMARC_NotDMARC(t *testing.T) {
	for _, raw := range []string{"", "v=spf1 -all", "p=reject; v=DMARC1", "v=DMARC2; p=reject"} {
		if _, ok := ParseDMARC(raw); ok {
			t.Errorf("ParseDMARC(%q) should be none", raw)
		}
	}
}

func TestMailtoDomains(t *testing.T) {
	got := MailtoDomains("mailto:a@Example.com, mailto:b@example.com!10m, https://x.example/r, mailto:c@vendor.example")
	want := []string{"example.com", "vendor.example"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MailtoDomains = %v, want %v", got, want)
	}
}
