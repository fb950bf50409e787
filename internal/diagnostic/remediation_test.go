// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package diagnostic

import (
	"context"
	"testing"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/dnsclient"
)

func fixFor(fixes []Fix, title string) *Fix {
	for i := range fixes {
		if fixes[i].Title == title {
			return &fixes[i]
		}
	}
	return nil
}

func TestRemediate_FullyCompliantHasNoFixes(t *testing.T) {
	report, _ := NewChain(fullyConfigured()).Run(context.Background(), mustTarget(t, "example.com"))
	if fixes := Remediate(report); len(fixes) != 0 {
		t.Errorf("expected no fixes, got %+v", fixes)
	}
}

func TestRemediate_NothingPublished(t *testing.T) {
	report, _ := NewChain(newFakeResolver()).Run(context.Background(), mustTarget(t, "example.com"))
	fixes := Remediate(report)

	for _, title := range []string{"Publish MX Records", "Publish SPF Record", "Publish DMARC Record", "Add BIMI Record"} {
		if fixFor(fixes, title) == nil {
			t.Errorf("missing fix %q", title)
		}
	}
	if fixFor(fixes, "Set BIMI Logo URL") != nil {
		t.Error("skipped SVG step should not get its own fix")
	}
	if fixes[0].Severity != severityCritical {
		t.Errorf("fixes should be sorted by severity, first = %+v", fixes[0])
	}
	if f := fixFor(fixes, "Add BIMI Record"); f.DNSHost != "default._bimi.example.com" {
		t.Errorf("BIMI host = %q", f.DNSHost)
	}
}

func TestRemediate_PartialPosture(t *testing.T) {
	f := newFakeResolver()
	f.add(dnsclient.TypeMX, "example.com", "10 mx1.example.com.")
	f.add(dnsclient.TypeTXT, "example.com", "v=spf1 mx ?all")
	f.add(dnsclient.TypeTXT, "_dmarc.example.com", "v=DMARC1; p=none")
	f.add(dnsclient.TypeTXT, "default._bimi.example.com", "v=BIMI1; l=https://example.com/logo.svg; a=")

	report, _ := NewChain(f).Run(context.Background(), mustTarget(t, "example.com"))
	fixes := Remediate(report)

	if fixFor(fixes, "Upgrade SPF to ~all or -all") == nil {
		t.Error("expected neutral SPF fix")
	}
	if fixFor(fixes, "Enforce DMARC Policy") == nil {
		t.Error("expected DMARC enforcement fix")
	}
	vmc := fixFor(fixes, "Add Verified Mark Certificate")
	if vmc == nil {
		t.Fatal("expected VMC fix")
	}
	if vmc.DNSValue != "v=BIMI1; l=https://example.com/logo.svg; a=https://example.com/brand/vmc.pem" {
		t.Errorf("VMC value = %q", vmc.DNSValue)
	}
	if fixFor(fixes, "Publish MX Records") != nil {
		t.Error("MX passed and needs no fix")
	}
}

func TestRemediate_LookupFailureGetsNoRecordFix(t *testing.T) {
	f := fullyConfigured()
	f.failWith(dnsclient.TypeTXT, "example.com", &dnsclient.ResolutionError{Status: dnsclient.StatusServFail})
	report, _ := NewChain(f).Run(context.Background(), mustTarget(t, "example.com"))
	if fixFor(Remediate(report), "Publish SPF Record") != nil {
		t.Error("a failed lookup is not evidence of a missing record")
	}
}
