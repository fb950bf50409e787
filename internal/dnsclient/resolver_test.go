// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/records"
)

func TestParseRecordType(t *testing.T) {
	for in, want := range map[string]RecordType{"mx": TypeMX, " TXT ": TypeTXT} {
		got, err := ParseRecordType(in)
		if err != nil || got != want {
			t.Errorf("ParseRecordType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseRecordType("AAAA"); err == nil {
		t.Error("expected error for AAAA")
	}
}

func TestResolutionError_Temporary(t *testing.T) {
	tests := []struct {
		name string
		err  *ResolutionError
		want bool
	}{
		{"nxdomain", &ResolutionError{Status: StatusNXDomain}, false},
		{"refused", &ResolutionError{Status: StatusRefused}, false},
		{"servfail", &ResolutionError{Status: StatusServFail}, true},
		{"transport", newTransportError("a.com", TypeTXT, "", errors.New("connection reset")), true},
		{"deadline", newTransportError("a.com", TypeTXT, "", context.DeadlineExceeded), true},
		{"canceled", newTransportError("a.com", TypeTXT, "", context.Canceled), false},
		{"malformed", newTransportError("a.com", TypeTXT, "", fmt.Errorf("%w: bad json", errMalformed)), false},
		{"http 503", newTransportError("a.com", TypeTXT, "", &httpStatusError{Code: 503}), true},
		{"http 429", newTransportError("a.com", TypeTXT, "", &httpStatusError{Code: 429}), true},
		{"http 400", newTransportError("a.com", TypeTXT, "", &httpStatusError{Code: 400}), false},
	}
	for _, tt := range tests {
		if got := tt.err.Temporary(); got != tt.want {
			t.Errorf("%s: Temporary() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolutionError_Message(t *testing.T) {
	err := &ResolutionError{Name: "example.com", Type: TypeMX, Resolver: "doh:dns.google", Status: StatusNXDomain}
	want := "resolve MX example.com via doh:dns.google: NXDOMAIN"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("step failed: %w", err)
	re, ok := IsResolutionError(wrapped)
	if !ok || re.Status != StatusNXDomain {
		t.Error("IsResolutionError should unwrap through fmt.Errorf")
	}
}

func TestParseDoHResponse(t *testing.T) {
	body := `{"Status":0,"Answer":[
		{"name":"_dmarc.example.com.","type":5,"TTL":300,"data":"other.example.net."},
		{"name":"_dmarc.example.com.","type":16,"TTL":120,"data":"\"v=DMARC1; p=reject\""},
		{"name":"_dmarc.example.com.","type":16,"TTL":120,"data":"\"v=DMARC1; p=reject\""}
	]}`
	answers, status, err := parseDoHResponse([]byte(body), "_dmarc.example.com", TypeTXT)
	if err != nil || status != StatusNoError {
		t.Fatalf("unexpected status=%d err=%v", status, err)
	}
	if len(answers) != 1 {
		t.Fatalf("expected 1 deduplicated TXT answer, got %d", len(answers))
	}
	a := answers[0]
	if a.Name != "_dmarc.example.com" || a.TTL != 120 || a.Data != `"v=DMARC1; p=reject"` {
		t.Errorf("unexpected answer %+v", a)
	}
}

func TestParseDoHResponse_Malformed(t *testing.T) {
	for _, body := range []string{`not json`, `{"Answer":[]}`} {
		_, _, err := parseDoHResponse([]byte(body), "example.com", TypeTXT)
		if !errors.Is(err, errMalformed) {
			t.Errorf("body %q: expected errMalformed, got %v", body, err)
		}
	}
}

func TestParseDoHResponse_NoAnswer(t *testing.T) {
	answers, status, err := parseDoHResponse([]byte(`{"Status":0}`), "example.com", TypeMX)
	if err != nil || status != StatusNoError {
		t.Fatalf("unexpected status=%d err=%v", status, err)
	}
	if answers == nil || len(answers) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", answers)
	}
}

func newDoHServer(t *testing.T, handler http.HandlerFunc) *DoHResolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDoHResolver(srv.URL+"/resolve", WithHTTPClient(srv.Client()))
}

func TestDoHResolver_Resolve(t *testing.T) {
	r := newDoHServer(t, func(w http.ResponseWriter, req *http.Request) {
		if got := req.Header.Get("Accept"); got != "application/dns-json" {
			t.Errorf("Accept = %q", got)
		}
		if req.URL.Query().Get("name") != "example.com" || req.URL.Query().Get("type") != "MX" {
			t.Errorf("unexpected query %s", req.URL.RawQuery)
		}
		fmt.Fprint(w, `{"Status":0,"Answer":[{"name":"example.com.","type":15,"TTL":3600,"data":"10 mx.example.com."}]}`)
	})

	answers, err := r.Resolve(context.Background(), "example.com", TypeMX)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(answers) != 1 || answers[0].Data != "10 mx.example.com." || answers[0].Type != TypeMX {
		t.Errorf("unexpected answers %+v", answers)
	}
	if !strings.HasPrefix(r.Name(), "doh:127.0.0.1") {
		t.Errorf("Name() = %q", r.Name())
	}
}

func TestDoHResolver_StatusErrors(t *testing.T) {
	r := newDoHServer(t, func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{"Status":3}`)
	})
	_, err := r.Resolve(context.Background(), "missing.example.com", TypeTXT)
	re, ok := IsResolutionError(err)
	if !ok || re.Status != StatusNXDomain || re.Temporary() {
		t.Fatalf("expected non-temporary NXDOMAIN, got %v", err)
	}

	r = newDoHServer(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = r.Resolve(context.Background(), "example.com", TypeTXT)
	re, ok = IsResolutionError(err)
	if !ok || !re.Temporary() {
		t.Fatalf("expected temporary error for HTTP 502, got %v", err)
	}
}

func TestDoHResolver_UnsupportedType(t *testing.T) {
	r := NewDoHResolver("http://127.0.0.1:1/resolve")
	_, err := r.Resolve(context.Background(), "example.com", RecordType("AAAA"))
	if !errors.Is(err, errUnsupportedType) {
		t.Errorf("expected errUnsupportedType, got %v", err)
	}
}

func startTestDNSServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("dns server did not start")
	}
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestUDPResolver_Resolve(t *testing.T) {
	addr := startTestDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		switch {
		case q.Name == "default._bimi.example.com." && q.Qtype == dns.TypeTXT:
			rr, _ := dns.NewRR(`default._bimi.example.com. 300 IN TXT "v=BIMI1; l=https://example.com/" "logo.svg"`)
			m.Answer = append(m.Answer, rr)
		case q.Name == "example.com." && q.Qtype == dns.TypeMX:
			rr, _ := dns.NewRR(`example.com. 600 IN MX 10 mx1.example.com.`)
			m.Answer = append(m.Answer, rr)
		default:
			m.SetRcode(req, dns.RcodeNameError)
		}
		_ = w.WriteMsg(m)
	})

	r := NewUDPResolver(addr, time.Second)
	ctx := context.Background()

	txt, err := r.Resolve(ctx, "default._bimi.example.com", TypeTXT)
	if err != nil {
		t.Fatalf("TXT: %v", err)
	}
	if len(txt) != 1 || txt[0].Data != `"v=BIMI1; l=https://example.com/" "logo.svg"` || txt[0].TTL != 300 {
		t.Errorf("unexpected TXT answers %+v", txt)
	}

	mx, err := r.Resolve(ctx, "example.com", TypeMX)
	if err != nil {
		t.Fatalf("MX: %v", err)
	}
	if len(mx) != 1 || mx[0].Data != "10 mx1.example.com." || mx[0].Name != "example.com" {
		t.Errorf("unexpected MX answers %+v", mx)
	}

	_, err = r.Resolve(ctx, "nope.example.com", TypeTXT)
	re, ok := IsResolutionError(err)
	if !ok || re.Status != StatusNXDomain {
		t.Errorf("expected NXDOMAIN, got %v", err)
	}
}

func TestUDPResolver_NonASCIITXT(t *testing.T) {
	const logo = "https://example.com/logo-\u00e9.svg"
	addr := startTestDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.Answer = append(m.Answer, &dns.TXT{
			Hdr: dns.RR_Header{Name: req.Question[0].Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 300},
			Txt: []string{"v=BIMI1; l=" + logo + "; a="},
		})
		_ = w.WriteMsg(m)
	})

	txt, err := NewUDPResolver(addr, time.Second).Resolve(context.Background(), "default._bimi.example.com", TypeTXT)
	if err != nil {
		t.Fatalf("TXT: %v", err)
	}
	if len(txt) != 1 {
		t.Fatalf("answers = %+v", txt)
	}
	b, ok := records.ParseBIMI(txt[0].Data)
	if !ok {
		t.Fatalf("ParseBIMI(%q) failed", txt[0].Data)
	}
	if b.LogoURL.Value != logo {
		t.Errorf("logo = %q, want %q (data %q)", b.LogoURL.Value, logo, txt[0].Data)
	}
}

func TestNewUDPResolver_DefaultPort(t *testing.T) {
	if got := NewUDPResolver("1.1.1.1", 0).Name(); got != "udp:1.1.1.1:53" {
		t.Errorf("Name() = %q", got)
	}
	if got := NewUDPResolver("9.9.9.9:5353", 0).Name(); got != "udp:9.9.9.9:5353" {
		t.Errorf("Name() = %q", got)
	}
}
