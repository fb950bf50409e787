// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const defaultUDPTimeout = 3 * time.Second

var wireTypes = map[RecordType]uint16{
	TypeMX:  dns.TypeMX,
	TypeTXT: dns.TypeTXT,
}

// UDPResolver sends classic recursive queries to a single server, retrying
// over TCP when the UDP reply is truncated.
type UDPResolver struct {
	addr    string
	timeout time.Duration
}

// NewUDPResolver accepts "host" or "host:port"; port 53 is assumed.
func NewUDPResolver(server string, timeout time.Duration) *UDPResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	if timeout <= 0 {
		timeout = defaultUDPTimeout
	}
	return &UDPResolver{addr: server, timeout: timeout}
}

func (r *UDPResolver) Name() string {
	return "udp:" + r.addr
}

func (r *UDPResolver) Resolve(ctx context.Context, name string, rtype RecordType) ([]Answer, error) {
	qtype, ok := wireTypes[rtype]
	if !ok {
		return nil, newTransportError(name, rtype, r.Name(), fmt.Errorf("%w: %s", errUnsupportedType, rtype))
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	reply, err := r.exchange(ctx, msg)
	if err != nil {
		return nil, newTransportError(name, rtype, r.Name(), err)
	}
	if reply.Rcode != dns.RcodeSuccess {
		return nil, &ResolutionError{Name: name, Type: rtype, Resolver: r.Name(), Status: reply.Rcode}
	}

	answers := make([]Answer, 0, len(reply.Answer))
	for _, rr := range reply.Answer {
		data := rrData(rr)
		if data == "" || rr.Header().Rrtype != qtype {
			continue
		}
		answers = append(answers, Answer{
			Name: strings.TrimSuffix(rr.Header().Name, "."),
			Type: rtype,
			TTL:  rr.Header().Ttl,
			Data: data,
		})
	}
	return answers, nil
}

func (r *UDPResolver) exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	client := &dns.Client{Net: "udp", Timeout: r.timeout}
	reply, _, err := client.ExchangeContext(ctx, msg, r.addr)
	if err == nil && !reply.Truncated {
		return reply, nil
	}
	if err != nil {
		slog.Debug("UDP query failed, falling back to TCP", "resolver", r.addr, "error", err)
	}

	tcp := &dns.Client{Net: "tcp", Timeout: r.timeout}
	reply, _, err = tcp.ExchangeContext(ctx, msg, r.addr)
	return reply, err
}

// rrData renders the record data the way DoH services do, so answers from
// both transports parse identically.
func rrData(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.MX:
		return fmt.Sprintf("%d %s", v.Preference, v.Mx)
	case *dns.TXT:
		quoted := make([]string, len(v.Txt))
		for i, s := range v.Txt {
			quoted[i] = `"` + s + `"`
		}
		return strings.Join(quoted, " ")
	default:
		return ""
	}
}
