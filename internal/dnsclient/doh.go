// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultDoHEndpoint = "https://dns.google/resolve"
	maxDoHBodyBytes    = 1 << 20
)

var wireTypeCodes = map[RecordType]int{
	TypeMX:  15,
	TypeTXT: 16,
}

// DoHResolver queries a JSON DNS-over-HTTPS service
// (GET <endpoint>?name=..&type=.., application/dns-json).
type DoHResolver struct {
	endpoint   string
	httpClient *http.Client
}

type DoHOption func(*DoHResolver)

func WithHTTPClient(h *http.Client) DoHOption {
	return func(r *DoHResolver) { r.httpClient = h }
}

func NewDoHResolver(endpoint string, opts ...DoHOption) *DoHResolver {
	if endpoint == "" {
		endpoint = DefaultDoHEndpoint
	}
	r := &DoHResolver{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *DoHResolver) Name() string {
	if u, err := url.Parse(r.endpoint); err == nil && u.Host != "" {
		return "doh:" + u.Host
	}
	return "doh"
}

func (r *DoHResolver) Resolve(ctx context.Context, name string, rtype RecordType) ([]Answer, error) {
	if _, ok := wireTypeCodes[rtype]; !ok {
		return nil, newTransportError(name, rtype, r.Name(), fmt.Errorf("%w: %s", errUnsupportedType, rtype))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, newTransportError(name, rtype, r.Name(), err)
	}
	q := req.URL.Query()
	q.Set("name", name)
	q.Set("type", string(rtype))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/dns-json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Debug("DoH query failed", "domain", name, "type", rtype, "error", err)
		return nil, newTransportError(name, rtype, r.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newTransportError(name, rtype, r.Name(), &httpStatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDoHBodyBytes+1))
	if err != nil {
		return nil, newTransportError(name, rtype, r.Name(), err)
	}
	if len(body) > maxDoHBodyBytes {
		return nil, newTransportError(name, rtype, r.Name(), fmt.Errorf("%w: body exceeds %d bytes", errMalformed, maxDoHBodyBytes))
	}

	answers, status, err := parseDoHResponse(body, name, rtype)
	if err != nil {
		return nil, newTransportError(name, rtype, r.Name(), err)
	}
	if status != StatusNoError {
		return nil, &ResolutionError{Name: name, Type: rtype, Resolver: r.Name(), Status: status}
	}
	return answers, nil
}

type dohResponse struct {
	Status *int `json:"Status"`
	Answer []struct {
		Name string `json:"name"`
		Type int    `json:"type"`
		TTL  uint32 `json:"TTL"`
		Data string `json:"data"`
	} `json:"Answer"`
}

// parseDoHResponse decodes a dns-json body. Answers of other types (CNAME
// links in a chain) are dropped and duplicate data is collapsed.
func parseDoHResponse(body []byte, name string, rtype RecordType) ([]Answer, int, error) {
	var data dohResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if data.Status == nil {
		return nil, 0, fmt.Errorf("%w: missing Status", errMalformed)
	}
	if *data.Status != StatusNoError {
		return nil, *data.Status, nil
	}

	want := wireTypeCodes[rtype]
	answers := make([]Answer, 0, len(data.Answer))
	seen := make(map[string]bool)
	for _, a := range data.Answer {
		if a.Type != 0 && a.Type != want {
			continue
		}
		rd := strings.TrimSpace(a.Data)
		if rd == "" || seen[rd] {
			continue
		}
		seen[rd] = true

		owner := strings.TrimSuffix(a.Name, ".")
		if owner == "" {
			owner = name
		}
		answers = append(answers, Answer{Name: owner, Type: rtype, TTL: a.TTL, Data: rd})
	}
	return answers, StatusNoError, nil
}
