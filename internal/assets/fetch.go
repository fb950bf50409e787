// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

const (
	logoMaxRedirects     = 5
	logoMaxResponseBytes = 512 * 1024
	logoFetchTimeout     = 5 * time.Second
)

var (
	ErrLogoURL           = errors.New("logo URL must be an absolute https URL")
	ErrDisallowedAddress = errors.New("logo URL points to a disallowed address")
	ErrLogoNotSVG        = errors.New("logo response is not SVG")
	ErrLogoTooLarge      = errors.New("logo response too large")
	errTooManyRedirects  = errors.New("too many redirects")
	errInsecureRedirect  = errors.New("redirect to a non-https URL")
)

// LogoFetchError is a non-200 answer from the logo host.
type LogoFetchError struct {
	StatusCode int
}

func (e *LogoFetchError) Error() string {
	return fmt.Sprintf("logo fetch failed: HTTP %d", e.StatusCode)
}

// Fetcher downloads the SVG a BIMI l= tag points at. Connections to private,
// loopback and link-local addresses are refused at dial time, so a hostname
// that re-resolves to an internal address is caught too.
type Fetcher struct {
	client *http.Client
}

type FetcherOption func(*Fetcher)

// WithFetchClient replaces the guarded client. Tests use it to reach
// httptest servers on loopback.
func WithFetchClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	dialer := &net.Dialer{
		Timeout: logoFetchTimeout,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if isDisallowedIP(net.ParseIP(host)) {
				return ErrDisallowedAddress
			}
			return nil
		},
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout: logoFetchTimeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: logoFetchTimeout,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(f)
	}
	f.client.CheckRedirect = checkLogoRedirect
	return f
}

func checkLogoRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= logoMaxRedirects {
		return errTooManyRedirects
	}
	if req.URL.Scheme != "https" {
		return errInsecureRedirect
	}
	return nil
}

// Fetch returns the SVG text served at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme != "https" || parsed.Hostname() == "" {
		return "", ErrLogoURL
	}
	safe := &url.URL{Scheme: "https", Host: parsed.Host, Path: parsed.Path, RawQuery: parsed.RawQuery}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, safe.String(), nil)
	if err != nil {
		return "", ErrLogoURL
	}
	req.Header.Set("User-Agent", "BIMIReady/1.0 BIMI-Logo-Fetcher")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrDisallowedAddress) {
			return "", ErrDisallowedAddress
		}
		return "", fmt.Errorf("fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &LogoFetchError{StatusCode: resp.StatusCode}
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "svg") && !strings.Contains(ct, "xml") && !strings.HasPrefix(ct, "text/plain") {
		return "", ErrLogoNotSVG
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, logoMaxResponseBytes+1))
	if err != nil {
		return "", fmt.Errorf("read logo: %w", err)
	}
	if len(body) > logoMaxResponseBytes {
		return "", ErrLogoTooLarge
	}
	return string(body), nil
}

func isDisallowedIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() || ip.IsMulticast() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		// CGNAT, IETF protocol assignments and benchmarking ranges.
		if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
			return true
		}
		if ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 0 {
			return true
		}
		if ip4[0] == 198 && (ip4[1] == 18 || ip4[1] == 19) {
			return true
		}
	}
	return false
}
