// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var (
	labelRegex    = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	asciiRegex    = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)
	tldRegex      = regexp.MustCompile(`^[a-zA-Z]{2,}$`)
	hexLabelRegex = regexp.MustCompile(`^[0-9a-f]+$`)
	selectorRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)*$`)
)

var ErrInvalidDomain = errors.New("invalid domain")

const maxLabelDepth = 10

func DomainToASCII(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimRight(domain, ".")

	p := idna.New(idna.MapForLookup(), idna.Transitional(false))
	ascii, err := p.ToASCII(domain)
	if err != nil {
		if asciiRegex.MatchString(domain) {
			for _, label := range strings.Split(domain, ".") {
				if label == "" || len(label) > 63 || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
					return "", err
				}
			}
			return domain, nil
		}
		return "", err
	}
	return ascii, nil
}

// NormalizeDomain turns user input ("HTTPS://Example.com/", "münchen.de.")
// into the lower-case ASCII name that is queried.
func NormalizeDomain(raw string) (string, error) {
	d := strings.TrimSpace(raw)
	lower := strings.ToLower(d)
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, scheme) {
			d = d[len(scheme):]
			break
		}
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	d = strings.TrimRight(d, "/.")

	if !ValidateDomain(d) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}
	ascii, err := DomainToASCII(d)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}
	return strings.ToLower(ascii), nil
}

// ValidateSelector accepts one or more DNS labels, e.g. "default" or "brand.2024".
func ValidateSelector(selector string) bool {
	if selector == "" || len(selector) > 63 {
		return false
	}
	return selectorRegex.MatchString(selector)
}

func ValidateDomain(domain string) bool {
	if domain == "" || len(domain) > 253 {
		return false
	}

	domain = strings.TrimSpace(domain)
	domain = strings.TrimRight(domain, ".")
	if domain == "" {
		return false
	}

	ascii, err := DomainToASCII(domain)
	if err != nil {
		return false
	}

	if strings.Contains(ascii, "..") || strings.HasPrefix(ascii, ".") || strings.HasPrefix(ascii, "-") {
		return false
	}

	labels := strings.Split(ascii, ".")
	if len(labels) < 2 || len(labels) > maxLabelDepth {
		return false
	}

	if !validateLabels(labels) {
		return false
	}

	if looksLikeSSRFProbe(ascii) {
		return false
	}

	return validateTLD(labels[len(labels)-1])
}

var ssrfPatterns = []string{
	"ssrf", "qualysperiscope", "oastify", "burpcollaborator",
	"interact.sh", "canarytokens", "dnslog", "ceye.io",
	"bxss.me", "xss.ht",
}

func looksLikeSSRFProbe(domain string) bool {
	lower := strings.ToLower(domain)
	for _, pat := range ssrfPatterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}

	longHexCount := 0
	for _, label := range strings.Split(lower, ".") {
		if len(label) >= 20 && hexLabelRegex.MatchString(label) {
			longHexCount++
		}
	}
	return longHexCount >= 2
}

func validateLabels(labels []string) bool {
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		if !labelRegex.MatchString(label) {
			return false
		}
	}
	return true
}

func validateTLD(tld string) bool {
	return tldRegex.MatchString(tld) || strings.HasPrefix(tld, "xn--")
}
