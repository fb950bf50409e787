// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

type RecordType string

const (
	TypeMX  RecordType = "MX"
	TypeTXT RecordType = "TXT"
)

var UserAgent = "BIMIReady-ComplianceEngine/1.0"

func SetUserAgentVersion(version string) {
	UserAgent = fmt.Sprintf("BIMIReady-ComplianceEngine/%s", version)
}

// ParseRecordType accepts the two record types the engine queries.
func ParseRecordType(s string) (RecordType, error) {
	switch RecordType(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeMX:
		return TypeMX, nil
	case TypeTXT:
		return TypeTXT, nil
	default:
		return "", fmt.Errorf("unsupported record type: %s", s)
	}
}

// Answer is one resource record returned for a query.
type Answer struct {
	Name string     `json:"name"`
	Type RecordType `json:"type"`
	TTL  uint32     `json:"ttl"`
	Data string     `json:"data"`
}

// Resolver performs a single query. An empty slice with a nil error means
// the name has no records of that type.
type Resolver interface {
	Resolve(ctx context.Context, name string, rtype RecordType) ([]Answer, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, name string, rtype RecordType) ([]Answer, error)

func (f ResolverFunc) Resolve(ctx context.Context, name string, rtype RecordType) ([]Answer, error) {
	return f(ctx, name, rtype)
}

// DNS response codes surfaced through ResolutionError.Status.
const (
	StatusNoError  = 0
	StatusFormErr  = 1
	StatusServFail = 2
	StatusNXDomain = 3
	StatusNotImp   = 4
	StatusRefused  = 5

	// statusTransport marks failures that never produced a DNS status.
	statusTransport = -1
)

var rcodeNames = map[int]string{
	StatusNoError:  "NOERROR",
	StatusFormErr:  "FORMERR",
	StatusServFail: "SERVFAIL",
	StatusNXDomain: "NXDOMAIN",
	StatusNotImp:   "NOTIMP",
	StatusRefused:  "REFUSED",
}

func StatusText(status int) string {
	if s, ok := rcodeNames[status]; ok {
		return s
	}
	return fmt.Sprintf("RCODE%d", status)
}

// ResolutionError is returned for every failed lookup: transport errors,
// timeouts, malformed responses, non-2xx HTTP replies and non-zero DNS status.
type ResolutionError struct {
	Name     string
	Type     RecordType
	Resolver string
	Status   int
	Err      error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolve %s %s", e.Type, e.Name)
	if e.Resolver != "" {
		fmt.Fprintf(&b, " via %s", e.Resolver)
	}
	if e.Status > 0 {
		fmt.Fprintf(&b, ": %s", StatusText(e.Status))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the lookup ran out of time.
func (e *ResolutionError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Temporary reports whether repeating the same query could succeed.
// NXDOMAIN, REFUSED and malformed replies are answers, not outages.
func (e *ResolutionError) Temporary() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	if errors.Is(e.Err, errMalformed) || errors.Is(e.Err, errUnsupportedType) {
		return false
	}
	var he *httpStatusError
	if errors.As(e.Err, &he) {
		return he.Code >= 500 || he.Code == 429
	}
	switch e.Status {
	case statusTransport, StatusServFail:
		return true
	case StatusNoError:
		return e.Timeout()
	default:
		return false
	}
}

var (
	errMalformed       = errors.New("malformed response")
	errUnsupportedType = errors.New("unsupported record type")
)

type httpStatusError struct {
	Code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

func newTransportError(name string, rtype RecordType, resolver string, err error) *ResolutionError {
	return &ResolutionError{Name: name, Type: rtype, Resolver: resolver, Status: statusTransport, Err: err}
}

// IsResolutionError unwraps err into a *ResolutionError when it is one.
func IsResolutionError(err error) (*ResolutionError, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
