// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package records

import "strings"

type Qualifier string

const (
	QualifierStrict  Qualifier = "PASS_STRICT"
	QualifierSoft    Qualifier = "PASS_SOFT"
	QualifierNeutral Qualifier = "NEUTRAL"
)

// SPFLookupLimit is the RFC 7208 §4.6.4 cap on DNS-querying terms.
const SPFLookupLimit = 10

type SPF struct {
	Raw        string    `json:"raw"`
	Mechanisms []string  `json:"mechanisms"`
	Qualifier  Qualifier `json:"qualifier"`
	// AllTerm is the literal all mechanism found, e.g. "-all" or "?all";
	// empty when the record has none.
	AllTerm     string `json:"all_term,omitempty"`
	LookupCount int    `json:"lookup_count"`
}

// ParseSPF returns nil, false unless raw is a v=spf1 record.
func ParseSPF(raw string) (*SPF, bool) {
	record := Unquote(raw)
	lower := strings.ToLower(record)
	if lower != "v=spf1" && !strings.HasPrefix(lower, "v=spf1 ") {
		return nil, false
	}

	terms := strings.Fields(record)[1:]
	spf := &SPF{
		Raw:        record,
		Mechanisms: terms,
		Qualifier:  QualifierNeutral,
	}

	hasStrict, hasSoft := false, false
	for _, term := range terms {
		t := strings.ToLower(term)
		switch t {
		case "-all":
			hasStrict = true
		case "~all":
			hasSoft = true
		}
		if isAllTerm(t) && spf.AllTerm == "" {
			spf.AllTerm = t
		}
		if costsLookup(t) {
			spf.LookupCount++
		}
	}

	switch {
	case hasStrict:
		spf.Qualifier = QualifierStrict
	case hasSoft:
		spf.Qualifier = QualifierSoft
	}
	return spf, true
}

func (s *SPF) ExceedsLookupLimit() bool {
	return s.LookupCount > SPFLookupLimit
}

func isAllTerm(t string) bool {
	return strings.TrimLeft(t, "+-~?") == "all" && len(t) <= 4
}

func costsLookup(t string) bool {
	if strings.HasPrefix(t, "redirect=") {
		return true
	}
	t = strings.TrimLeft(t, "+-~?")
	name := t
	if i := strings.IndexAny(t, ":/"); i >= 0 {
		name = t[:i]
	}
	switch name {
	case "include", "exists":
		return strings.Contains(t, ":")
	case "a", "mx", "ptr":
		return true
	}
	return false
}
