// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package records

// TagValue keeps "tag missing" and "tag present but empty" apart.
type TagValue struct {
	Present bool   `json:"present"`
	Value   string `json:"value"`
}

func (v TagValue) NonEmpty() bool {
	return v.Present && v.Value != ""
}

type BIMI struct {
	Raw            string   `json:"raw"`
	LogoURL        TagValue `json:"logo_url"`
	CertificateURL TagValue `json:"certificate_url"`
}

// ParseBIMI returns nil, false unless the first tag is v=BIMI1.
func ParseBIMI(raw string) (*BIMI, bool) {
	record := Unquote(raw)
	tags := Tags(record)
	if !tags.versionIs("BIMI1") {
		return nil, false
	}

	b := &BIMI{Raw: record}
	if v, ok := tags.Get("l"); ok {
		b.LogoURL = TagValue{Present: true, Value: v}
	}
	if v, ok := tags.Get("a"); ok {
		b.CertificateURL = TagValue{Present: true, Value: v}
	}
	return b, true
}

func (b *BIMI) HasLogo() bool {
	return b.LogoURL.NonEmpty()
}

func (b *BIMI) HasCertificate() bool {
	return b.CertificateURL.NonEmpty()
}
