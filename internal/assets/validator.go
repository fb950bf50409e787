// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package assets

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html/charset"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/telemetry"
)

type Violation struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

type ValidationResult struct {
	Compliant  bool        `json:"compliant"`
	Violations []Violation `json:"violations"`
	Repaired   bool        `json:"repaired"`
}

// Candidate is generated or uploaded SVG awaiting validation. Only the
// validator rewrites SourceText, and only for the root attribute repair.
type Candidate struct {
	SourceText string            `json:"source_text"`
	Result     *ValidationResult `json:"validation_result,omitempty"`
}

type Validator struct {
	profile *Profile
	metrics *telemetry.Metrics
}

type ValidatorOption func(*Validator)

func WithValidatorMetrics(m *telemetry.Metrics) ValidatorOption {
	return func(v *Validator) { v.metrics = m }
}

func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{profile: TinyPS()}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate checks c.SourceText, applies the root attribute repair when
// baseProfile is absent, attaches the result to c and returns it.
func (v *Validator) Validate(c *Candidate) ValidationResult {
	result := v.validate(c)
	c.Result = &result

	rules := make([]string, 0, len(result.Violations))
	for _, vi := range result.Violations {
		rules = append(rules, vi.Rule)
	}
	v.metrics.ObserveValidation(result.Compliant, result.Repaired, rules)
	return result
}

func (v *Validator) validate(c *Candidate) ValidationResult {
	doc, ok := v.scan(c.SourceText)
	if !ok {
		return ValidationResult{
			Violations: []Violation{{Rule: RuleStructure, Detail: "not valid SVG"}},
		}
	}

	if _, has := doc.rootAttrs["baseProfile"]; has || doc.nameEnd < 0 {
		return finish(doc.violations, false)
	}

	repairedText := injectRootAttributes(c.SourceText, doc)
	repaired, ok := v.scan(repairedText)
	if !ok {
		return finish(doc.violations, false)
	}
	c.SourceText = repairedText
	return finish(repaired.violations, true)
}

func finish(violations []Violation, repaired bool) ValidationResult {
	if violations == nil {
		violations = []Violation{}
	}
	return ValidationResult{
		Compliant:  len(violations) == 0,
		Violations: violations,
		Repaired:   repaired,
	}
}

const utf8BOM = "\ufeff"

type document struct {
	rootAttrs map[string]string
	// nameEnd is the byte offset just past "<svg" in the source, or -1
	// when the root tag could not be located in the raw text.
	nameEnd    int64
	violations []Violation
}

// scan walks the token stream once. ok is false when the text is not a
// well-formed document with a single <svg> root.
func (v *Validator) scan(src string) (doc *document, ok bool) {
	defer func() {
		if recover() != nil {
			doc, ok = nil, false
		}
	}()

	doc = &document{}
	body := strings.TrimPrefix(src, utf8BOM)
	skip := int64(len(src) - len(body))
	dec := xml.NewDecoder(strings.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	depth := 0
	rootSeen := false

	for {
		offset := skip + dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if rootSeen || !v.checkRoot(src, offset, t, doc) {
					return nil, false
				}
				rootSeen = true
			}
			depth++
			v.checkElement(t, doc)
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(strings.TrimSpace(string(t))) > 0 {
				return nil, false
			}
		case xml.Directive:
			decl := strings.ToUpper(strings.TrimSpace(string(t)))
			if strings.HasPrefix(decl, "DOCTYPE") || strings.HasPrefix(decl, "ENTITY") {
				doc.add(RuleDoctype, fmt.Sprintf("<!%s> declaration", firstWord(string(t))))
			}
		case xml.ProcInst:
			if t.Target == "xml-stylesheet" {
				doc.add(RuleStyle, "xml-stylesheet processing instruction")
			}
		}
	}
	if !rootSeen || depth != 0 {
		return nil, false
	}
	return doc, true
}

func (v *Validator) checkRoot(src string, offset int64, t xml.StartElement, doc *document) bool {
	if t.Name.Local != "svg" || (t.Name.Space != "" && t.Name.Space != SVGNamespace) {
		return false
	}
	doc.nameEnd = rootNameEnd(src, offset)

	doc.rootAttrs = make(map[string]string)
	for _, a := range t.Attr {
		if a.Name.Space == "" {
			doc.rootAttrs[a.Name.Local] = a.Value
		}
	}

	for _, req := range v.profile.RequiredRoot {
		got, has := doc.rootAttrs[req.Name]
		switch {
		case !has:
			doc.add(RuleRootAttribute, fmt.Sprintf("missing %s on <svg>", req.Name))
		case req.Value == "" && strings.TrimSpace(got) == "":
			doc.add(RuleRootAttribute, fmt.Sprintf("empty %s on <svg>", req.Name))
		case req.Value != "" && got != req.Value:
			doc.add(RuleRootAttribute, fmt.Sprintf("%s=%q on <svg>, want %q", req.Name, got, req.Value))
		}
	}
	return true
}

// rootNameEnd finds the end of the root element name at offset. Offsets
// drift from the raw text when a declared charset was transcoded, so the
// tag is confirmed before it is trusted.
func rootNameEnd(src string, offset int64) int64 {
	if offset < 0 || offset >= int64(len(src)) {
		return -1
	}
	tag := src[offset:]
	if !strings.HasPrefix(tag, "<") {
		return -1
	}
	end := strings.IndexFunc(tag[1:], func(r rune) bool {
		return unicode.IsSpace(r) || r == '>' || r == '/'
	})
	if end < 0 {
		return -1
	}
	name := tag[1 : 1+end]
	if _, local, found := strings.Cut(name, ":"); found {
		name = local
	}
	if name != "svg" {
		return -1
	}
	return offset + 1 + int64(end)
}

func (v *Validator) checkElement(t xml.StartElement, doc *document) {
	name := t.Name.Local
	foreign := t.Name.Space != "" && t.Name.Space != SVGNamespace

	switch rule, denied := v.profile.DeniedElements[name]; {
	case denied && !foreign:
		doc.add(rule, fmt.Sprintf("<%s> element", name))
	case isFilterPrimitive(name) && !foreign:
		doc.add(RuleFilter, fmt.Sprintf("<%s> element", name))
	case foreign || !v.profile.Allowed[name]:
		doc.add(RuleElement, fmt.Sprintf("<%s> element not allowed", qualified(t.Name)))
	}

	for _, a := range t.Attr {
		attr := a.Name.Local
		lower := strings.ToLower(a.Value)
		raster := strings.Contains(lower, "data:image/") && strings.Contains(lower, ";base64")

		switch {
		case a.Name.Space == "xmlns" || (a.Name.Space == "" && attr == "xmlns"):
			continue
		case strings.HasPrefix(strings.ToLower(attr), "on"):
			doc.add(RuleScript, fmt.Sprintf("%s handler on <%s>", attr, name))
		case attr == "href" && !raster && !strings.HasPrefix(strings.TrimSpace(a.Value), "#"):
			doc.add(RuleExternalReference, fmt.Sprintf("%s=%q on <%s>", qualified(a.Name), a.Value, name))
		case v.profile.TimingAttributes[attr] && a.Name.Space == "":
			doc.add(RuleAnimation, fmt.Sprintf("%s timing attribute on <%s>", attr, name))
		case attr == "filter" && a.Name.Space == "":
			doc.add(RuleFilter, fmt.Sprintf("filter attribute on <%s>", name))
		}
		if attr != "href" {
			for _, ref := range cssURLs(a.Value) {
				if !strings.HasPrefix(ref, "#") {
					doc.add(RuleExternalReference, fmt.Sprintf("url(%s) in %s of <%s>", ref, qualified(a.Name), name))
				}
			}
		}
		if raster {
			doc.add(RuleRasterData, fmt.Sprintf("base64 image data in %s of <%s>", qualified(a.Name), name))
		}
	}
}

func (d *document) add(rule, detail string) {
	d.violations = append(d.violations, Violation{Rule: rule, Detail: detail})
}

// injectRootAttributes inserts the missing repairable attributes right
// after the root element name. Nothing else in the text changes.
func injectRootAttributes(src string, doc *document) string {
	var b strings.Builder
	for _, a := range repairable {
		if _, has := doc.rootAttrs[a.Name]; has {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, a.Name, a.Value)
	}
	return src[:doc.nameEnd] + b.String() + src[doc.nameEnd:]
}

// cssURLs returns the targets of every url(...) in a presentation
// attribute or style value, with quotes and whitespace removed.
func cssURLs(value string) []string {
	var refs []string
	rest := value
	for {
		i := indexFold(rest, "url(")
		if i < 0 {
			return refs
		}
		rest = rest[i+len("url("):]
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			end = len(rest)
		}
		ref := strings.TrimSpace(rest[:end])
		ref = strings.TrimSpace(strings.Trim(ref, `"'`))
		refs = append(refs, ref)
		rest = rest[end:]
	}
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func isFilterPrimitive(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "fe") && unicode.IsUpper(rune(name[2]))
}

func qualified(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case XLinkNamespace:
		return "xlink:" + n.Local
	default:
		return n.Space + ":" + n.Local
	}
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}
