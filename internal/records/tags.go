// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.

// Package records parses the TXT records used for email authentication
// (SPF, DMARC and BIMI). Every function is pure and safe for concurrent use.
package records

import "strings"

// Tag is one key=value pair of a tag-list record. A tag written without
// "=" has an empty Value.
type Tag struct {
	Key   string
	Value string
}

type TagList []Tag

// Tags tokenizes a DMARC/BIMI style tag list. Keys are lower-cased; keys and
// values are trimmed; empty segments are skipped and order is preserved.
func Tags(raw string) TagList {
	var list TagList
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		list = append(list, Tag{
			Key:   strings.ToLower(strings.TrimSpace(key)),
			Value: strings.TrimSpace(value),
		})
	}
	return list
}

// Get returns the value of the first tag named key.
func (l TagList) Get(key string) (string, bool) {
	for _, t := range l {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

func (l TagList) Has(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// versionIs reports whether the first tag is v=<want>, case-insensitively.
func (l TagList) versionIs(want string) bool {
	if len(l) == 0 || l[0].Key != "v" {
		return false
	}
	return strings.EqualFold(l[0].Value, want)
}

// Unquote strips the quoting a resolver may leave on TXT data. A value made
// of several character-strings ("v=spf1 " "-all") is joined without
// separators, as RFC 7208 §3.3 requires.
func Unquote(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || s[0] != '"' {
		return s
	}
	if joined, ok := joinCharacterStrings(s); ok {
		return joined
	}
	if s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func joinCharacterStrings(s string) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i == len(s) {
			break
		}
		if s[i] != '"' {
			return "", false
		}
		i++
		closed := false
		for i < len(s) {
			c := s[i]
			if c == '\\' && i+1 < len(s) {
				if n, ok := decimalEscape(s[i+1:]); ok {
					b.WriteByte(n)
					i += 4
					continue
				}
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			i++
			if c == '"' {
				closed = true
				break
			}
			b.WriteByte(c)
		}
		if !closed {
			return "", false
		}
	}
	return b.String(), true
}

// decimalEscape decodes the DDD of a \DDD escape, which zone-file
// presentation uses for bytes outside printable ASCII.
func decimalEscape(s string) (byte, bool) {
	if len(s) < 3 {
		return 0, false
	}
	n := 0
	for _, c := range []byte(s[:3]) {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n > 255 {
		return 0, false
	}
	return byte(n), true
}
