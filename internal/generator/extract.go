// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package generator

import "strings"

// ExtractSVG returns the first <svg ...>...</svg> span of a model reply,
// dropping code fences, prose and any XML prolog around it.
func ExtractSVG(output string) (string, error) {
	lower := strings.ToLower(output)
	start := -1
	for i := 0; i < len(lower); {
		j := strings.Index(lower[i:], "<svg")
		if j < 0 {
			break
		}
		j += i
		if next := j + len("<svg"); next < len(lower) && isTagBoundary(lower[next]) {
			start = j
			break
		}
		i = j + len("<svg")
	}
	if start < 0 {
		return "", ErrNoSVG
	}
	end := strings.LastIndex(lower, "</svg>")
	if end < start {
		return "", ErrNoSVG
	}
	return strings.TrimSpace(output[start : end+len("</svg>")]), nil
}

func isTagBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '>' || c == '/'
}
