// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package diagnostic

import "math"

const (
	VerdictFull    = "fully compliant"
	VerdictPartial = "partially compliant"
	VerdictNone    = "non-compliant"
)

// Score is round(100 * passed / 6). Steps that never ran count as not passed.
func Score(r *Report) int {
	passed := 0
	for _, s := range r.Steps {
		if s.Status == StatusPass {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(TotalSteps)))
}

func VerdictFor(score int) string {
	switch {
	case score >= 100:
		return VerdictFull
	case score >= 51:
		return VerdictPartial
	default:
		return VerdictNone
	}
}
