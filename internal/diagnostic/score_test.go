// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package diagnostic

import "testing"

func reportWith(statuses ...Status) *Report {
	r := NewReport(Target{Domain: "example.com", Selector: DefaultSelector})
	for i, s := range statuses {
		r.Steps[i].Status = s
	}
	return r
}

func TestScore(t *testing.T) {
	tests := []struct {
		statuses []Status
		want     int
	}{
		{nil, 0},
		{[]Status{StatusPass}, 17},
		{[]Status{StatusPass, StatusPass}, 33},
		{[]Status{StatusPass, StatusPass, StatusPass}, 50},
		{[]Status{StatusPass, StatusPass, StatusWarn, StatusPass, StatusPass, StatusWarn}, 67},
		{[]Status{StatusPass, StatusPass, StatusPass, StatusPass, StatusPass}, 83},
		{[]Status{StatusPass, StatusPass, StatusPass, StatusPass, StatusPass, StatusPass}, 100},
		{[]Status{StatusFail, StatusWarn, StatusRunning, StatusPending}, 0},
	}
	for _, tt := range tests {
		if got := Score(reportWith(tt.statuses...)); got != tt.want {
			t.Errorf("Score(%v) = %d, want %d", tt.statuses, got, tt.want)
		}
	}
}

func TestVerdictFor(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, VerdictFull},
		{99, VerdictPartial},
		{67, VerdictPartial},
		{51, VerdictPartial},
		{50, VerdictNone},
		{17, VerdictNone},
		{0, VerdictNone},
	}
	for _, tt := range tests {
		if got := VerdictFor(tt.score); got != tt.want {
			t.Errorf("VerdictFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestNewReportAllPending(t *testing.T) {
	r := NewReport(Target{Domain: "example.com", Selector: DefaultSelector})
	for i, s := range r.Steps {
		if s.ID != StepOrder[i] || s.Status != StatusPending {
			t.Errorf("step %d = %+v", i, s)
		}
	}
	if r.Complete() {
		t.Error("fresh report should not be complete")
	}
	if NewReport(r.Target).ID == r.ID {
		t.Error("report ids should be unique")
	}
}
