// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package diagnostic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/dnsclient"
)

func TestRunBatch(t *testing.T) {
	f := fullyConfigured()
	f.add(dnsclient.TypeMX, "other.example", "10 mx.other.example.")

	targets := []Target{
		mustTarget(t, "example.com"),
		mustTarget(t, "other.example"),
		mustTarget(t, "example.com"),
	}
	results, err := NewChain(f).RunBatch(context.Background(), targets, 2)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if results[1].Target.Domain != "other.example" {
		t.Errorf("order not preserved: %+v", results[1].Target)
	}
	if Score(results[0].Report) != 100 || Score(results[1].Report) != 17 {
		t.Errorf("scores = %d, %d", Score(results[0].Report), Score(results[1].Report))
	}
	if results[0].Report == results[2].Report || results[0].Report.ID == results[2].Report.ID {
		t.Error("each run should own its report")
	}
}

func TestRunBatch_ConcurrencyLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	r := dnsclient.ResolverFunc(func(ctx context.Context, name string, rtype dnsclient.RecordType) ([]dnsclient.Answer, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inflight.Add(-1)
		return []dnsclient.Answer{}, nil
	})

	var targets []Target
	for _, d := range []string{"a.example", "b.example", "c.example", "d.example", "e.example"} {
		targets = append(targets, mustTarget(t, d))
	}
	if _, err := NewChain(r).RunBatch(context.Background(), targets, 2); err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewChain(fullyConfigured()).RunBatch(ctx, []Target{mustTarget(t, "example.com")}, 1)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if results[0].Err == nil || results[0].Report.Step(StepMX).Status != StatusPending {
		t.Errorf("cancelled run = %+v", results[0])
	}
}
