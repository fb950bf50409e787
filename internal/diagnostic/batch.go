// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package diagnostic

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const DefaultBatchConcurrency = 4

type BatchResult struct {
	Target Target
	Report *Report
	Err    error
}

// RunBatch checks independent targets in parallel, at most concurrency at a
// time. Results keep the order of targets. A failed run does not stop the
// others; the returned error is ctx's once the batch was cancelled.
func (c *Chain) RunBatch(ctx context.Context, targets []Target, concurrency int) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	results := make([]BatchResult, len(targets))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, t := range targets {
		g.Go(func() error {
			report, err := c.Run(ctx, t)
			results[i] = BatchResult{Target: t, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}
