// Package shared holds small helpers used across domain packages.
package shared

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchError records a failure for one item of a best-effort batch.
type BatchError struct {
	Index int
	Err   error
}

// AllOrNothing runs fn concurrently for every index in [0, n). The first
// error cancels the remaining work and fails the whole batch.
func AllOrNothing(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(ctx, i)
		})
	}
	return g.Wait()
}

// BestEffort runs fn sequentially for every index in [0, n). Failures are
// collected per index and never abort the remaining items. A cancelled
// context stops the walk and attributes the cancellation to the current
// index.
func BestEffort(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []BatchError {
	var errs []BatchError
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, BatchError{Index: i, Err: err})
			return errs
		}
		if err := fn(ctx, i); err != nil {
			errs = append(errs, BatchError{Index: i, Err: err})
		}
	}
	return errs
}
