package async

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the number of calls Map runs at once.
func DefaultLimit() int {
	return 4 * runtime.GOMAXPROCS(0)
}

// Map is MapLimit with DefaultLimit.
func Map[T, U any](ctx context.Context, items []T, fn func(context.Context, T) (U, error)) ([]U, error) {
	return MapLimit(ctx, DefaultLimit(), items, fn)
}

// MapLimit calls fn for every element of items, at most limit at a time, and
// returns the results in input order. It is all-or-nothing: the first failure
// cancels the context of the remaining calls and MapLimit returns nil with
// that error. A limit below one means no limit.
func MapLimit[T, U any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (U, error)) ([]U, error) {
	results := make([]U, len(items))
	if len(items) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, it)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
