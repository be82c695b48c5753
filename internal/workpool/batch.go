// Package workpool runs paced, bounded batches of RPC-bound work.
package workpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"solana-holder-flow/internal/clock"
)

// Options configures a batch run.
type Options struct {
	// BatchSize is the number of items in flight at once.
	BatchSize int
	// ItemDelay is slept by each item before its call.
	ItemDelay time.Duration
	// BatchPause is slept between consecutive batches, not after the last.
	BatchPause time.Duration
	Sleep      clock.SleepFunc
}

// Result is the outcome for one input item.
type Result[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Run processes items in consecutive batches of opts.BatchSize, running each
// batch concurrently and waiting for it to finish before the next begins.
// Item failures are reported in their Result and never cancel siblings.
// Results keep input order. Run stops after the current batch when ctx is
// done or a pacing sleep fails; the returned slice then covers the items
// attempted so far.
func Run[T, R any](ctx context.Context, items []T, opts Options, fn func(ctx context.Context, item T) (R, error)) ([]Result[T, R], error) {
	size := opts.BatchSize
	if size <= 0 {
		size = 1
	}
	sleep := clock.Or(opts.Sleep)

	results := make([]Result[T, R], 0, len(items))
	for start := 0; start < len(items); start += size {
		if start > 0 {
			if err := sleep(ctx, opts.BatchPause); err != nil {
				return results, err
			}
		}

		end := min(start+size, len(items))
		batch := make([]Result[T, R], end-start)

		var g errgroup.Group
		for i, item := range items[start:end] {
			batch[i].Item = item
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						debug.PrintStack()
						batch[i].Err = fmt.Errorf("panic: %v", r)
					}
				}()
				if err := sleep(ctx, opts.ItemDelay); err != nil {
					batch[i].Err = err
					return err
				}
				batch[i].Value, batch[i].Err = fn(ctx, item)
				return nil
			})
		}
		err := g.Wait()

		results = append(results, batch...)
		if err != nil {
			return results, err
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
	}
	return results, nil
}
