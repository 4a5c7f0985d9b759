package raytracer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Substrate runs fn for every index in [0, n). Calls for different indices may run concurrently
// and must only write state owned by their index. Run blocks until every call has returned.
type Substrate interface {
	Run(ctx context.Context, n int, fn func(i int)) error
}

// SequentialSubstrate runs every index in order on the calling goroutine
type SequentialSubstrate struct{}

func (SequentialSubstrate) Run(ctx context.Context, n int, fn func(i int)) error {
	for i := 0; i < n; i++ {
		if i%sequentialCheck == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fn(i)
	}
	return nil
}

const sequentialCheck = 1024

// ParallelSubstrate splits the index range into chunks and runs them on a bounded number of
// goroutines.
type ParallelSubstrate struct {
	// Goroutines to run at once. Zero means GOMAXPROCS.
	Workers int
	// Indices per chunk. Zero spreads the range evenly over the workers.
	Chunk int
}

func (p ParallelSubstrate) Run(ctx context.Context, n int, fn func(i int)) error {
	if n == 0 {
		return ctx.Err()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := p.Chunk
	if chunk <= 0 {
		chunk = max(1, (n+workers-1)/workers)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

// NewSubstrate picks the parallel substrate unless a single worker is asked for
func NewSubstrate(workers int) Substrate {
	if workers == 1 {
		return SequentialSubstrate{}
	}
	return ParallelSubstrate{Workers: workers}
}
