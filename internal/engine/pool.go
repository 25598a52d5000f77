// FILE: internal/engine/pool.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"chesspipe/internal/positions"

	"golang.org/x/sync/errgroup"
)

// Factory starts the evaluator owned by one worker
type Factory func(ctx context.Context) (Evaluator, error)

// Pool fills a position set with a fixed number of workers, one evaluator each
type Pool struct {
	workers       int
	factory       Factory
	progressEvery int
}

func NewPool(workers int, factory Factory) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, factory: factory, progressEvery: 1000}
}

// FillStats reports what a fill did
type FillStats struct {
	Evaluated int
	Invalid   int
}

// Fill evaluates every position of set. Worker w owns indexes w, w+n, w+2n
// so no entry has two writers. It returns once all workers are done; the
// set is then safe to read. Positions the engine rejects stay unset.
func (p *Pool) Fill(ctx context.Context, set *positions.Set) (FillStats, error) {
	total := set.Len()
	workers := min(p.workers, total)
	if workers == 0 {
		return FillStats{}, nil
	}

	var evaluated, invalid atomic.Int64
	g, ctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			ev, err := p.factory(ctx)
			if err != nil {
				return fmt.Errorf("worker %d failed to initialize engine: %w", w, err)
			}
			defer ev.Close()

			for i := w; i < total; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				fen, _ := set.At(i)
				e, err := ev.Evaluate(ctx, fen)
				if errors.Is(err, ErrInvalidPosition) {
					log.Printf("Worker %d: skipping %v", w, err)
					invalid.Add(1)
					continue
				}
				if err != nil {
					return fmt.Errorf("worker %d failed to evaluate %q: %w", w, fen, err)
				}
				set.SetAt(i, e)

				if n := evaluated.Add(1); p.progressEvery > 0 && n%int64(p.progressEvery) == 0 {
					log.Printf("Engine: %d/%d positions", n, total)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	stats := FillStats{Evaluated: int(evaluated.Load()), Invalid: int(invalid.Load())}
	if err != nil {
		return stats, err
	}
	log.Printf("Engine: evaluated %d positions with %d workers (%d invalid)", stats.Evaluated, workers, stats.Invalid)
	return stats, nil
}
