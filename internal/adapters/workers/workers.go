// Package workers provides a bounded pool for fanning batch work out across
// goroutines. Callers must keep aggregation deterministic: collect results
// keyed by input identity and order-stabilize the merge, never rely on
// completion order.
package workers

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/okian/esmtidy/pkg/logger"
)

// Job is one unit of independent work.
type Job func(ctx context.Context) error

// Pool runs jobs across a fixed number of workers.
type Pool struct {
	size   int
	logger logger.Logger
}

// NewPool constructs a pool with configuration options.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		size:   runtime.NumCPU(),
		logger: logger.Get().Named("workers"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes all jobs and waits for completion. Every job is attempted;
// errors are joined and returned together. Context cancellation stops
// dispatch of not-yet-started jobs.
func (p *Pool) Run(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}

	queue := make(chan Job)
	errCh := make(chan error, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < p.size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if err := job(ctx); err != nil {
					errCh <- err
				}
			}
		}()
	}

dispatch:
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			errCh <- err
			break dispatch
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			break dispatch
		case queue <- job:
		}
	}
	close(queue)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		p.logger.Warn(ctx, "pool finished with errors", logger.Int("failed", len(errs)))
	}
	return errors.Join(errs...)
}
