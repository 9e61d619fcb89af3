package backtest

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/core"
)

// DefaultWorkers returns the default worker pool size: available
// processing units minus one, floor one.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		return 1
	}
	return n
}

// Pool fans a list of stocks out across a bounded set of workers. Each
// stock's backtest is an independent unit of work; a failure on one stock
// is recorded as that stock's error and never aborts the batch. The
// result cache is the only mutable state shared between workers.
type Pool struct {
	runner  *Runner
	cache   *Cache
	workers int
	logger  *zap.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers overrides the worker count.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(l *zap.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates a batch scheduler over the given runner and cache.
func NewPool(runner *Runner, cache *Cache, opts ...PoolOption) *Pool {
	p := &Pool{
		runner:  runner,
		cache:   cache,
		workers: DefaultWorkers(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunBatch backtests every requested stock under one strategy and policy
// and returns a report with a result per stock: a bundle or a typed error.
// An invalid policy is fatal and rejected before any work starts.
// Cancellation is cooperative: units of work already started are allowed
// to finish, units not yet started are reported as cancelled.
func (p *Pool) RunBatch(ctx context.Context, stockIDs []string, strategyID string, policy Policy) (*Report, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ids := dedupe(stockIDs)

	type stockOutcome struct {
		id  string
		res StockResult
	}

	jobs := make(chan string)
	results := make(chan stockOutcome, len(ids))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := ctx.Err(); err != nil {
					results <- stockOutcome{id: id, res: StockResult{Err: core.WrapError(core.ErrCancelled, err)}}
					continue
				}
				bundle, err := p.cache.GetOrCompute(ctx, id, strategyID, policy,
					func(ctx context.Context, bars []core.PriceBar) (*Bundle, error) {
						return p.runner.RunSeries(ctx, id, strategyID, bars, policy)
					})
				if err != nil {
					results <- stockOutcome{id: id, res: StockResult{Err: asStockError(err)}}
					continue
				}
				results <- stockOutcome{id: id, res: StockResult{Bundle: bundle}}
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	close(results)

	perStock := make(map[string]StockResult, len(ids))
	var bundles []*Bundle
	var failed int
	for r := range results {
		perStock[r.id] = r.res
		if r.res.Bundle != nil {
			bundles = append(bundles, r.res.Bundle)
		} else {
			failed++
		}
	}

	report := &Report{
		ID:          uuid.NewString(),
		StrategyID:  strategyID,
		Policy:      policy,
		PerStock:    perStock,
		Aggregated:  Aggregate(bundles),
		GeneratedAt: time.Now().UTC(),
	}

	p.logger.Info("batch complete",
		zap.String("report", report.ID),
		zap.String("strategy", strategyID),
		zap.Int("stocks", len(ids)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	return report, nil
}

// asStockError maps an arbitrary failure to the per-stock error taxonomy.
func asStockError(err error) *core.Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.ErrCancelled, err)
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	return core.WrapError(core.ErrBacktestFailed, err)
}

// dedupe drops duplicate stock IDs preserving first occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
