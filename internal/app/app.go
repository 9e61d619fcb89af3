// Package app wires the engine together: price provider, strategy
// registry, result cache, worker pool, report archive, and metrics.
// Construct one App per process and inject it into the CLI, the API, and
// the cron schedule.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/backtest"
	"github.com/openquant/hindsight/internal/config"
	"github.com/openquant/hindsight/internal/core"
	"github.com/openquant/hindsight/internal/metrics"
	"github.com/openquant/hindsight/internal/provider"
	"github.com/openquant/hindsight/internal/storage/archive"
	"github.com/openquant/hindsight/internal/strategy"
	"github.com/openquant/hindsight/internal/strategy/stagebreak"
)

// App is the process-wide container for the backtesting engine.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *metrics.Registry
	prices   provider.Provider
	engine   *strategy.Engine
	cache    *backtest.Cache
	pool     *backtest.Pool
	reports  *archive.ReportArchive

	mu         sync.Mutex
	prevHits   int64
	prevMisses int64
	closers    []func() error
}

// New builds the full engine from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		registry: metrics.NewRegistry(),
	}

	sqlite, err := provider.NewSQLite(cfg.Provider.Path)
	if err != nil {
		return nil, fmt.Errorf("opening bar database: %w", err)
	}
	a.prices = sqlite
	a.closers = append(a.closers, sqlite.Close)

	a.engine = strategy.NewEngine(logger)
	if err := a.registerStrategies(); err != nil {
		a.Close()
		return nil, err
	}

	runner := backtest.NewRunner(a.prices, a.engine,
		backtest.WithMinHistoryBars(cfg.Backtest.MinHistoryBars),
		backtest.WithRunnerLogger(logger),
	)
	a.cache = backtest.NewCache(a.prices,
		backtest.WithMaxEntries(cfg.Cache.MaxEntries),
		backtest.WithCacheLogger(logger),
	)

	poolOpts := []backtest.PoolOption{backtest.WithPoolLogger(logger)}
	if cfg.Backtest.Workers > 0 {
		poolOpts = append(poolOpts, backtest.WithWorkers(cfg.Backtest.Workers))
	}
	a.pool = backtest.NewPool(runner, a.cache, poolOpts...)

	store, err := newArchiveStore(cfg.Archive)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening report archive: %w", err)
	}
	a.reports = archive.NewReportArchive(store)

	return a, nil
}

// registerStrategies wires the shipped evaluators with their configured
// parameters.
func (a *App) registerStrategies() error {
	for _, ev := range []strategy.Evaluator{stagebreak.New()} {
		sc, configured := a.cfg.Strategies[ev.Name()]
		if configured && !sc.Enabled {
			a.logger.Info("strategy disabled", zap.String("strategy", ev.Name()))
			continue
		}
		if configured {
			if err := ev.Init(strategy.Config{Enabled: true, Params: sc.Params}); err != nil {
				return core.WrapError(core.ErrConfigInvalid,
					fmt.Errorf("strategy %s: %w", ev.Name(), err))
			}
		}
		a.engine.Register(ev)
	}
	return nil
}

func newArchiveStore(cfg config.Archive) (archive.Store, error) {
	switch cfg.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Path)
	}
}

// Engine returns the strategy registry.
func (a *App) Engine() *strategy.Engine {
	return a.engine
}

// Provider returns the price provider.
func (a *App) Provider() provider.Provider {
	return a.prices
}

// Metrics returns the metrics registry.
func (a *App) Metrics() *metrics.Registry {
	return a.registry
}

// Reports returns the report archive.
func (a *App) Reports() *archive.ReportArchive {
	return a.reports
}

// Policy returns the configured default backtest policy.
func (a *App) Policy() backtest.Policy {
	return a.cfg.Policy()
}

// RunScan backtests the given universe under one strategy and archives
// the resulting report. An empty symbol list falls back to the configured
// scan universe, then to every symbol the provider knows.
func (a *App) RunScan(ctx context.Context, strategyID string, symbols []string, policy backtest.Policy) (*backtest.Report, string, error) {
	if strategyID == "" {
		strategyID = a.cfg.Scan.Strategy
	}
	if _, ok := a.engine.Get(strategyID); !ok {
		return nil, "", core.WrapError(core.ErrStrategyNotFound,
			fmt.Errorf("strategy %q", strategyID))
	}

	if len(symbols) == 0 {
		symbols = a.cfg.Scan.Symbols
	}
	if len(symbols) == 0 {
		var err error
		symbols, err = a.prices.ListSymbols(ctx)
		if err != nil {
			return nil, "", err
		}
	}
	if len(symbols) == 0 {
		return nil, "", core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("scan universe is empty"))
	}

	start := time.Now()
	report, err := a.pool.RunBatch(ctx, symbols, strategyID, policy)
	if err != nil {
		return nil, "", err
	}
	a.observe(report, len(symbols), time.Since(start))

	path, err := a.reports.Save(ctx, report)
	if err != nil {
		// The scan itself succeeded; surface the archive failure but keep
		// the report usable.
		a.logger.Error("archiving report failed", zap.Error(err))
		return report, "", err
	}

	a.logger.Info("report archived",
		zap.String("report", report.ID),
		zap.String("path", path),
	)
	return report, path, nil
}

// observe updates engine metrics after a batch.
func (a *App) observe(report *backtest.Report, universe int, elapsed time.Duration) {
	for _, res := range report.PerStock {
		switch {
		case res.Bundle != nil:
			a.registry.RecordBacktest("ok")
			for _, o := range res.Bundle.Outcomes {
				a.registry.RecordOutcome(string(o.Signal.Stage), string(o.State))
			}
		case res.Err != nil:
			a.registry.RecordBacktest(res.Err.Code)
		}
	}

	hits, misses, _ := a.cache.Stats()
	a.mu.Lock()
	dh, dm := hits-a.prevHits, misses-a.prevMisses
	a.prevHits, a.prevMisses = hits, misses
	a.mu.Unlock()
	a.registry.RecordCache(float64(dh), float64(dm))
	a.registry.RecordScan(universe, elapsed.Seconds())
}

// Close releases the app's resources.
func (a *App) Close() error {
	var firstErr error
	for _, fn := range a.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
