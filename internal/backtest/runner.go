package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/core"
)

// DefaultMinHistoryBars is the minimum viable series length for a backtest.
// A brand-new listing with fewer bars cannot be judged meaningfully.
const DefaultMinHistoryBars = 30

// PriceProvider supplies ordered-by-date price history for a stock. The
// returned slice is borrowed read-only; the runner never mutates it.
type PriceProvider interface {
	GetPriceSeries(ctx context.Context, stockID string) ([]core.PriceBar, error)
}

// SignalSource supplies the historical signals a strategy produced for a
// stock. The bars are the same series the backtest runs against.
type SignalSource interface {
	GetSignals(stockID, strategyID string, bars []core.PriceBar) ([]core.Signal, error)
}

// Runner drives the outcome classifier over every signal found for one
// stock within one strategy. It is a pure read-and-compute component;
// persistence belongs to the caller.
type Runner struct {
	provider PriceProvider
	signals  SignalSource
	minBars  int
	logger   *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMinHistoryBars overrides the minimum viable series length.
func WithMinHistoryBars(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.minBars = n
		}
	}
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a per-stock backtest runner.
func NewRunner(provider PriceProvider, signals SignalSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		provider: provider,
		signals:  signals,
		minBars:  DefaultMinHistoryBars,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run fetches the stock's price series and backtests every signal the
// strategy produced for it. Fetching the series is the unit of work's sole
// blocking operation; everything after it is in-memory compute.
func (r *Runner) Run(ctx context.Context, stockID, strategyID string, policy Policy) (*Bundle, error) {
	bars, err := r.provider.GetPriceSeries(ctx, stockID)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	return r.RunSeries(ctx, stockID, strategyID, bars, policy)
}

// RunSeries backtests every signal against an already-fetched series.
// Outcomes are ordered by ascending trigger date for reproducible reports.
func (r *Runner) RunSeries(ctx context.Context, stockID, strategyID string, bars []core.PriceBar, policy Policy) (*Bundle, error) {
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("empty price series for %s", stockID))
	}
	if len(bars) < r.minBars {
		return nil, core.WrapError(core.ErrInsufficientHistory,
			fmt.Errorf("%s has %d bars, need at least %d", stockID, len(bars), r.minBars))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sigs, err := r.signals.GetSignals(stockID, strategyID, bars)
	if err != nil {
		return nil, core.WrapError(core.ErrStrategyFailed, err)
	}

	sort.SliceStable(sigs, func(i, j int) bool {
		return sigs[i].TriggerDate.Before(sigs[j].TriggerDate)
	})

	outcomes := make([]Outcome, 0, len(sigs))
	for _, sig := range sigs {
		outcomes = append(outcomes, Classify(sig, forwardBars(bars, sig.TriggerDate), policy))
	}

	r.logger.Debug("backtest complete",
		zap.String("stock", stockID),
		zap.String("strategy", strategyID),
		zap.Int("signals", len(outcomes)),
	)

	return &Bundle{
		StockID:     stockID,
		StrategyID:  strategyID,
		Fingerprint: Fingerprint(bars),
		Outcomes:    outcomes,
		ComputedAt:  time.Now().UTC(),
	}, nil
}

// forwardBars returns the bars strictly after the trigger date.
func forwardBars(bars []core.PriceBar, trigger time.Time) []core.PriceBar {
	i := sort.Search(len(bars), func(i int) bool {
		return bars[i].Date.After(trigger)
	})
	return bars[i:]
}
