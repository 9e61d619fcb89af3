// Package stagebreak implements a consolidation-breakout evaluator. A
// signal fires when the close breaks above a tight trading range while
// the stock trades above its trend average. The breakout margin decides
// the formation stage: a marginal poke above the range is still forming,
// a clear break is confirmed, and a stretched break is late.
package stagebreak

import (
	"fmt"
	"math"

	"github.com/openquant/hindsight/internal/core"
	"github.com/openquant/hindsight/internal/indicator"
	"github.com/openquant/hindsight/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Evaluator = (*Strategy)(nil)

const (
	defaultLookback    = 20
	defaultBand        = 0.08
	defaultTrendPeriod = 50
	defaultCooldown    = 10

	confirmedMargin = 0.01
	lateMargin      = 0.03
)

// Strategy detects range breakouts with formation staging.
type Strategy struct {
	lookback    int
	band        float64
	trendPeriod int
	cooldown    int
}

// New creates a stagebreak evaluator with default parameters.
func New() *Strategy {
	return &Strategy{
		lookback:    defaultLookback,
		band:        defaultBand,
		trendPeriod: defaultTrendPeriod,
		cooldown:    defaultCooldown,
	}
}

// Name returns the strategy identifier.
func (s *Strategy) Name() string {
	return "stagebreak"
}

// Description returns a human-readable summary.
func (s *Strategy) Description() string {
	return "Breakout from a tight consolidation range above the trend average"
}

// MinBars returns the shortest usable series length.
func (s *Strategy) MinBars() int {
	if s.trendPeriod > s.lookback {
		return s.trendPeriod + 1
	}
	return s.lookback + 1
}

// Init applies configured parameters.
func (s *Strategy) Init(cfg strategy.Config) error {
	if v, ok := intParam(cfg.Params, "lookback"); ok {
		if v < 2 {
			return fmt.Errorf("lookback must be at least 2, got %d", v)
		}
		s.lookback = v
	}
	if v, ok := floatParam(cfg.Params, "band"); ok {
		if v <= 0 {
			return fmt.Errorf("band must be positive, got %g", v)
		}
		s.band = v
	}
	if v, ok := intParam(cfg.Params, "trend_period"); ok {
		if v < 2 {
			return fmt.Errorf("trend_period must be at least 2, got %d", v)
		}
		s.trendPeriod = v
	}
	if v, ok := intParam(cfg.Params, "cooldown"); ok {
		if v < 0 {
			return fmt.Errorf("cooldown cannot be negative, got %d", v)
		}
		s.cooldown = v
	}
	return nil
}

// Evaluate scans the series for breakout signals.
func (s *Strategy) Evaluate(stockID string, bars []core.PriceBar) ([]core.Signal, error) {
	if len(bars) < s.MinBars() {
		return nil, nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	trend := indicator.SMA(closes, s.trendPeriod)

	start := s.lookback
	if s.trendPeriod > start {
		start = s.trendPeriod
	}

	var signals []core.Signal
	lastFired := -1
	for i := start; i < len(bars); i++ {
		if lastFired >= 0 && i-lastFired < s.cooldown {
			continue
		}

		hi, lo := rangeBounds(closes[i-s.lookback : i])
		if lo <= 0 {
			continue
		}
		if (hi-lo)/lo > s.band {
			continue // Range too wide to call it a consolidation.
		}
		if closes[i] <= hi {
			continue
		}
		if math.IsNaN(trend[i]) || closes[i] <= trend[i] {
			continue
		}

		signals = append(signals, core.Signal{
			StockID:      stockID,
			StrategyID:   s.Name(),
			TriggerDate:  bars[i].Date,
			TriggerPrice: closes[i],
			Stage:        stageFor(closes[i]/hi - 1),
		})
		lastFired = i
	}
	return signals, nil
}

// stageFor maps a breakout margin to a formation stage.
func stageFor(margin float64) core.FormationStage {
	switch {
	case margin < confirmedMargin:
		return core.StageForming
	case margin < lateMargin:
		return core.StageConfirmed
	default:
		return core.StageLate
	}
}

// rangeBounds returns the high and low of a close window.
func rangeBounds(window []float64) (hi, lo float64) {
	hi, lo = window[0], window[0]
	for _, v := range window[1:] {
		if v > hi {
			hi = v
		}
		if v < lo {
			lo = v
		}
	}
	return hi, lo
}

func intParam(params map[string]any, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func floatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
