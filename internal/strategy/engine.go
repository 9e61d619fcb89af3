package strategy

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/core"
)

// Engine manages registered evaluators and answers the engine-facing
// get-signals capability.
type Engine struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
	logger     *zap.Logger
}

// NewEngine creates a new evaluator registry.
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		evaluators: make(map[string]Evaluator),
		logger:     l,
	}
}

// Register adds an evaluator to the engine.
func (e *Engine) Register(ev Evaluator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evaluators[ev.Name()] = ev
}

// Get retrieves an evaluator by name.
func (e *Engine) Get(name string) (Evaluator, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ev, ok := e.evaluators[name]
	return ev, ok
}

// GetAll returns all registered evaluators sorted by name.
func (e *Engine) GetAll() []Evaluator {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Evaluator, 0, len(e.evaluators))
	for _, ev := range e.evaluators {
		result = append(result, ev)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// GetSignals evaluates one strategy over a stock's series. It satisfies
// the backtest engine's SignalSource interface. Signals come back ordered
// by trigger date with stock and strategy IDs filled in.
func (e *Engine) GetSignals(stockID, strategyID string, bars []core.PriceBar) ([]core.Signal, error) {
	ev, ok := e.Get(strategyID)
	if !ok {
		return nil, core.WrapError(core.ErrStrategyNotFound,
			fmt.Errorf("strategy %q", strategyID))
	}
	if len(bars) < ev.MinBars() {
		// Not an error: the strategy simply never fired on a series this
		// short.
		return nil, nil
	}

	signals, err := ev.Evaluate(stockID, bars)
	if err != nil {
		e.logger.Warn("strategy evaluation failed",
			zap.String("strategy", strategyID),
			zap.String("stock", stockID),
			zap.Error(err),
		)
		return nil, err
	}

	for i := range signals {
		signals[i].StockID = stockID
		signals[i].StrategyID = strategyID
	}
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].TriggerDate.Before(signals[j].TriggerDate)
	})
	return signals, nil
}
