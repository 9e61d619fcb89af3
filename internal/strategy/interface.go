package strategy

import (
	"github.com/openquant/hindsight/internal/core"
)

// Config holds evaluator configuration.
type Config struct {
	Enabled bool
	Params  map[string]any
}

// Evaluator detects the historical entry signals one strategy produced
// for a stock. The backtesting engine is strategy-agnostic: it depends
// only on this capability, never on an evaluator's internals.
type Evaluator interface {
	Name() string
	Description() string

	// MinBars is the shortest series the evaluator can work with.
	MinBars() int

	// Init applies configuration before first use.
	Init(cfg Config) error

	// Evaluate scans a full date-ordered series and returns every signal
	// the strategy would have fired, each tagged with its formation
	// stage. Evaluate must be deterministic for a given series.
	Evaluate(stockID string, bars []core.PriceBar) ([]core.Signal, error)
}
