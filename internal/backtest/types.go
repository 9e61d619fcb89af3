package backtest

import (
	"time"

	"github.com/openquant/hindsight/internal/core"
)

// TerminalState is the resolved outcome of a signal.
type TerminalState string

const (
	StateSuccess TerminalState = "success"
	StateFail    TerminalState = "fail"
	StatePending TerminalState = "pending"
)

// Outcome records how a single signal played out. Immutable once computed;
// re-running a backtest produces a new value, never an in-place update.
type Outcome struct {
	Signal       core.Signal   `json:"signal"`
	State        TerminalState `json:"state"`
	MaxFavorable float64       `json:"max_favorable_pct"`
	MaxAdverse   float64       `json:"max_adverse_pct"`
	DaysToPeak   *int          `json:"days_to_peak,omitempty"`
	ExitDate     *time.Time    `json:"exit_date,omitempty"`
}

// IsResolved returns true if the outcome reached a terminal win or loss.
func (o Outcome) IsResolved() bool {
	return o.State == StateSuccess || o.State == StateFail
}

// Bundle is the complete backtest result for one stock under one strategy.
// Outcomes are ordered by ascending trigger date.
type Bundle struct {
	StockID     string    `json:"stock_id"`
	StrategyID  string    `json:"strategy_id"`
	Fingerprint string    `json:"fingerprint"`
	Outcomes    []Outcome `json:"outcomes"`
	ComputedAt  time.Time `json:"computed_at"`
}

// StateStats aggregates outcomes sharing a formation stage.
type StateStats struct {
	Stage           core.FormationStage `json:"stage"`
	Count           int                 `json:"count"`
	Resolved        int                 `json:"resolved"`
	WinRate         float64             `json:"win_rate"`
	InsufficientRes bool                `json:"insufficient_resolved"`
	AvgMaxFavorable float64             `json:"avg_max_favorable_pct"`
	AvgMaxAdverse   float64             `json:"avg_max_adverse_pct"`
	AvgDaysToPeak   float64             `json:"avg_days_to_peak"`
}

// StockResult holds either a bundle or the typed error that prevented it.
type StockResult struct {
	Bundle *Bundle     `json:"bundle,omitempty"`
	Err    *core.Error `json:"error,omitempty"`
}

// Report is the batch output handed to persistence/reporting. Every
// requested stock appears in PerStock, either with a bundle or an error.
type Report struct {
	ID          string                             `json:"id"`
	StrategyID  string                             `json:"strategy_id"`
	Policy      Policy                             `json:"policy"`
	PerStock    map[string]StockResult             `json:"per_stock"`
	Aggregated  map[core.FormationStage]StateStats `json:"aggregated"`
	GeneratedAt time.Time                          `json:"generated_at"`
}

// Bundles returns the successful bundles in the report.
func (r *Report) Bundles() []*Bundle {
	out := make([]*Bundle, 0, len(r.PerStock))
	for _, res := range r.PerStock {
		if res.Bundle != nil {
			out = append(out, res.Bundle)
		}
	}
	return out
}
