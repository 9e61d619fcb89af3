package core

import "time"

// FormationStage describes how mature a pattern was when its signal fired.
type FormationStage string

const (
	StageForming   FormationStage = "forming"
	StageConfirmed FormationStage = "confirmed"
	StageLate      FormationStage = "late_confirmed"
)

// PriceBar is a single daily OHLCV bar. Series are ordered by date with no
// duplicate dates; a calendar gap is a non-trading day, not missing data.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IsValid checks if the bar has the required fields.
func (b PriceBar) IsValid() bool {
	return !b.Date.IsZero() && b.Close > 0
}

// Signal is a strategy's historical claim that a stock met its entry
// condition on a given date. At most one signal exists per
// (stock, strategy, date). Signals are read-only once created.
type Signal struct {
	StockID      string         `json:"stock_id"`
	StrategyID   string         `json:"strategy_id"`
	TriggerDate  time.Time      `json:"trigger_date"`
	TriggerPrice float64        `json:"trigger_price"`
	Stage        FormationStage `json:"stage"`
}
