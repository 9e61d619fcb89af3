package strategy

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openquant/hindsight/internal/core"
)

// stubEvaluator returns canned signals.
type stubEvaluator struct {
	name    string
	minBars int
	signals []core.Signal
	err     error
}

func (s *stubEvaluator) Name() string        { return s.name }
func (s *stubEvaluator) Description() string { return "stub" }
func (s *stubEvaluator) MinBars() int        { return s.minBars }
func (s *stubEvaluator) Init(Config) error   { return nil }
func (s *stubEvaluator) Evaluate(string, []core.PriceBar) ([]core.Signal, error) {
	return s.signals, s.err
}

func bars(n int) []core.PriceBar {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]core.PriceBar, n)
	for i := range out {
		out[i] = core.PriceBar{Date: base.AddDate(0, 0, i), Close: 10}
	}
	return out
}

func TestEngineRegisterAndGet(t *testing.T) {
	engine := NewEngine()
	engine.Register(&stubEvaluator{name: "beta"})
	engine.Register(&stubEvaluator{name: "alpha"})

	if _, ok := engine.Get("alpha"); !ok {
		t.Error("alpha not found after register")
	}
	if _, ok := engine.Get("missing"); ok {
		t.Error("found evaluator that was never registered")
	}

	all := engine.GetAll()
	if len(all) != 2 || all[0].Name() != "alpha" || all[1].Name() != "beta" {
		t.Errorf("GetAll order wrong: %v", names(all))
	}
}

func names(evs []Evaluator) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Name()
	}
	return out
}

func TestEngineGetSignals(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	engine := NewEngine()
	engine.Register(&stubEvaluator{
		name:    "stub",
		minBars: 5,
		signals: []core.Signal{
			{TriggerDate: base.AddDate(0, 0, 9), TriggerPrice: 11, Stage: core.StageConfirmed},
			{TriggerDate: base.AddDate(0, 0, 3), TriggerPrice: 10, Stage: core.StageForming},
		},
	})

	signals, err := engine.GetSignals("600000", "stub", bars(10))
	if err != nil {
		t.Fatalf("GetSignals: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("signals = %d, want 2", len(signals))
	}
	for _, sig := range signals {
		if sig.StockID != "600000" || sig.StrategyID != "stub" {
			t.Errorf("signal identity not filled in: %+v", sig)
		}
	}
	if !signals[0].TriggerDate.Before(signals[1].TriggerDate) {
		t.Error("signals not ordered by trigger date")
	}
}

func TestEngineGetSignalsNotFound(t *testing.T) {
	engine := NewEngine()
	_, err := engine.GetSignals("600000", "nope", bars(10))
	if !errors.Is(err, core.ErrStrategyNotFound) {
		t.Errorf("err = %v, want STRATEGY_NOT_FOUND", err)
	}
}

func TestEngineGetSignalsShortSeries(t *testing.T) {
	engine := NewEngine()
	engine.Register(&stubEvaluator{name: "stub", minBars: 50})

	signals, err := engine.GetSignals("600000", "stub", bars(10))
	if err != nil {
		t.Fatalf("short series should not error: %v", err)
	}
	if signals != nil {
		t.Errorf("signals = %v, want nil on short series", signals)
	}
}

func TestEngineGetSignalsEvaluatorError(t *testing.T) {
	engine := NewEngine()
	engine.Register(&stubEvaluator{name: "stub", minBars: 1, err: fmt.Errorf("boom")})

	if _, err := engine.GetSignals("600000", "stub", bars(10)); err == nil {
		t.Error("expected evaluator error to propagate")
	}
}
