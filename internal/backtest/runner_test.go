package backtest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/openquant/hindsight/internal/core"
)

func testPolicy() Policy {
	return Policy{SuccessThreshold: 0.20, FailureThreshold: -0.10, HorizonDays: 60}
}

func TestRunnerRun(t *testing.T) {
	provider := newFakeProvider()
	provider.series["600000"] = flatSeries(40, 10.0)

	source := &fakeSignalSource{signals: map[string][]core.Signal{
		"600000": {
			testSignal("600000", 20, 10.0, core.StageConfirmed),
			testSignal("600000", 5, 10.0, core.StageForming),
		},
	}}

	runner := NewRunner(provider, source)
	bundle, err := runner.Run(context.Background(), "600000", "test-strategy", testPolicy())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if bundle.StockID != "600000" || bundle.StrategyID != "test-strategy" {
		t.Errorf("bundle identity = (%s, %s)", bundle.StockID, bundle.StrategyID)
	}
	if bundle.Fingerprint == "" {
		t.Error("bundle missing fingerprint")
	}
	if len(bundle.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(bundle.Outcomes))
	}
	// Outcomes come back ordered by trigger date regardless of source order.
	if !bundle.Outcomes[0].Signal.TriggerDate.Before(bundle.Outcomes[1].Signal.TriggerDate) {
		t.Error("outcomes not ordered by trigger date")
	}
}

func TestRunnerNoSignals(t *testing.T) {
	provider := newFakeProvider()
	provider.series["600000"] = flatSeries(40, 10.0)

	runner := NewRunner(provider, &fakeSignalSource{})
	bundle, err := runner.Run(context.Background(), "600000", "test-strategy", testPolicy())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bundle.Outcomes) != 0 {
		t.Errorf("outcomes = %d, want 0", len(bundle.Outcomes))
	}
}

func TestRunnerProviderError(t *testing.T) {
	provider := newFakeProvider()
	provider.errs["600000"] = fmt.Errorf("connection refused")

	runner := NewRunner(provider, &fakeSignalSource{})
	_, err := runner.Run(context.Background(), "600000", "test-strategy", testPolicy())
	if !errors.Is(err, core.ErrDataUnavailable) {
		t.Errorf("err = %v, want DATA_UNAVAILABLE", err)
	}
}

func TestRunnerInsufficientHistory(t *testing.T) {
	provider := newFakeProvider()
	provider.series["600000"] = flatSeries(10, 10.0)

	runner := NewRunner(provider, &fakeSignalSource{})
	_, err := runner.Run(context.Background(), "600000", "test-strategy", testPolicy())
	if !errors.Is(err, core.ErrInsufficientHistory) {
		t.Errorf("err = %v, want INSUFFICIENT_HISTORY", err)
	}

	// A lower configured floor accepts the same series.
	runner = NewRunner(provider, &fakeSignalSource{}, WithMinHistoryBars(5))
	if _, err := runner.Run(context.Background(), "600000", "test-strategy", testPolicy()); err != nil {
		t.Errorf("Run with lower floor: %v", err)
	}
}

func TestRunnerStrategyError(t *testing.T) {
	provider := newFakeProvider()
	provider.series["600000"] = flatSeries(40, 10.0)

	source := &fakeSignalSource{err: fmt.Errorf("bad params")}
	runner := NewRunner(provider, source)
	_, err := runner.Run(context.Background(), "600000", "test-strategy", testPolicy())
	if !errors.Is(err, core.ErrStrategyFailed) {
		t.Errorf("err = %v, want STRATEGY_FAILED", err)
	}
}

func TestForwardBarsExcludeTriggerDate(t *testing.T) {
	bars := flatSeries(10, 10.0)
	forward := forwardBars(bars, bars[3].Date)
	if len(forward) != 6 {
		t.Fatalf("forward bars = %d, want 6", len(forward))
	}
	if !forward[0].Date.Equal(bars[4].Date) {
		t.Errorf("first forward bar = %v, want %v", forward[0].Date, bars[4].Date)
	}
}
