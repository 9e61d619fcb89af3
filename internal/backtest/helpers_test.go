package backtest

import (
	"context"
	"sync"
	"time"

	"github.com/openquant/hindsight/internal/core"
)

var testBase = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// barSeries builds a daily series of consecutive dates from testBase with
// the given closes. Open/high/low mirror close; volume is constant.
func barSeries(closes ...float64) []core.PriceBar {
	bars := make([]core.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = core.PriceBar{
			Date:   testBase.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

// flatSeries builds n bars all at the same close.
func flatSeries(n int, px float64) []core.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = px
	}
	return barSeries(closes...)
}

func testSignal(stockID string, dayOffset int, price float64, stage core.FormationStage) core.Signal {
	return core.Signal{
		StockID:      stockID,
		StrategyID:   "test-strategy",
		TriggerDate:  testBase.AddDate(0, 0, dayOffset),
		TriggerPrice: price,
		Stage:        stage,
	}
}

// fakeProvider serves canned series and counts fetches.
type fakeProvider struct {
	mu      sync.Mutex
	series  map[string][]core.PriceBar
	errs    map[string]error
	fetches int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		series: make(map[string][]core.PriceBar),
		errs:   make(map[string]error),
	}
}

func (p *fakeProvider) GetPriceSeries(_ context.Context, stockID string) ([]core.PriceBar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	if err, ok := p.errs[stockID]; ok {
		return nil, err
	}
	bars, ok := p.series[stockID]
	if !ok {
		return nil, core.WrapError(core.ErrSymbolNotFound, nil)
	}
	return bars, nil
}

// fakeSignalSource returns canned signals per stock.
type fakeSignalSource struct {
	signals map[string][]core.Signal
	err     error
}

func (s *fakeSignalSource) GetSignals(stockID, strategyID string, _ []core.PriceBar) ([]core.Signal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.signals[stockID], nil
}
