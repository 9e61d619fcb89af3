package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openquant/hindsight/internal/core"
)

func bar(day int, close float64) core.PriceBar {
	return core.PriceBar{
		Date:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Close: close,
	}
}

func TestMemoryProvider(t *testing.T) {
	p := NewMemory()
	ctx := context.Background()

	// Series set out of order come back date-ordered.
	p.SetSeries("600000", []core.PriceBar{bar(2, 10.5), bar(0, 10.0), bar(1, 10.2)})

	bars, err := p.GetPriceSeries(ctx, "600000")
	if err != nil {
		t.Fatalf("GetPriceSeries: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("bars = %d, want 3", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Date.Before(bars[i].Date) {
			t.Fatal("series not date-ordered")
		}
	}

	p.Append("600000", bar(3, 10.8))
	bars, _ = p.GetPriceSeries(ctx, "600000")
	if len(bars) != 4 || bars[3].Close != 10.8 {
		t.Errorf("append not reflected: %v", bars)
	}
}

func TestMemoryProviderUnknownSymbol(t *testing.T) {
	p := NewMemory()
	_, err := p.GetPriceSeries(context.Background(), "nope")
	if !errors.Is(err, core.ErrSymbolNotFound) {
		t.Errorf("err = %v, want SYMBOL_NOT_FOUND", err)
	}
}

func TestMemoryProviderListSymbols(t *testing.T) {
	p := NewMemory()
	p.SetSeries("B", []core.PriceBar{bar(0, 1)})
	p.SetSeries("A", []core.PriceBar{bar(0, 1)})

	symbols, err := p.ListSymbols(context.Background())
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "A" || symbols[1] != "B" {
		t.Errorf("symbols = %v, want [A B]", symbols)
	}
}
