package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openquant/hindsight/internal/core"
)

// Compile-time interface check.
var _ Provider = (*MemoryProvider)(nil)

// MemoryProvider is an in-memory price store. Useful for tests and for
// embedding the engine without a database.
type MemoryProvider struct {
	mu     sync.RWMutex
	series map[string][]core.PriceBar
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *MemoryProvider {
	return &MemoryProvider{series: make(map[string][]core.PriceBar)}
}

// SetSeries replaces the series for a symbol, keeping it date-ordered.
func (m *MemoryProvider) SetSeries(stockID string, bars []core.PriceBar) {
	sorted := make([]core.PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[stockID] = sorted
}

// Append adds one bar to the end of a symbol's series.
func (m *MemoryProvider) Append(stockID string, bar core.PriceBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[stockID] = append(m.series[stockID], bar)
}

// GetPriceSeries returns a copy-free read-only view of the series.
func (m *MemoryProvider) GetPriceSeries(ctx context.Context, stockID string) ([]core.PriceBar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bars, ok := m.series[stockID]
	if !ok || len(bars) == 0 {
		return nil, core.WrapError(core.ErrSymbolNotFound,
			fmt.Errorf("no bars for %s", stockID))
	}
	return bars, nil
}

// ListSymbols returns all known symbols in sorted order.
func (m *MemoryProvider) ListSymbols(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	symbols := make([]string, 0, len(m.series))
	for s := range m.series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols, nil
}
