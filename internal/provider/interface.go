// Package provider supplies historical price series to the backtesting
// engine. Implementations are read-only from the engine's perspective.
package provider

import (
	"context"

	"github.com/openquant/hindsight/internal/core"
)

// Provider supplies ordered-by-date daily bars per stock.
type Provider interface {
	// GetPriceSeries returns the full ordered series for a stock, or
	// core.ErrSymbolNotFound when no data exists for it.
	GetPriceSeries(ctx context.Context, stockID string) ([]core.PriceBar, error)

	// ListSymbols returns all stock IDs with at least one bar.
	ListSymbols(ctx context.Context) ([]string, error)
}
