package mcp

import (
	"context"

	"binance-market-mcp/internal/domain"
)

// MarketReader exposes the market-data read operations backing the tools.
type MarketReader interface {
	GetPrice(ctx context.Context, symbol string) (*domain.MarketSnapshot, error)
	GetTicker(ctx context.Context, symbol string) (*domain.TickerStats, error)
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}
