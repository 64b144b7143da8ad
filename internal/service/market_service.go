package service

import (
	"context"
	"fmt"
	"strings"

	"binance-market-mcp/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MarketProvider is the outbound exchange surface consumed by MarketService.
type MarketProvider interface {
	TickerPrice(ctx context.Context, symbol string) (*domain.MarketSnapshot, error)
	Ticker24h(ctx context.Context, symbol string) (*domain.TickerStats, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

// MarketService normalizes and validates query parameters before delegating
// to the exchange provider. It holds no mutable state.
type MarketService struct {
	tracer   trace.Tracer
	provider MarketProvider
}

func NewMarketService(tracer trace.Tracer, provider MarketProvider) *MarketService {
	return &MarketService{tracer: tracer, provider: provider}
}

func (s *MarketService) GetPrice(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-price")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	return s.provider.TickerPrice(ctx, symbol)
}

func (s *MarketService) GetTicker(ctx context.Context, symbol string) (*domain.TickerStats, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-ticker")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("symbol", symbol))

	return s.provider.Ticker24h(ctx, symbol)
}

func (s *MarketService) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-klines")
	defer span.End()

	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	interval = strings.TrimSpace(interval)
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if !domain.IsSupportedInterval(interval) {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}

	limit = domain.ClampCandleLimit(limit)
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	)

	return s.provider.Klines(ctx, symbol, interval, limit)
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	return symbol, nil
}
