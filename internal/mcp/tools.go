package mcp

import (
	"context"
	"fmt"

	"binance-market-mcp/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	toolGetCurrentPrice = "get_current_price"
	tool24hrTicker      = "get_24hr_ticker"
	toolKlineData       = "get_kline_data"
	toolPriceHistory    = "get_price_history"
)

func toolNames() []string {
	return []string{toolGetCurrentPrice, tool24hrTicker, toolKlineData, toolPriceHistory}
}

// Handlers return plain errors on failure; the gateway middleware in
// server.go renders them as "Error: ..." text results.
func registerTools(server *sdkmcp.Server, market MarketReader) {
	server.AddTool(&sdkmcp.Tool{
		Name:        toolGetCurrentPrice,
		Description: "Get the current price for a cryptocurrency trading pair (e.g., BTCUSDT)",
		InputSchema: priceInputSchema(),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var in priceArgs
		if err := decodeArgs(req.Params.Arguments, &in); err != nil {
			return nil, err
		}
		snap, err := market.GetPrice(ctx, in.Symbol)
		if err != nil {
			return nil, fmt.Errorf("Failed to fetch current price: %s", err)
		}
		return textResult(formatPriceText(snap)), nil
	})

	server.AddTool(&sdkmcp.Tool{
		Name:        tool24hrTicker,
		Description: "Get 24-hour price change statistics for a trading pair",
		InputSchema: priceInputSchema(),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var in priceArgs
		if err := decodeArgs(req.Params.Arguments, &in); err != nil {
			return nil, err
		}
		stats, err := market.GetTicker(ctx, in.Symbol)
		if err != nil {
			return nil, fmt.Errorf("Failed to fetch 24hr ticker data: %s", err)
		}
		return textResult(formatTickerText(stats)), nil
	})

	server.AddTool(&sdkmcp.Tool{
		Name:        toolKlineData,
		Description: "Get candlestick (kline) data for a trading pair at a given interval",
		InputSchema: klineInputSchema("Number of candles to return (default 100, max 1000)"),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var in klineArgs
		if err := decodeArgs(req.Params.Arguments, &in); err != nil {
			return nil, err
		}
		candles, err := market.GetKlines(ctx, in.Symbol, in.Interval, effectiveLimit(in.Limit, domain.DefaultKlineLimit))
		if err != nil {
			return nil, fmt.Errorf("Failed to fetch kline data: %s", err)
		}
		if len(candles) == 0 {
			return nil, fmt.Errorf("Failed to fetch kline data: No kline data received")
		}
		symbol := candleSymbol(in.Symbol)
		return textResult(formatKlineText(symbol, in.Interval, candles)), nil
	})

	server.AddTool(&sdkmcp.Tool{
		Name:        toolPriceHistory,
		Description: "Get a historical price trend summary for a trading pair",
		InputSchema: klineInputSchema("Number of periods to analyze (default 24, max 1000)"),
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var in klineArgs
		if err := decodeArgs(req.Params.Arguments, &in); err != nil {
			return nil, err
		}
		candles, err := market.GetKlines(ctx, in.Symbol, in.Interval, effectiveLimit(in.Limit, domain.DefaultHistoryLimit))
		if err != nil {
			return nil, fmt.Errorf("Failed to fetch price history: %s", err)
		}
		if len(candles) == 0 {
			return nil, fmt.Errorf("Failed to fetch price history: No historical data received")
		}
		symbol := candleSymbol(in.Symbol)
		return textResult(formatHistoryText(symbol, in.Interval, candles)), nil
	})
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}
