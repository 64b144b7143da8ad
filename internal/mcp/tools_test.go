package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"binance-market-mcp/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestListToolsReturnsExactlyFour(t *testing.T) {
	session := mustSession(t, &stubMarket{})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	if len(res.Tools) != 4 {
		t.Fatalf("expected exactly 4 tools, got %d", len(res.Tools))
	}

	got := make(map[string]bool, len(res.Tools))
	for _, tool := range res.Tools {
		got[tool.Name] = true
		if tool.Description == "" {
			t.Fatalf("tool %s has no description", tool.Name)
		}
		if tool.InputSchema == nil {
			t.Fatalf("tool %s has no input schema", tool.Name)
		}
	}
	for _, name := range []string{"get_current_price", "get_24hr_ticker", "get_kline_data", "get_price_history"} {
		if !got[name] {
			t.Fatalf("missing tool %s, got %v", name, got)
		}
	}
}

func TestUnknownToolReturnsErrorText(t *testing.T) {
	session := mustSession(t, &stubMarket{})

	text := callTool(t, session, "get_moon_phase", map[string]any{"symbol": "BTCUSDT"})
	if text != "Error: Unknown tool: get_moon_phase" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestMissingArgumentsReturnsErrorText(t *testing.T) {
	// the stub would happily answer, so any reply other than the error text
	// means the guard let an empty invocation through
	session := mustSession(t, &stubMarket{snapshot: &domain.MarketSnapshot{Symbol: "BTCUSDT", Price: 1}})

	// omitted arguments are normalized to an empty object on the wire, so
	// both shapes must be rejected
	for _, args := range []map[string]any{nil, {}} {
		text := callTool(t, session, "get_current_price", args)
		if text != "Error: Missing arguments" {
			t.Fatalf("args %v: unexpected text: %q", args, text)
		}
	}
}

type panickyMarket struct{ *stubMarket }

func (panickyMarket) GetPrice(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	panic("price backend unavailable")
}

func TestHandlerPanicBecomesErrorText(t *testing.T) {
	session := mustSession(t, panickyMarket{&stubMarket{stats: &domain.TickerStats{Symbol: "BTCUSDT"}}})

	text := callTool(t, session, "get_current_price", map[string]any{"symbol": "BTCUSDT"})
	if !strings.HasPrefix(text, "Error:") {
		t.Fatalf("expected error text, got %q", text)
	}
	if !strings.Contains(text, "price backend unavailable") {
		t.Fatalf("expected panic value in error text, got %q", text)
	}

	// the session must keep serving after a panicking invocation
	text = callTool(t, session, "get_24hr_ticker", map[string]any{"symbol": "BTCUSDT"})
	if !strings.Contains(text, "24hr Ticker for BTCUSDT:") {
		t.Fatalf("expected a normal reply after the panic, got %q", text)
	}
}

func TestNilSnapshotReturnsErrorText(t *testing.T) {
	// a provider that yields neither snapshot nor error must not take the
	// server down; the reply is an error text like any other failure
	session := mustSession(t, &stubMarket{})

	text := callTool(t, session, "get_current_price", map[string]any{"symbol": "BTCUSDT"})
	if !strings.HasPrefix(text, "Error:") {
		t.Fatalf("expected error text, got %q", text)
	}
}

func TestGetCurrentPriceFormatsAndNormalizes(t *testing.T) {
	market := &stubMarket{snapshot: &domain.MarketSnapshot{Symbol: "BTCUSDT", Price: 65000.5}}
	session := mustSession(t, market)

	text := callTool(t, session, "get_current_price", map[string]any{"symbol": "btcusdt"})
	if !strings.Contains(text, "Current price for BTCUSDT: $65,000.5") {
		t.Fatalf("unexpected text: %q", text)
	}
	if market.lastSymbol != "BTCUSDT" {
		t.Fatalf("expected upper-cased symbol, got %s", market.lastSymbol)
	}
}

func TestGetCurrentPriceWrapsProviderFailure(t *testing.T) {
	market := &stubMarket{err: errors.New("Invalid symbol.")}
	session := mustSession(t, market)

	text := callTool(t, session, "get_current_price", map[string]any{"symbol": "NOPE"})
	if text != "Error: Failed to fetch current price: Invalid symbol." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestGet24hrTickerText(t *testing.T) {
	market := &stubMarket{stats: &domain.TickerStats{
		Symbol:             "BTCUSDT",
		PriceChange:        1200.5,
		PriceChangePercent: 1.88,
		LastPrice:          65000.5,
		HighPrice:          66000,
		LowPrice:           63500,
		Volume:             12345.67,
		QuoteVolume:        789012345.6,
	}}
	session := mustSession(t, market)

	text := callTool(t, session, "get_24hr_ticker", map[string]any{"symbol": "BTCUSDT"})
	for _, want := range []string{
		"24hr Ticker for BTCUSDT:",
		"Current Price: $65,000.5",
		"24h Change: +1,200.5 (+1.88%)",
		"24h High: $66,000",
		"24h Low: $63,500",
		"24h Volume: 12,345.67 BTC",
		"24h Quote Volume: $789,012,345.6",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
}

func TestGetKlineDataEmptySeries(t *testing.T) {
	market := &stubMarket{candles: nil}
	session := mustSession(t, market)

	text := callTool(t, session, "get_kline_data", map[string]any{"symbol": "BTCUSDT", "interval": "1h"})
	if text != "Error: Failed to fetch kline data: No kline data received" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestGetKlineDataText(t *testing.T) {
	market := &stubMarket{candles: twoCandleSeries()}
	session := mustSession(t, market)

	text := callTool(t, session, "get_kline_data", map[string]any{"symbol": "btcusdt", "interval": "1m", "limit": 2})
	for _, want := range []string{
		"Kline data for BTCUSDT (1m):",
		"Time: 1970-01-01T00:01:00.000Z",
		"Open: $105",
		"High: $115",
		"Low: $95",
		"Close: $110",
		"Volume: 12",
		"Total candles returned: 2",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}

	// trailing window lists oldest first
	first := strings.Index(text, "1970-01-01T00:00:00.000Z: O $100")
	second := strings.Index(text, "1970-01-01T00:01:00.000Z: O $105")
	if first == -1 || second == -1 || first > second {
		t.Fatalf("window out of order:\n%s", text)
	}
}

func TestGetPriceHistoryMath(t *testing.T) {
	market := &stubMarket{candles: twoCandleSeries()}
	session := mustSession(t, market)

	text := callTool(t, session, "get_price_history", map[string]any{"symbol": "BTCUSDT", "interval": "1m", "limit": 2})
	for _, want := range []string{
		"Price history for BTCUSDT (1m):",
		"Starting price: $100",
		"Current price: $110",
		"Total change: +10.00%",
		"Highest price: $115",
		"Lowest price: $90",
		"(+0.00%)",  // first period has no prior candle
		"(+4.76%)",  // (110-105)/105*100
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in:\n%s", want, text)
		}
	}
}

func TestGetPriceHistoryEmptySeries(t *testing.T) {
	session := mustSession(t, &stubMarket{})

	text := callTool(t, session, "get_price_history", map[string]any{"symbol": "BTCUSDT", "interval": "1d"})
	if text != "Error: Failed to fetch price history: No historical data received" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestLimitDefaults(t *testing.T) {
	market := &stubMarket{candles: twoCandleSeries()}
	session := mustSession(t, market)

	callTool(t, session, "get_kline_data", map[string]any{"symbol": "BTCUSDT", "interval": "1h"})
	if market.lastLimit != domain.DefaultKlineLimit {
		t.Fatalf("expected kline default limit %d, got %d", domain.DefaultKlineLimit, market.lastLimit)
	}

	callTool(t, session, "get_price_history", map[string]any{"symbol": "BTCUSDT", "interval": "1h"})
	if market.lastLimit != domain.DefaultHistoryLimit {
		t.Fatalf("expected history default limit %d, got %d", domain.DefaultHistoryLimit, market.lastLimit)
	}

	// zero counts as falsy and takes the default too
	callTool(t, session, "get_kline_data", map[string]any{"symbol": "BTCUSDT", "interval": "1h", "limit": 0})
	if market.lastLimit != domain.DefaultKlineLimit {
		t.Fatalf("expected kline default limit for limit=0, got %d", market.lastLimit)
	}
}

func TestRepeatedInvocationsAreByteIdentical(t *testing.T) {
	market := &stubMarket{candles: twoCandleSeries()}
	session := mustSession(t, market)

	args := map[string]any{"symbol": "BTCUSDT", "interval": "1m", "limit": 2}
	first := callTool(t, session, "get_price_history", args)
	second := callTool(t, session, "get_price_history", args)
	if first != second {
		t.Fatalf("expected identical output, got:\n%s\n---\n%s", first, second)
	}
}
