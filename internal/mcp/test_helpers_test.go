package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"binance-market-mcp/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubMarket struct {
	snapshot *domain.MarketSnapshot
	stats    *domain.TickerStats
	candles  []*domain.Candle
	err      error

	lastSymbol   string
	lastInterval string
	lastLimit    int
}

func (s *stubMarket) GetPrice(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	s.lastSymbol = strings.ToUpper(strings.TrimSpace(symbol))
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func (s *stubMarket) GetTicker(ctx context.Context, symbol string) (*domain.TickerStats, error) {
	s.lastSymbol = strings.ToUpper(strings.TrimSpace(symbol))
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func (s *stubMarket) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	s.lastSymbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.lastInterval = interval
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

// twoCandleSeries matches the worked example in the history math tests:
// total change 10.00%, period-2 change 4.76%.
func twoCandleSeries() []*domain.Candle {
	return []*domain.Candle{
		{OpenTime: time.UnixMilli(0).UTC(), Open: 100, High: 110, Low: 90, Close: 105, Volume: 10},
		{OpenTime: time.UnixMilli(60000).UTC(), Open: 105, High: 115, Low: 95, Close: 110, Volume: 12},
	}
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	params := &sdkmcp.CallToolParams{Name: name}
	if args != nil {
		params.Arguments = args
	}
	res, err := session.CallTool(ctx, params)
	if err != nil {
		t.Fatalf("call %s failed at transport level: %v", name, err)
	}
	return resultTextOf(t, res)
}

func resultTextOf(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("expected text content in result")
	}
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func mustSession(t *testing.T, market MarketReader) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	srv := NewServer(nil, market, ServerConfig{RequestTimeout: time.Second})
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		shutdown()
	})
	return session
}
