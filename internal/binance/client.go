package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"binance-market-mcp/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public Binance spot REST API.
const DefaultBaseURL = "https://api.binance.com/api/v3"

const defaultHTTPTimeout = 10 * time.Second

// ErrMalformedCandle marks kline rows that do not match the documented wire
// shape (at least six elements: ms open time followed by five decimal strings).
var ErrMalformedCandle = errors.New("malformed candle data")

// APIError is a non-2xx reply from the exchange.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("binance api returned status %d", e.StatusCode)
}

// Client talks to the Binance spot REST API. It holds no mutable state
// beyond the HTTP client, so concurrent calls are safe.
type Client struct {
	tracer     trace.Tracer
	baseURL    string
	httpClient *http.Client
}

func NewClient(tracer trace.Tracer, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		tracer:     tracer,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type priceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type tickerResponse struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	LastPrice          string `json:"lastPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}

// TickerPrice fetches the latest traded price for a symbol.
func (c *Client) TickerPrice(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "binance.ticker-price")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	var resp priceResponse
	if err := c.getJSON(ctx, "/ticker/price", url.Values{"symbol": {symbol}}, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}

	price, err := parseDecimal("price", resp.Price)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &domain.MarketSnapshot{Symbol: resp.Symbol, Price: price}, nil
}

// Ticker24h fetches the rolling 24-hour statistics for a symbol.
func (c *Client) Ticker24h(ctx context.Context, symbol string) (*domain.TickerStats, error) {
	ctx, span := c.tracer.Start(ctx, "binance.ticker-24hr")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	var resp tickerResponse
	if err := c.getJSON(ctx, "/ticker/24hr", url.Values{"symbol": {symbol}}, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}

	stats := &domain.TickerStats{Symbol: resp.Symbol}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"priceChange", resp.PriceChange, &stats.PriceChange},
		{"priceChangePercent", resp.PriceChangePercent, &stats.PriceChangePercent},
		{"lastPrice", resp.LastPrice, &stats.LastPrice},
		{"highPrice", resp.HighPrice, &stats.HighPrice},
		{"lowPrice", resp.LowPrice, &stats.LowPrice},
		{"volume", resp.Volume, &stats.Volume},
		{"quoteVolume", resp.QuoteVolume, &stats.QuoteVolume},
	}
	for _, f := range fields {
		v, err := parseDecimal(f.name, f.raw)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		*f.dst = v
	}
	return stats, nil
}

// Klines fetches up to limit candles for a symbol at the given interval,
// ordered by open time ascending.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "binance.klines")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	)

	params := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}

	var rows [][]json.RawMessage
	if err := c.getJSON(ctx, "/klines", params, &rows); err != nil {
		span.RecordError(err)
		return nil, err
	}

	candles := make([]*domain.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := decodeCandle(i, row)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// decodeCandle validates and decodes one positional kline row. The exchange
// appends extra elements (close time, quote volume, trade count, ...) that
// are ignored here.
func decodeCandle(index int, row []json.RawMessage) (*domain.Candle, error) {
	if len(row) < 6 {
		return nil, fmt.Errorf("candle %d has %d fields, want at least 6: %w", index, len(row), ErrMalformedCandle)
	}

	var openTimeMs int64
	if err := json.Unmarshal(row[0], &openTimeMs); err != nil {
		return nil, fmt.Errorf("candle %d open time is not an integer: %w", index, ErrMalformedCandle)
	}

	names := []string{"open", "high", "low", "close", "volume"}
	values := make([]float64, len(names))
	for i, name := range names {
		var raw string
		if err := json.Unmarshal(row[i+1], &raw); err != nil {
			return nil, fmt.Errorf("candle %d %s is not a string: %w", index, name, ErrMalformedCandle)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("candle %d %s %q is not numeric: %w", index, name, raw, ErrMalformedCandle)
		}
		values[i] = v
	}

	return &domain.Candle{
		OpenTime: time.UnixMilli(openTimeMs).UTC(),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Msg
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func parseDecimal(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return v, nil
}
