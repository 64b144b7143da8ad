package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"binance-market-mcp/internal/domain"

	"github.com/google/jsonschema-go/jsonschema"
)

type priceArgs struct {
	Symbol string `json:"symbol"`
}

type klineArgs struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Limit    int    `json:"limit,omitempty"`
}

// argumentsMissing reports whether an invocation carried no arguments at all.
// Received arguments arrive as raw JSON and the protocol layer normalizes an
// absent arguments field to an empty object, so nil, null, and {} all count
// as missing. In-process callers may pass Go values instead.
func argumentsMissing(args any) bool {
	switch v := args.(type) {
	case nil:
		return true
	case json.RawMessage:
		trimmed := strings.TrimSpace(string(v))
		if trimmed == "" || trimmed == "null" {
			return true
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(v, &fields); err != nil {
			return false
		}
		return len(fields) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func decodeArgs(args any, out any) error {
	raw, ok := args.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("invalid arguments: %v", err)
		}
		raw = b
	}
	if argumentsMissing(raw) {
		return fmt.Errorf("Missing arguments")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid arguments: %v", err)
	}
	return nil
}

// candleSymbol upper-cases a pair symbol for display. Kline rows carry no
// symbol, so the formatter derives it from the request.
func candleSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// effectiveLimit applies the per-tool default when limit is absent or falsy,
// then clamps to the allowed range.
func effectiveLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	return domain.ClampCandleLimit(limit)
}

func symbolSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Trading pair symbol (e.g., BTCUSDT, ETHUSDT)",
	}
}

func intervalSchema() *jsonschema.Schema {
	enum := make([]any, len(domain.SupportedIntervals))
	for i, interval := range domain.SupportedIntervals {
		enum[i] = interval
	}
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Kline interval",
		Enum:        enum,
	}
}

func limitSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: description,
		Minimum:     schemaNumber(domain.MinCandleLimit),
		Maximum:     schemaNumber(domain.MaxCandleLimit),
	}
}

func priceInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"symbol": symbolSchema(),
		},
		Required: []string{"symbol"},
	}
}

func klineInputSchema(limitDescription string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"symbol":   symbolSchema(),
			"interval": intervalSchema(),
			"limit":    limitSchema(limitDescription),
		},
		Required: []string{"symbol", "interval"},
	}
}

func schemaNumber(v float64) *float64 {
	return &v
}
