package domain

import "time"

// SupportedIntervals lists the kline interval widths accepted by the
// exchange, narrowest first.
var SupportedIntervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

func IsSupportedInterval(interval string) bool {
	for _, supported := range SupportedIntervals {
		if interval == supported {
			return true
		}
	}
	return false
}

const (
	MinCandleLimit = 1
	MaxCandleLimit = 1000

	DefaultKlineLimit   = 100
	DefaultHistoryLimit = 24
)

// ClampCandleLimit forces a requested candle count into [MinCandleLimit, MaxCandleLimit].
func ClampCandleLimit(limit int) int {
	if limit < MinCandleLimit {
		return MinCandleLimit
	}
	if limit > MaxCandleLimit {
		return MaxCandleLimit
	}
	return limit
}

// MarketSnapshot is the latest traded price for one symbol.
type MarketSnapshot struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// TickerStats is the rolling 24-hour statistics window for one symbol.
type TickerStats struct {
	Symbol             string  `json:"symbol"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
	LastPrice          float64 `json:"last_price"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quote_volume"`
}

// Candle is one OHLCV interval bucket.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// quoteSuffixes are the quote currencies stripped when deriving a base-asset
// label from a pair symbol. Symbols quoted in anything else (EUR, TRY, ...)
// are left as-is.
var quoteSuffixes = []string{"USDT", "BUSD", "BTC", "ETH"}

// BaseAssetLabel derives a display label for the base asset of a pair,
// e.g. BTCUSDT -> BTC. Lossy for quote assets outside quoteSuffixes.
func BaseAssetLabel(symbol string) string {
	for _, quote := range quoteSuffixes {
		if len(symbol) > len(quote) && symbol[len(symbol)-len(quote):] == quote {
			return symbol[:len(symbol)-len(quote)]
		}
	}
	return symbol
}
