package mcp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"binance-market-mcp/internal/domain"
)

const (
	klineWindowSize   = 5
	historyWindowSize = 10
)

// Formatting is a pure function of the parsed inputs: identical data always
// renders identical text.

func formatPriceText(snap *domain.MarketSnapshot) string {
	return fmt.Sprintf("Current price for %s: $%s", snap.Symbol, formatAmount(snap.Price))
}

func formatTickerText(stats *domain.TickerStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "24hr Ticker for %s:\n\n", stats.Symbol)
	fmt.Fprintf(&b, "Current Price: $%s\n", formatAmount(stats.LastPrice))
	fmt.Fprintf(&b, "24h Change: %s (%s)\n", formatSignedAmount(stats.PriceChange), formatSignedPercent(stats.PriceChangePercent))
	fmt.Fprintf(&b, "24h High: $%s\n", formatAmount(stats.HighPrice))
	fmt.Fprintf(&b, "24h Low: $%s\n", formatAmount(stats.LowPrice))
	fmt.Fprintf(&b, "24h Volume: %s %s\n", formatAmount(stats.Volume), domain.BaseAssetLabel(stats.Symbol))
	fmt.Fprintf(&b, "24h Quote Volume: $%s", formatAmount(stats.QuoteVolume))
	return b.String()
}

func formatKlineText(symbol, interval string, candles []*domain.Candle) string {
	latest := candles[len(candles)-1]
	window := trailing(candles, klineWindowSize)

	var b strings.Builder
	fmt.Fprintf(&b, "Kline data for %s (%s):\n\n", symbol, interval)
	b.WriteString("Latest candle:\n")
	fmt.Fprintf(&b, "Time: %s\n", isoTime(latest.OpenTime))
	fmt.Fprintf(&b, "Open: $%s\n", formatAmount(latest.Open))
	fmt.Fprintf(&b, "High: $%s\n", formatAmount(latest.High))
	fmt.Fprintf(&b, "Low: $%s\n", formatAmount(latest.Low))
	fmt.Fprintf(&b, "Close: $%s\n", formatAmount(latest.Close))
	fmt.Fprintf(&b, "Volume: %s\n", formatAmount(latest.Volume))

	fmt.Fprintf(&b, "\nRecent %d candles:\n", len(window))
	for _, c := range window {
		fmt.Fprintf(&b, "%s: O $%s H $%s L $%s C $%s V %s\n",
			isoTime(c.OpenTime),
			formatAmount(c.Open), formatAmount(c.High), formatAmount(c.Low),
			formatAmount(c.Close), formatAmount(c.Volume))
	}

	fmt.Fprintf(&b, "\nTotal candles returned: %d", len(candles))
	return b.String()
}

// historyPoint is one candle annotated with its 1-based period index and the
// period-over-period close change. The first period has no prior candle, so
// its change is 0.
type historyPoint struct {
	Period    int
	Candle    *domain.Candle
	ChangePct float64
}

func buildHistory(candles []*domain.Candle) []historyPoint {
	points := make([]historyPoint, len(candles))
	for i, c := range candles {
		change := 0.0
		if i > 0 {
			prev := candles[i-1].Close
			change = (c.Close - prev) / prev * 100
		}
		points[i] = historyPoint{Period: i + 1, Candle: c, ChangePct: change}
	}
	return points
}

func formatHistoryText(symbol, interval string, candles []*domain.Candle) string {
	points := buildHistory(candles)
	first := candles[0]
	last := candles[len(candles)-1]
	totalChange := (last.Close - first.Open) / first.Open * 100

	highest := first.High
	lowest := first.Low
	for _, c := range candles[1:] {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Price history for %s (%s):\n\n", symbol, interval)
	fmt.Fprintf(&b, "Date range: %s to %s\n", dateOf(first.OpenTime), dateOf(last.OpenTime))
	fmt.Fprintf(&b, "Starting price: $%s\n", formatAmount(first.Open))
	fmt.Fprintf(&b, "Current price: $%s\n", formatAmount(last.Close))
	fmt.Fprintf(&b, "Total change: %s\n", formatSignedPercent(totalChange))
	fmt.Fprintf(&b, "Highest price: $%s\n", formatAmount(highest))
	fmt.Fprintf(&b, "Lowest price: $%s\n", formatAmount(lowest))

	window := points
	if len(window) > historyWindowSize {
		window = window[len(window)-historyWindowSize:]
	}
	fmt.Fprintf(&b, "\nRecent %d periods:\n", len(window))
	for _, p := range window {
		fmt.Fprintf(&b, "%s %s: $%s (%s)\n",
			dateOf(p.Candle.OpenTime), timeOf(p.Candle.OpenTime),
			formatAmount(p.Candle.Close), formatSignedPercent(p.ChangePct))
	}

	return strings.TrimRight(b.String(), "\n")
}

func trailing(candles []*domain.Candle, n int) []*domain.Candle {
	if len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatAmount renders a number with thousands separators on the integer
// part, preserving the shortest decimal representation: 65000.5 -> 65,000.5.
func formatAmount(v float64) string {
	return groupThousands(formatDecimal(v))
}

func formatSignedAmount(v float64) string {
	if v >= 0 {
		return "+" + formatAmount(v)
	}
	return formatAmount(v)
}

func formatSignedPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func dateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func timeOf(t time.Time) string {
	return t.UTC().Format("15:04")
}
