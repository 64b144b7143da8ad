package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"binance-market-mcp/internal/binance"
	"binance-market-mcp/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Health godoc
// @Summary      Health check
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetPrice godoc
// @Summary      Get current price for a trading pair
// @Produce      json
// @Param        symbol  path  string  true  "Trading pair symbol (e.g., BTCUSDT)"
// @Success      200  {object}  domain.MarketSnapshot
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/price/{symbol} [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	snapshot, err := h.marketService.GetPrice(ctx, symbol)
	if err != nil {
		writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetTicker godoc
// @Summary      Get 24hr ticker statistics for a trading pair
// @Produce      json
// @Param        symbol  path  string  true  "Trading pair symbol (e.g., BTCUSDT)"
// @Success      200  {object}  domain.TickerStats
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/ticker/{symbol} [get]
func (h *Handler) GetTicker(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-ticker")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	stats, err := h.marketService.GetTicker(ctx, symbol)
	if err != nil {
		writeMarketError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetKlines godoc
// @Summary      Get candlestick data for a trading pair
// @Produce      json
// @Param        symbol    path   string  true   "Trading pair symbol (e.g., BTCUSDT)"
// @Param        interval  query  string  true   "Kline interval (1m..1M)"
// @Param        limit     query  int     false  "Number of candles (default 100, max 1000)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/klines/{symbol} [get]
func (h *Handler) GetKlines(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-klines")
	defer span.End()

	symbol := strings.TrimSpace(c.Param("symbol"))
	interval := strings.TrimSpace(c.Query("interval"))
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
	)

	if !domain.IsSupportedInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}

	limit := domain.DefaultKlineLimit
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < domain.MinCandleLimit || n > domain.MaxCandleLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}

	candles, err := h.marketService.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		writeMarketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":   strings.ToUpper(symbol),
		"interval": interval,
		"candles":  candles,
	})
}

// writeMarketError maps exchange rejections to 400 and everything else
// (network, decode) to 502.
func writeMarketError(c *gin.Context, err error) {
	var apiErr *binance.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErr.Error()})
		return
	}
	if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "unsupported") {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
