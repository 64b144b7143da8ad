package handler

import (
	"binance-market-mcp/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer        trace.Tracer
	marketService *service.MarketService
}

func New(tracer trace.Tracer, marketService *service.MarketService) *Handler {
	return &Handler{
		tracer:        tracer,
		marketService: marketService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/price/:symbol", h.GetPrice)
	r.GET("/api/ticker/:symbol", h.GetTicker)
	r.GET("/api/klines/:symbol", h.GetKlines)
}
