package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/service"
	"github.com/anc5557/ChartBeacon/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketDataHandler handles candle, indicator and summary HTTP requests
type MarketDataHandler struct {
	marketDataService *service.MarketDataService
	logger            *zap.Logger
}

// NewMarketDataHandler creates a new market data handler
func NewMarketDataHandler(marketDataService *service.MarketDataService, logger *zap.Logger) *MarketDataHandler {
	return &MarketDataHandler{
		marketDataService: marketDataService,
		logger:            logger,
	}
}

// timeframeQuery reads the timeframe query parameter with the 1d default
func timeframeQuery(c *gin.Context) string {
	return c.DefaultQuery("timeframe", model.Timeframe1d)
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" format, expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// sendLookupError maps service lookup failures to HTTP responses
func (h *MarketDataHandler) sendLookupError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, service.ErrSymbolNotFound):
		utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
	case errors.Is(err, service.ErrNoSummary):
		utils.SendErrorResponse(c, http.StatusNotFound, "No analysis data available yet")
	case errors.Is(err, service.ErrInvalidTimeframe):
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid timeframe")
	default:
		h.logger.Error("Failed to retrieve "+what, zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve "+what)
	}
}

// GetSummary handles retrieving the current technical summary
// GET /api/v1/summary/:ticker
func (h *MarketDataHandler) GetSummary(c *gin.Context) {
	summary, err := h.marketDataService.GetSummary(c.Request.Context(), c.Param("ticker"), timeframeQuery(c))
	if err != nil {
		h.sendLookupError(c, err, "summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetSummaryHistory handles retrieving historical summaries
// GET /api/v1/summary/:ticker/history
func (h *MarketDataHandler) GetSummaryHistory(c *gin.Context) {
	startDate, ok := parseDateQuery(c, "start_date")
	if !ok {
		return
	}
	endDate, ok := parseDateQuery(c, "end_date")
	if !ok {
		return
	}

	var limit *int
	if limitStr := c.Query("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = &v
	}

	order := utils.NormalizeSortDirection(c.DefaultQuery("order", "asc"))

	history, err := h.marketDataService.GetSummaryHistory(
		c.Request.Context(), c.Param("ticker"), timeframeQuery(c), startDate, endDate, limit, order)
	if err != nil {
		h.sendLookupError(c, err, "summary history")
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetCandles handles retrieving stored candles
// GET /api/v1/candles/:ticker
func (h *MarketDataHandler) GetCandles(c *gin.Context) {
	startDate, ok := parseDateQuery(c, "start_date")
	if !ok {
		return
	}
	endDate, ok := parseDateQuery(c, "end_date")
	if !ok {
		return
	}

	params := utils.ParsePaginationParams(c, 100, 1000)
	limit := params.Limit

	candles, err := h.marketDataService.GetCandles(
		c.Request.Context(), c.Param("ticker"), timeframeQuery(c), startDate, endDate, &limit)
	if err != nil {
		h.sendLookupError(c, err, "candles")
		return
	}

	c.JSON(http.StatusOK, candles)
}

// GetIndicators handles retrieving indicator rows. Without date bounds the
// latest row is returned; with bounds, the full range.
// GET /api/v1/indicators/:ticker
func (h *MarketDataHandler) GetIndicators(c *gin.Context) {
	startDate, ok := parseDateQuery(c, "start_date")
	if !ok {
		return
	}
	endDate, ok := parseDateQuery(c, "end_date")
	if !ok {
		return
	}

	if startDate == nil && endDate == nil {
		row, err := h.marketDataService.GetLatestIndicators(c.Request.Context(), c.Param("ticker"), timeframeQuery(c))
		if err != nil {
			h.sendLookupError(c, err, "indicators")
			return
		}
		if row == nil {
			utils.SendErrorResponse(c, http.StatusNotFound, "No indicators calculated yet")
			return
		}
		c.JSON(http.StatusOK, row)
		return
	}

	rows, err := h.marketDataService.GetIndicatorRange(
		c.Request.Context(), c.Param("ticker"), timeframeQuery(c), startDate, endDate)
	if err != nil {
		h.sendLookupError(c, err, "indicators")
		return
	}

	c.JSON(http.StatusOK, rows)
}

// GetMovingAverages handles retrieving moving average rows. Without date
// bounds the latest row is returned; with bounds, the full range.
// GET /api/v1/moving-averages/:ticker
func (h *MarketDataHandler) GetMovingAverages(c *gin.Context) {
	startDate, ok := parseDateQuery(c, "start_date")
	if !ok {
		return
	}
	endDate, ok := parseDateQuery(c, "end_date")
	if !ok {
		return
	}

	if startDate == nil && endDate == nil {
		row, err := h.marketDataService.GetLatestMovingAvgs(c.Request.Context(), c.Param("ticker"), timeframeQuery(c))
		if err != nil {
			h.sendLookupError(c, err, "moving averages")
			return
		}
		if row == nil {
			utils.SendErrorResponse(c, http.StatusNotFound, "No moving averages calculated yet")
			return
		}
		c.JSON(http.StatusOK, row)
		return
	}

	rows, err := h.marketDataService.GetMovingAvgRange(
		c.Request.Context(), c.Param("ticker"), timeframeQuery(c), startDate, endDate)
	if err != nil {
		h.sendLookupError(c, err, "moving averages")
		return
	}

	c.JSON(http.StatusOK, rows)
}

// GetTechnicalSignals handles retrieving the per-indicator vote breakdown
// GET /api/v1/technical-signals/:ticker
func (h *MarketDataHandler) GetTechnicalSignals(c *gin.Context) {
	signals, err := h.marketDataService.GetTechnicalSignals(c.Request.Context(), c.Param("ticker"), timeframeQuery(c))
	if err != nil {
		h.sendLookupError(c, err, "technical signals")
		return
	}

	c.JSON(http.StatusOK, signals)
}
