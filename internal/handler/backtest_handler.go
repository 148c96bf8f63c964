package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/service"
	"github.com/anc5557/ChartBeacon/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BacktestHandler handles backtest HTTP requests
type BacktestHandler struct {
	backtestService *service.BacktestService
	logger          *zap.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(backtestService *service.BacktestService, logger *zap.Logger) *BacktestHandler {
	return &BacktestHandler{
		backtestService: backtestService,
		logger:          logger,
	}
}

func (h *BacktestHandler) sendRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSymbolNotFound):
		utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
	case errors.Is(err, service.ErrNoBacktestData):
		utils.SendErrorResponse(c, http.StatusNotFound, "No data in requested range")
	case errors.Is(err, service.ErrInvalidTimeframe):
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid timeframe")
	case strings.Contains(err.Error(), "unknown strategy"),
		strings.Contains(err.Error(), "invalid start_date"),
		strings.Contains(err.Error(), "invalid end_date"),
		strings.Contains(err.Error(), "end_date must not precede"),
		strings.Contains(err.Error(), "initial capital"):
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Backtest failed", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Backtest failed")
	}
}

// RunBacktest handles running one backtest
// POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req model.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.backtestService.Run(c.Request.Context(), &req)
	if err != nil {
		h.sendRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompareBacktests handles running several strategies over one series
// POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req model.BacktestCompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.backtestService.Compare(c.Request.Context(), &req)
	if err != nil {
		h.sendRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":  service.NormalizeTicker(req.Ticker),
		"results": results,
	})
}

// GetStrategies handles listing the selectable strategies
// GET /api/v1/backtest/strategies
func (h *BacktestHandler) GetStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": h.backtestService.Strategies()})
}
