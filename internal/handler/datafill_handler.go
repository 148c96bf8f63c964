package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/service"
	"github.com/anc5557/ChartBeacon/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DataFillHandler handles data ingestion HTTP requests
type DataFillHandler struct {
	dataFillService *service.DataFillService
	logger          *zap.Logger
}

// NewDataFillHandler creates a new data fill handler
func NewDataFillHandler(dataFillService *service.DataFillService, logger *zap.Logger) *DataFillHandler {
	return &DataFillHandler{
		dataFillService: dataFillService,
		logger:          logger,
	}
}

// StartFill handles launching a background fill job
// POST /api/v1/fill-data/:ticker
func (h *DataFillHandler) StartFill(c *gin.Context) {
	ticker := c.Param("ticker")

	var req model.FillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	jobID, err := h.dataFillService.StartFill(c.Request.Context(), ticker, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSymbolNotFound):
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
		case errors.Is(err, service.ErrInvalidTimeframe):
			utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrFillInProgress):
			utils.SendErrorResponse(c, http.StatusConflict, "A fill job is already in progress for this symbol")
		default:
			h.logger.Error("Failed to start fill job", zap.Error(err), zap.String("ticker", ticker))
			utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to start fill job")
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"ticker": service.NormalizeTicker(ticker),
		"status": model.FillStatusPending,
	})
}

// StartFillAll handles launching fill jobs for every active symbol
// POST /api/v1/fill-data/all
func (h *DataFillHandler) StartFillAll(c *gin.Context) {
	var req model.FillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	started, err := h.dataFillService.StartFillAll(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTimeframe) {
			utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to start fill jobs", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to start fill jobs")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobs":   started,
		"status": model.FillStatusPending,
	})
}

// GetFillStatus handles retrieving the latest fill job for a ticker
// GET /api/v1/fill-data/:ticker/status
func (h *DataFillHandler) GetFillStatus(c *gin.Context) {
	ticker := c.Param("ticker")

	job, err := h.dataFillService.GetStatus(c.Request.Context(), ticker)
	if err != nil {
		if errors.Is(err, service.ErrSymbolNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "No fill job found for symbol")
			return
		}
		h.logger.Error("Failed to get fill status", zap.Error(err), zap.String("ticker", ticker))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve fill status")
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetFillJob handles retrieving one fill job by the ID a fill start returned
// GET /api/v1/fill-data/jobs/:id
func (h *DataFillHandler) GetFillJob(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.dataFillService.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrFillJobNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Fill job not found")
			return
		}
		h.logger.Error("Failed to get fill job", zap.Error(err), zap.Int("job_id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve fill job")
		return
	}

	c.JSON(http.StatusOK, job)
}

// Replenish handles refilling stale data for all active symbols. The scan
// runs in the background; the call returns immediately.
// POST /api/v1/data-replenish
func (h *DataFillHandler) Replenish(c *gin.Context) {
	go func() {
		refilled, err := h.dataFillService.Replenish(context.Background())
		if err != nil {
			h.logger.Error("Replenish run failed", zap.Error(err))
			return
		}
		h.logger.Info("Replenish run finished", zap.Int("symbols", len(refilled)))
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "replenish started"})
}

// GetSufficiency handles evaluating candle coverage for a ticker
// GET /api/v1/data-sufficiency/:ticker
func (h *DataFillHandler) GetSufficiency(c *gin.Context) {
	ticker := c.Param("ticker")

	sufficiency, err := h.dataFillService.GetSufficiency(c.Request.Context(), ticker)
	if err != nil {
		if errors.Is(err, service.ErrSymbolNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
			return
		}
		h.logger.Error("Failed to get data sufficiency", zap.Error(err), zap.String("ticker", ticker))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to evaluate data sufficiency")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":     service.NormalizeTicker(ticker),
		"timeframes": sufficiency,
	})
}

// ResetData handles deleting stored data for a ticker
// POST /api/v1/reset-data/:ticker
func (h *DataFillHandler) ResetData(c *gin.Context) {
	ticker := c.Param("ticker")

	var timeframe *string
	if tf := c.Query("timeframe"); tf != "" {
		timeframe = &tf
	}

	deleted, err := h.dataFillService.ResetData(c.Request.Context(), ticker, timeframe)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSymbolNotFound):
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
		case errors.Is(err, service.ErrInvalidTimeframe):
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid timeframe")
		default:
			h.logger.Error("Failed to reset data", zap.Error(err), zap.String("ticker", ticker))
			utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to reset data")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker":          service.NormalizeTicker(ticker),
		"deleted_candles": deleted,
	})
}
