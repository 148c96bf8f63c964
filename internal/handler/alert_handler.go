package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anc5557/ChartBeacon/internal/service"
	"github.com/anc5557/ChartBeacon/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AlertHandler handles alert history HTTP requests
type AlertHandler struct {
	alertService *service.AlertService
	logger       *zap.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService *service.AlertService, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// GetAlerts handles retrieving recently dispatched level-change alerts
// GET /api/v1/alerts/:ticker
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	ticker := c.Param("ticker")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 500 {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid limit")
		return
	}

	alerts, err := h.alertService.GetRecent(c.Request.Context(), ticker, limit)
	if err != nil {
		if errors.Is(err, service.ErrSymbolNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
			return
		}
		h.logger.Error("Failed to get alerts", zap.Error(err), zap.String("ticker", ticker))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker": service.NormalizeTicker(ticker),
		"alerts": alerts,
	})
}
