package handler

import (
	"errors"
	"net/http"

	"github.com/anc5557/ChartBeacon/internal/model"
	"github.com/anc5557/ChartBeacon/internal/service"
	"github.com/anc5557/ChartBeacon/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SymbolHandler handles symbol HTTP requests
type SymbolHandler struct {
	symbolService *service.SymbolService
	logger        *zap.Logger
}

// NewSymbolHandler creates a new symbol handler
func NewSymbolHandler(symbolService *service.SymbolService, logger *zap.Logger) *SymbolHandler {
	return &SymbolHandler{
		symbolService: symbolService,
		logger:        logger,
	}
}

// GetAllSymbols handles retrieving all symbols
// GET /api/v1/symbols
func (h *SymbolHandler) GetAllSymbols(c *gin.Context) {
	if c.Query("active") == "true" {
		symbols, err := h.symbolService.GetActiveSymbols(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to get active symbols", zap.Error(err))
			utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve symbols")
			return
		}
		c.JSON(http.StatusOK, symbols)
		return
	}

	symbols, err := h.symbolService.GetAllSymbols(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get all symbols", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve symbols")
		return
	}

	c.JSON(http.StatusOK, symbols)
}

// GetSymbol handles retrieving a symbol by ticker
// GET /api/v1/symbols/:ticker
func (h *SymbolHandler) GetSymbol(c *gin.Context) {
	ticker := c.Param("ticker")

	symbol, err := h.symbolService.GetSymbol(c.Request.Context(), ticker)
	if err != nil {
		if errors.Is(err, service.ErrSymbolNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
			return
		}
		h.logger.Error("Failed to get symbol", zap.Error(err), zap.String("ticker", ticker))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve symbol")
		return
	}

	c.JSON(http.StatusOK, symbol)
}

// CreateSymbol handles registering a new symbol
// POST /api/v1/symbols
func (h *SymbolHandler) CreateSymbol(c *gin.Context) {
	var symbol model.Symbol
	if err := c.ShouldBindJSON(&symbol); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.symbolService.CreateSymbol(c.Request.Context(), &symbol)
	if err != nil {
		if errors.Is(err, service.ErrSymbolExists) {
			utils.SendErrorResponse(c, http.StatusConflict, "Symbol already exists")
			return
		}
		h.logger.Error("Failed to create symbol", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create symbol: "+err.Error())
		return
	}

	symbol.ID = id

	c.JSON(http.StatusCreated, symbol)
}

// ActivateSymbol handles enabling scheduled tracking for a symbol
// POST /api/v1/symbols/:ticker/activate
func (h *SymbolHandler) ActivateSymbol(c *gin.Context) {
	h.setActive(c, true)
}

// DeactivateSymbol handles disabling scheduled tracking for a symbol
// POST /api/v1/symbols/:ticker/deactivate
func (h *SymbolHandler) DeactivateSymbol(c *gin.Context) {
	h.setActive(c, false)
}

func (h *SymbolHandler) setActive(c *gin.Context, active bool) {
	ticker := c.Param("ticker")

	if err := h.symbolService.SetActive(c.Request.Context(), ticker, active); err != nil {
		if errors.Is(err, service.ErrSymbolNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
			return
		}
		h.logger.Error("Failed to update symbol", zap.Error(err), zap.String("ticker", ticker))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to update symbol")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticker": service.NormalizeTicker(ticker), "active": active})
}

// DeleteSymbol handles removing a symbol and its data
// DELETE /api/v1/symbols/:ticker
func (h *SymbolHandler) DeleteSymbol(c *gin.Context) {
	ticker := c.Param("ticker")

	if err := h.symbolService.DeleteSymbol(c.Request.Context(), ticker); err != nil {
		if errors.Is(err, service.ErrSymbolNotFound) {
			utils.SendErrorResponse(c, http.StatusNotFound, "Symbol not found")
			return
		}
		h.logger.Error("Failed to delete symbol", zap.Error(err), zap.String("ticker", ticker))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete symbol")
		return
	}

	c.Status(http.StatusNoContent)
}
