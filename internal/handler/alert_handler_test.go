package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anc5557/ChartBeacon/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestGetAlertsRejectsBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := service.NewAlertService(nil, nil, nil, zap.NewNop())
	h := NewAlertHandler(svc, zap.NewNop())

	router := gin.New()
	router.GET("/api/v1/alerts/:ticker", h.GetAlerts)

	for _, limit := range []string{"abc", "0", "-5", "501"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/AAPL?limit="+limit, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit %q: status = %d, want 400", limit, w.Code)
		}
	}
}
