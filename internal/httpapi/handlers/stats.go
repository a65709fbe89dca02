package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/dialog-bot/internal/common"
	"github.com/suPer8Hu/dialog-bot/internal/httpapi/middleware"
	"github.com/suPer8Hu/dialog-bot/internal/stats"
	"go.uber.org/zap"
)

func (h *Handler) GetStats(c *gin.Context) {
	period := c.DefaultQuery("period", stats.PeriodDay)

	resp, err := h.Stats.Get(c.Request.Context(), period)
	if err != nil {
		if errors.Is(err, stats.ErrInvalidPeriod) {
			common.Fail(c, http.StatusBadRequest, 10002, err.Error())
			return
		}
		h.Log.Error("stats_error", zap.String("period", period), zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to collect stats")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dashboard-api"})
}
