package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"max.ks1230/finance-tracker/internal/logger"
	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/period"
)

const defaultChartOption = "This Month"

func (s *Server) handleDashboard(c *gin.Context) {
	tfParam := c.DefaultQuery("timeframe", string(period.TimeframeMonth))
	tf, err := period.Parse(tfParam)
	if err != nil {
		respondError(c, &customerr.ValidationError{Field: "timeframe", Reason: "unknown timeframe"})
		return
	}

	dashboard, err := s.finance.Dashboard(c.Request.Context(), currentUserID(c), tf, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (s *Server) handleChartData(c *gin.Context) {
	s.serveCachedChart(c, chartEndpoint, func(c *gin.Context, tf period.Timeframe) (interface{}, error) {
		return s.finance.ChartTrend(c.Request.Context(), currentUserID(c), tf, time.Now())
	})
}

func (s *Server) handleCategoryData(c *gin.Context) {
	s.serveCachedChart(c, categoryEndpoint, func(c *gin.Context, tf period.Timeframe) (interface{}, error) {
		return s.finance.CategorySpending(c.Request.Context(), currentUserID(c), tf, time.Now())
	})
}

func (s *Server) serveCachedChart(
	c *gin.Context,
	endpoint string,
	load func(*gin.Context, period.Timeframe) (interface{}, error),
) {
	option := c.DefaultQuery("timeframe", defaultChartOption)
	tf, err := period.ParseChartOption(option)
	if err != nil {
		respondError(c, &customerr.ValidationError{Field: "timeframe", Reason: "unknown timeframe"})
		return
	}

	userID := currentUserID(c)
	if cached, err := s.cache.GetPayload(userID, endpoint, option); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
		return
	}

	data, err := load(c, tf)
	if err != nil {
		respondError(c, err)
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.cache.CachePayload(userID, endpoint, option, payload); err != nil {
		logger.Warn("cache payload", zap.Error(err))
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// invalidateCharts drops cached chart payloads after a ledger write.
func (s *Server) invalidateCharts(userID int64) {
	err := s.cache.Invalidate(userID, []string{chartEndpoint, categoryEndpoint}, period.ChartOptions())
	if err != nil {
		logger.Warn("invalidate cache", zap.Error(err))
	}
}
