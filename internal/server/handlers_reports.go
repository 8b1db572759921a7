package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"max.ks1230/finance-tracker/internal/model/customerr"
	"max.ks1230/finance-tracker/internal/model/export"
	"max.ks1230/finance-tracker/internal/model/period"
)

func (s *Server) handleReport(c *gin.Context) {
	tf, ok := reportTimeframe(c)
	if !ok {
		return
	}

	report, err := s.finance.Report(c.Request.Context(), currentUserID(c), tf, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleExport(c *gin.Context) {
	tf, ok := reportTimeframe(c)
	if !ok {
		return
	}

	today := time.Now()
	body, err := s.export.Build(c.Request.Context(), currentUserID(c), tf, today)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(tf, today)+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(body))
}

func reportTimeframe(c *gin.Context) (period.Timeframe, bool) {
	tfParam := c.DefaultQuery("timeframe", string(period.TimeframeMonth))
	tf, err := period.Parse(tfParam)
	if err != nil {
		respondError(c, &customerr.ValidationError{Field: "timeframe", Reason: "unknown timeframe"})
		return "", false
	}
	return tf, true
}
