package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"courier-bridge/internal/reporting"
	"courier-bridge/pkg/logger"

	"github.com/gin-gonic/gin"
)

func summaryRequestFromQuery(c *gin.Context) (reporting.SummaryRequest, bool) {
	var req reporting.SummaryRequest
	req.Status = c.Query("status")

	for _, q := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &req.Range.From},
		{"to", &req.Range.To},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": q.name + " must be RFC3339"})
			return req, false
		}
		*q.dst = t
	}
	return req, true
}

// ListCallLogs returns the live call log for the admin dashboard.
func (h Handlers) ListCallLogs(c *gin.Context) {
	req, ok := summaryRequestFromQuery(c)
	if !ok {
		return
	}

	// Interactive listing defaults to a bounded page; summary and export
	// scan everything.
	limit := 200
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	rows, err := h.Reports.ListCalls(c.Request.Context(), req, limit)
	if err == reporting.ErrInvalidRequest {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid time range"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("call log list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

// CallsSummary returns per-status counts and duration aggregates.
func (h Handlers) CallsSummary(c *gin.Context) {
	req, ok := summaryRequestFromQuery(c)
	if !ok {
		return
	}

	out, err := h.Reports.CallsSummary(c.Request.Context(), req)
	if err == reporting.ErrInvalidRequest {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid time range"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("call summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// ExportCallsCSV streams the filtered call log as a CSV download.
func (h Handlers) ExportCallsCSV(c *gin.Context) {
	req, ok := summaryRequestFromQuery(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="call-logs.csv"`)
	if err := h.Reports.ExportCSV(c.Request.Context(), c.Writer, req); err != nil {
		// Headers may be gone already; log and give up on the body.
		logger.FromGin(c).Error("call log export failed", "err", err)
		c.Status(http.StatusInternalServerError)
	}
}
