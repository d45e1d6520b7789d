package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cyberguard/backend/internal/api/middleware"
	"github.com/cyberguard/backend/internal/services"
)

const defaultStatsWindow = 24 * time.Hour

// AuditLogHandler exposes the audit log for the dashboard.
type AuditLogHandler struct {
	service *services.AuditService
}

func NewAuditLogHandler(service *services.AuditService) *AuditLogHandler {
	return &AuditLogHandler{service: service}
}

// List returns a filtered, paginated page of records.
func (h *AuditLogHandler) List(c *gin.Context) {
	filter := services.ParseLogFilter(c.Request.URL.Query())
	page, err := h.service.Query(c.Request.Context(), filter)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to query audit logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get returns a single record.
func (h *AuditLogHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log id"})
		return
	}

	rec, err := h.service.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrAuditRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Log entry not found"})
			return
		}
		middleware.GetRequestLogger(c).WithError(err).Error("failed to fetch audit log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log entry"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Stats summarizes recent traffic. "since" accepts a Go duration ("6h")
// or a timestamp; the default is the last 24 hours.
func (h *AuditLogHandler) Stats(c *gin.Context) {
	since := parseSince(c.Query("since"), time.Now())
	sum, err := h.service.Summary(c.Request.Context(), since)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Error("failed to summarize audit logs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize audit logs"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func parseSince(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return now.Add(-d)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return now.Add(-defaultStatsWindow)
}
