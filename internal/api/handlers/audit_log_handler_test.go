package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard/backend/internal/models"
	"github.com/cyberguard/backend/internal/services"
)

func newLogsRouter(t *testing.T) (*gin.Engine, *services.AuditService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := services.NewAuditService(OpenTestDB(t), time.Second)
	h := NewAuditLogHandler(svc)

	r := gin.New()
	r.GET("/api/logs", h.List)
	r.GET("/api/logs/stats", h.Stats)
	r.GET("/api/logs/:id", h.Get)
	return r, svc
}

func storeRecord(t *testing.T, svc *services.AuditService, ip string, category models.AttackCategory, payload string) *models.AuditRecord {
	t.Helper()
	rec := &models.AuditRecord{
		Timestamp:  time.Now().UTC(),
		SourceIP:   ip,
		AttackType: category,
		Payload:    payload,
		Detected:   category != models.CategoryNormal,
		Action:     models.ActionAllowed,
		Severity:   models.SeverityLow,
	}
	if rec.Detected {
		rec.Action = models.ActionBlocked
		rec.Severity = models.SeverityHigh
	}
	require.NoError(t, svc.Record(context.Background(), rec))
	return rec
}

func getJSON(t *testing.T, r *gin.Engine, path string, out interface{}) int {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestAuditLogHandler_ListSearch(t *testing.T) {
	r, svc := newLogsRouter(t)
	storeRecord(t, svc, "10.1.1.1", models.CategorySQLInjection, `{"body":{"q":"' UNION SELECT 1"},"query":{}}`)
	storeRecord(t, svc, "10.2.2.2", models.CategoryNormal, `{"body":{"q":"hello"},"query":{}}`)

	var page services.LogPage
	require.Equal(t, http.StatusOK, getJSON(t, r, "/api/logs?search=union%20select", &page))
	require.Len(t, page.Logs, 1)
	assert.Equal(t, "10.1.1.1", page.Logs[0].SourceIP)

	require.Equal(t, http.StatusOK, getJSON(t, r, "/api/logs?search=10.2.2", &page))
	require.Len(t, page.Logs, 1)
	assert.Equal(t, models.CategoryNormal, page.Logs[0].AttackType)
}

func TestAuditLogHandler_ListResponseShape(t *testing.T) {
	r, _ := newLogsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/logs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"logs", "total", "page", "pages", "limit"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, []interface{}{}, raw["logs"])
	assert.Equal(t, float64(1), raw["pages"])
}

func TestAuditLogHandler_Get(t *testing.T) {
	r, svc := newLogsRouter(t)
	rec := storeRecord(t, svc, "10.1.1.1", models.CategoryXSS, `{"body":{"c":"<script>"},"query":{}}`)

	var got models.AuditRecord
	require.Equal(t, http.StatusOK, getJSON(t, r, fmt.Sprintf("/api/logs/%d", rec.ID), &got))
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Payload, got.Payload)

	assert.Equal(t, http.StatusNotFound, getJSON(t, r, "/api/logs/12345", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, r, "/api/logs/0", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, r, "/api/logs/-1", nil))
}

func TestAuditLogHandler_Stats(t *testing.T) {
	r, svc := newLogsRouter(t)
	storeRecord(t, svc, "10.1.1.1", models.CategoryXSS, "{}")
	storeRecord(t, svc, "10.1.1.2", models.CategoryNormal, "{}")

	var sum services.Summary
	require.Equal(t, http.StatusOK, getJSON(t, r, "/api/logs/stats", &sum))
	assert.Equal(t, int64(2), sum.Total)
	assert.Equal(t, int64(1), sum.Blocked)
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(-6*time.Hour), parseSince("6h", now))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), parseSince("2024-05-01", now))
	assert.Equal(t, now.Add(-24*time.Hour), parseSince("", now))
	assert.Equal(t, now.Add(-24*time.Hour), parseSince("-5h", now))
	assert.Equal(t, now.Add(-24*time.Hour), parseSince("garbage", now))
}
