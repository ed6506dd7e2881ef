package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moodwatch/internal/analysis"
	"moodwatch/internal/recommendation"
	"moodwatch/internal/service"
)

type InsightsHandler interface {
	GetSummary(c *gin.Context)
	GetAverages(c *gin.Context)
	GetAlerts(c *gin.Context)
	GetCorrelations(c *gin.Context)
	GetRecommendations(c *gin.Context)
	GetUserRisk(c *gin.Context)
}

type insightsHandler struct {
	insights service.InsightsService
	logger   *zap.Logger
}

func NewInsightsHandler(insights service.InsightsService, logger *zap.Logger) InsightsHandler {
	return &insightsHandler{
		insights: insights,
		logger:   logger,
	}
}

// GetSummary handles GET /api/insights/summary
func (h *insightsHandler) GetSummary(c *gin.Context) {
	summary, err := h.insights.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetAverages handles GET /api/insights/averages
func (h *insightsHandler) GetAverages(c *gin.Context) {
	averages, err := h.insights.AveragesByUser(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build averages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build averages"})
		return
	}
	c.JSON(http.StatusOK, averages)
}

// GetAlerts handles GET /api/insights/alerts?threshold=&days=
func (h *insightsHandler) GetAlerts(c *gin.Context) {
	cfg := h.insights.Config()
	threshold, err := intQuery(c, "threshold", cfg.MoodThreshold, 1, 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := intQuery(c, "days", cfg.LookbackDays, 1, maxLookbackDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.insights.Alerts(c.Request.Context(), threshold, days))
}

// GetCorrelations handles GET /api/insights/correlations
func (h *insightsHandler) GetCorrelations(c *gin.Context) {
	report := h.insights.Correlations(c.Request.Context())
	if report.Failed() {
		c.JSON(http.StatusOK, gin.H{"error": report.Error})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetRecommendations handles GET /api/insights/recommendations?risk_level=
func (h *insightsHandler) GetRecommendations(c *gin.Context) {
	level := c.Query("risk_level")
	recs, err := h.insights.Recommendations(c.Request.Context(), level)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recommendations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"risk_level":      recommendation.Normalize(level),
		"recommendations": recs,
	})
}

// GetUserRisk handles GET /api/insights/users/:handle/risk?days=
func (h *insightsHandler) GetUserRisk(c *gin.Context) {
	handle := c.Param("handle")
	days, err := intQuery(c, "days", h.insights.Config().LookbackDays, 1, maxLookbackDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	risk, err := h.insights.UserRisk(c.Request.Context(), handle, days)
	switch {
	case errors.Is(err, service.ErrNoEntries):
		c.JSON(http.StatusNotFound, gin.H{"error": "No entries for user in lookback window"})
		return
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": analysis.MsgNoData})
		return
	}

	recs, err := h.insights.Recommendations(c.Request.Context(), string(risk.RiskLevel))
	if err != nil {
		h.logger.Warn("Risk served without recommendations", zap.String("user_handle", handle), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"assessment":      risk,
		"recommendations": recs,
	})
}
