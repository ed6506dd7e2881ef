package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"moodwatch/internal/models"
	"moodwatch/internal/repository"
	"moodwatch/internal/service"
)

type EntryHandler interface {
	ListEntries(c *gin.Context)
	CreateEntry(c *gin.Context)
}

type entryHandler struct {
	entries service.EntryService
	logger  *zap.Logger
	now     func() time.Time
}

func NewEntryHandler(entries service.EntryService, logger *zap.Logger) EntryHandler {
	return &entryHandler{
		entries: entries,
		logger:  logger,
		now:     time.Now,
	}
}

// ListEntries handles GET /api/entries?handle=&days=
func (h *entryHandler) ListEntries(c *gin.Context) {
	filter := models.EntryFilter{Handle: c.Query("handle")}

	days, err := intQuery(c, "days", 0, 1, maxLookbackDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if days > 0 {
		since := h.now().Add(-time.Duration(days) * 24 * time.Hour)
		filter.Since = &since
	}

	entries, err := h.entries.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve entries"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// CreateEntry handles POST /api/entries
func (h *entryHandler) CreateEntry(c *gin.Context) {
	var input models.CreateEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.entries.Create(c.Request.Context(), input)
	switch {
	case errors.Is(err, service.ErrInvalidEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, repository.ErrReadOnly):
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Entry source is read-only"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save entry"})
		return
	}
	c.JSON(http.StatusCreated, entry)
}
