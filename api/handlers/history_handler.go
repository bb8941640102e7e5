package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// HistoryHandler exposes the session history
type HistoryHandler struct {
	history *app.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *app.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// HistoryEntry is a record with its display timestamp
type HistoryEntry struct {
	Index int `json:"index"`
	domain.DownloadRecord
	Time string `json:"time"`
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	records := h.history.List()
	entries := make([]HistoryEntry, 0, len(records))
	for i, r := range records {
		entries = append(entries, HistoryEntry{Index: i, DownloadRecord: r, Time: r.DisplayTime()})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// Remove handles DELETE /api/v1/history/:index
func (h *HistoryHandler) Remove(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return
	}

	record, err := h.history.RemoveAt(index)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// Clear handles DELETE /api/v1/history
func (h *HistoryHandler) Clear(c *gin.Context) {
	removed := h.history.Clear()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
