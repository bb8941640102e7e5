package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// PreviewHandler resolves a URL without downloading anything
type PreviewHandler struct {
	extractor domain.Extractor
	logger    *zap.Logger
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(extractor domain.Extractor, logger *zap.Logger) *PreviewHandler {
	return &PreviewHandler{
		extractor: extractor,
		logger:    logger,
	}
}

// PreviewItem is a media item with its display duration
type PreviewItem struct {
	domain.MediaItem
	Duration string `json:"duration"`
}

// PreviewResponse describes what a job for the URL would download
type PreviewResponse struct {
	Title    string        `json:"title,omitempty"`
	Playlist bool          `json:"playlist"`
	Count    int           `json:"count"`
	Entries  []PreviewItem `json:"entries"`
}

// Preview handles GET /api/v1/preview?url=
func (h *PreviewHandler) Preview(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'url' is required"})
		return
	}

	resolution, err := h.extractor.Resolve(c.Request.Context(), url)
	if err != nil {
		status := previewErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to resolve preview", zap.String("url", url), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	entries := make([]PreviewItem, 0, len(resolution.Entries))
	for _, item := range resolution.Items() {
		entries = append(entries, PreviewItem{MediaItem: item, Duration: item.FormatDuration()})
	}

	c.JSON(http.StatusOK, PreviewResponse{
		Title:    resolution.Title,
		Playlist: resolution.IsPlaylist(),
		Count:    len(entries),
		Entries:  entries,
	})
}

func previewErrorStatus(err error) int {
	var resErr *domain.ResolutionError
	var dlErr *domain.DownloadError
	switch {
	case errors.As(err, &resErr):
		switch resErr.Reason {
		case domain.ResolutionInvalidURL, domain.ResolutionUnsupported, domain.ResolutionEmptyPlaylist:
			return http.StatusUnprocessableEntity
		case domain.ResolutionUnreachable:
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	case errors.As(err, &dlErr) && dlErr.Reason == domain.DownloadToolMissing:
		return http.StatusServiceUnavailable
	case domain.IsCancelled(err):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
