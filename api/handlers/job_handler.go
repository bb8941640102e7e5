package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// JobHandler handles job submission, cancellation and state requests
type JobHandler struct {
	controller *app.JobController
	config     *domain.Config
	logger     *zap.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(controller *app.JobController, config *domain.Config, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		controller: controller,
		config:     config,
		logger:     logger,
	}
}

// SubmitJobRequest represents a request to start a job. Omitted fields fall
// back to the saved preferences.
type SubmitJobRequest struct {
	URL            string `json:"url" binding:"required"`
	Quality        string `json:"quality,omitempty"`
	ExpandPlaylist *bool  `json:"expand_playlist,omitempty"`
	DestinationDir string `json:"destination_dir,omitempty"`
}

// SubmitJobResponse is returned once a job was accepted
type SubmitJobResponse struct {
	JobID   string                 `json:"job_id"`
	Request domain.DownloadRequest `json:"request"`
}

// Submit handles POST /api/v1/jobs
func (h *JobHandler) Submit(c *gin.Context) {
	var body SubmitJobRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.buildRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.controller.Submit(req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrJobActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": h.controller.State()})
		return
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		h.logger.Error("Failed to submit job", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, SubmitJobResponse{JobID: jobID, Request: req})
}

func (h *JobHandler) buildRequest(body SubmitJobRequest) (domain.DownloadRequest, error) {
	quality := domain.Quality(h.config.Preferences.Quality)
	if strings.TrimSpace(body.Quality) != "" {
		q, err := domain.ParseQuality(body.Quality)
		if err != nil {
			return domain.DownloadRequest{}, err
		}
		quality = q
	}
	if !quality.IsValid() {
		quality = domain.DefaultQuality
	}

	expand := h.config.Preferences.AutoPlaylist
	if body.ExpandPlaylist != nil {
		expand = *body.ExpandPlaylist
	}

	dir := body.DestinationDir
	if dir == "" {
		dir = h.config.DestinationDir()
	}

	return domain.NewDownloadRequest(body.URL, quality, expand, dir)
}

// Cancel handles POST /api/v1/jobs/cancel
func (h *JobHandler) Cancel(c *gin.Context) {
	if err := h.controller.Cancel(); err != nil {
		if errors.Is(err, domain.ErrNoActiveJob) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to cancel job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "cancellation requested", "state": h.controller.State()})
}

// State handles GET /api/v1/jobs/state
func (h *JobHandler) State(c *gin.Context) {
	state := h.controller.State()
	c.JSON(http.StatusOK, gin.H{
		"state":  state,
		"label":  state.String(),
		"active": state.IsActive(),
	})
}
