package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	controller *app.JobController
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(controller *app.JobController) *HealthHandler {
	return &HealthHandler{
		controller: controller,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Job     struct {
		State  domain.JobState `json:"state"`
		Active bool            `json:"active"`
	} `json:"job"`
	History int `json:"history"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Job.State = h.controller.State()
	response.Job.Active = response.Job.State.IsActive()
	response.History = h.controller.Registry().Len()

	c.JSON(http.StatusOK, response)
}
