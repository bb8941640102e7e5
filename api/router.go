package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/api/handlers"
	"github.com/yourusername/mp3-extract-go/api/middleware"
	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// Dependencies groups everything the HTTP layer talks to
type Dependencies struct {
	Config     *domain.Config
	Controller *app.JobController
	Extractor  domain.Extractor
	History    *app.HistoryService
	EventHub   *handlers.EventHub
	Logger     *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	eventHub := deps.EventHub
	if eventHub == nil {
		eventHub = handlers.NewEventHub(log)
	}

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(deps.Controller)
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		jobHandler := handlers.NewJobHandler(deps.Controller, deps.Config, log)
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.Submit)
			jobs.POST("/cancel", jobHandler.Cancel)
			jobs.GET("/state", jobHandler.State)
		}

		previewHandler := handlers.NewPreviewHandler(deps.Extractor, log)
		v1.GET("/preview", previewHandler.Preview)

		historyHandler := handlers.NewHistoryHandler(deps.History)
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.List)
			history.DELETE("", historyHandler.Clear)
			history.DELETE("/:index", historyHandler.Remove)
		}

		v1.GET("/events", eventHub.HandleWebSocket)

		logsDir := deps.Config.Download.LogsDir
		logHandler := handlers.NewLogHandler(logsDir)
		logStream := handlers.NewLogWebSocketHandler(logsDir, log)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
			logs.GET("/:category/stream", logStream.HandleWebSocket)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": c.Request.URL.Path})
	})

	return router
}
