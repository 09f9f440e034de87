package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jobpulse/jobpulse/internal/api/handler"
	"github.com/jobpulse/jobpulse/internal/api/middleware"
	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/repository"
	"github.com/jobpulse/jobpulse/internal/service"
)

// SetupRouter configures the Gin router with all routes.
func SetupRouter(
	queries *repository.QueryRepository,
	runs *repository.RunRepository,
	orchestrator *service.Orchestrator,
	lifecycle *service.Lifecycle,
	log *logger.Logger,
	serverCfg *config.ServerConfig,
) *gin.Engine {
	switch serverCfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  serverCfg.CORS.AllowedOrigins,
		AllowAllOrigins: serverCfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler()
	runHandler := handler.NewRunHandler(runs, orchestrator)
	queryHandler := handler.NewQueryHandler(queries)
	postingHandler := handler.NewPostingHandler(lifecycle)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/runs", runHandler.ListRuns)
		v1.GET("/runs/:id", runHandler.GetRun)

		v1.GET("/queries", queryHandler.ListQueries)
		v1.POST("/queries", queryHandler.CreateQuery)
		v1.POST("/queries/:id/trigger", runHandler.TriggerRun)

		v1.GET("/postings/stats", postingHandler.Stats)
	}

	return r
}
