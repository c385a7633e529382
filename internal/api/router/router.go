package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/onmydesk/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "onmydesk-api",
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "onmydesk-api",
		})
	})

	reportHandler := handler.NewReportHandler(deps)
	schedulerHandler := handler.NewSchedulerHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware(deps.Auth, deps.Logger))
	{
		v1.GET("/report-types", reportHandler.ListReportTypes)

		reports := v1.Group("/reports")
		{
			reports.POST("", reportHandler.CreateReport)
			reports.GET("", reportHandler.ListReports)
			reports.GET("/:id", reportHandler.GetReport)
			reports.DELETE("/:id", reportHandler.DeleteReport)
			reports.POST("/:id/process", reportHandler.ProcessReport)
			reports.GET("/:id/download", reportHandler.DownloadReport)
		}

		schedulers := v1.Group("/schedulers")
		{
			schedulers.POST("", schedulerHandler.CreateScheduler)
			schedulers.GET("", schedulerHandler.ListSchedulers)
			schedulers.POST("/run", schedulerHandler.RunSchedulers)
			schedulers.GET("/:id", schedulerHandler.GetScheduler)
			schedulers.DELETE("/:id", schedulerHandler.DeleteScheduler)
		}
	}

	return r
}
