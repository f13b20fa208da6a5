package http

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter configures all routes and middleware
func SetupRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(allowedOrigins))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/match", handler.MatchProducts)
		api.POST("/match/batch", handler.BatchMatch)

		comparison := api.Group("/comparison")
		{
			comparison.GET("/stores", handler.ListStores)
			comparison.POST("/:competitorID/run", handler.RunComparison)
			comparison.GET("/:competitorID", handler.GetComparison)
			comparison.GET("/:competitorID/export", handler.ExportComparison)
		}
	}

	return router
}
