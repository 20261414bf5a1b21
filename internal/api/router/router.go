package router

import (
	"net/http"

	"github.com/cuongbtq/media-batch/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "batch-api-service",
		})
	})

	batchHandler := handler.NewBatchHandler(deps)

	v1 := r.Group("/api/v1")
	{
		batches := v1.Group("/batches")
		{
			// POST /api/v1/batches - Queue a new batch
			batches.POST("", batchHandler.SubmitBatch)

			// GET /api/v1/batches - List finished batches
			batches.GET("", batchHandler.ListBatches)

			// GET /api/v1/batches/:batch_id - Batch summary and failures
			batches.GET("/:batch_id", batchHandler.GetBatch)
		}
	}

	return r
}
