package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/report-service/internal/services"
	"github.com/SAP-F-2025/report-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	reportHandler *ReportHandler
	jobHandler    *JobHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		reportHandler: NewReportHandler(serviceManager.Reports(), serviceManager.Export(), logger),
		jobHandler:    NewJobHandler(serviceManager.ReportJobs(), serviceManager.Reports(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Report job routes
		jobs := v1.Group("/report-jobs")
		{
			jobs.POST("", hm.jobHandler.EnqueueJob)
			jobs.GET("", hm.jobHandler.ListJobs)
			jobs.GET("/markers", hm.jobHandler.ListMarkers)
			jobs.GET("/:id", hm.jobHandler.GetJob)
		}

		// Batch report routes
		batches := v1.Group("/batches")
		{
			batches.GET("/:id/reports", hm.reportHandler.GetReports)
			batches.GET("/:id/reports/export", hm.reportHandler.ExportReports)
			batches.GET("/:id/cce-reports", hm.reportHandler.GetCceReports)
			batches.GET("/:id/ranking", hm.reportHandler.GetRanking)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "report-service",
	})
}
