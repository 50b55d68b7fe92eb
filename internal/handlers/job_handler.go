package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/report-service/internal/services"
	"github.com/SAP-F-2025/report-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	BaseHandler
	jobService    services.ReportJobService
	reportService services.ReportService
}

func NewJobHandler(
	jobService services.ReportJobService,
	reportService services.ReportService,
	logger utils.Logger,
) *JobHandler {
	return &JobHandler{
		BaseHandler:   NewBaseHandler(logger),
		jobService:    jobService,
		reportService: reportService,
	}
}

// EnqueueJob queues a report run for a batch
// @Summary Queue report job
// @Tags report-jobs
// @Accept json
// @Produce json
// @Param job body services.EnqueueReportJobRequest true "Job"
// @Success 202 {object} models.ReportJob
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /report-jobs [post]
func (h *JobHandler) EnqueueJob(c *gin.Context) {
	var req services.EnqueueReportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	// The trigger is assigned by the service, not the caller.
	req.Trigger = services.TriggerAPI

	h.LogRequest(c, "Queueing report job", "batch_id", req.BatchID, "job_type", req.JobType)

	job, err := h.jobService.Enqueue(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// ListJobs lists report jobs, newest first
// @Summary List report jobs
// @Tags report-jobs
// @Produce json
// @Param job_object query string false "Job object"
// @Param job_type query string false "Job type"
// @Param batch_id query uint false "Batch ID"
// @Param status query string false "Status"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} services.ReportJobListResponse
// @Failure 400 {object} ErrorResponse
// @Router /report-jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req services.ListReportJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	response, err := h.jobService.ListJobs(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetJob returns one report job
// @Summary Get report job
// @Tags report-jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.ReportJob
// @Failure 404 {object} ErrorResponse
// @Router /report-jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	job, err := h.jobService.GetJob(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListMarkers returns the last completion time of every job type, or of
// one job type when job_type is given
// @Summary Run markers
// @Tags report-jobs
// @Produce json
// @Param job_type query string false "Job type"
// @Success 200 {array} models.Configuration
// @Failure 404 {object} ErrorResponse
// @Router /report-jobs/markers [get]
func (h *JobHandler) ListMarkers(c *gin.Context) {
	if jobType, ok := c.GetQuery("job_type"); ok {
		marker, err := h.reportService.GetRunMarker(c.Request.Context(), jobType)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, marker)
		return
	}

	markers, err := h.reportService.ListRunMarkers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, markers)
}
