package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/services"
	"github.com/SAP-F-2025/report-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
	exportService services.ExportService
}

func NewReportHandler(
	reportService services.ReportService,
	exportService services.ExportService,
	logger utils.Logger,
) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
		exportService: exportService,
	}
}

// GetReports lists the grouped exam reports of a batch
// @Summary List batch reports
// @Tags reports
// @Produce json
// @Param id path uint true "Batch ID"
// @Param score_type query string false "s, e or c"
// @Success 200 {array} models.GroupedExamReport
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /batches/{id}/reports [get]
func (h *ReportHandler) GetReports(c *gin.Context) {
	batchID := ParseIDParam(c, "id")
	if batchID == 0 {
		return
	}

	var scoreType *models.ScoreType
	if value := c.Query("score_type"); value != "" {
		st := models.ScoreType(value)
		scoreType = &st
	}

	reports, err := h.reportService.GetReports(c.Request.Context(), batchID, scoreType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// GetCceReports lists the CCE reports of a batch
// @Summary List batch CCE reports
// @Tags reports
// @Produce json
// @Param id path uint true "Batch ID"
// @Success 200 {array} models.CceReport
// @Failure 404 {object} ErrorResponse
// @Router /batches/{id}/cce-reports [get]
func (h *ReportHandler) GetCceReports(c *gin.Context) {
	batchID := ParseIDParam(c, "id")
	if batchID == 0 {
		return
	}

	reports, err := h.reportService.GetCceReports(c.Request.Context(), batchID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// GetRanking returns the dense ranking of the batch's current students
// @Summary Batch ranking
// @Tags reports
// @Produce json
// @Param id path uint true "Batch ID"
// @Success 200 {array} services.RankEntry
// @Failure 404 {object} ErrorResponse
// @Router /batches/{id}/ranking [get]
func (h *ReportHandler) GetRanking(c *gin.Context) {
	batchID := ParseIDParam(c, "id")
	if batchID == 0 {
		return
	}

	ranking, err := h.reportService.BatchRanking(c.Request.Context(), batchID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ranking)
}

// ExportReports downloads the batch reports as a workbook
// @Summary Export batch reports
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Batch ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /batches/{id}/reports/export [get]
func (h *ReportHandler) ExportReports(c *gin.Context) {
	batchID := ParseIDParam(c, "id")
	if batchID == 0 {
		return
	}

	h.LogRequest(c, "Exporting batch reports", "batch_id", batchID)

	data, err := h.exportService.ExportBatchReport(c.Request.Context(), batchID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="batch_%d_reports.xlsx"`, batchID))
	c.Data(http.StatusOK, xlsxContentType, data)
}
