package services

import (
	"time"

	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/SAP-F-2025/report-service/internal/models"
)

// ===== REPORT RUNS =====

// RunSummary describes one completed report run. The numeric counters are
// set for cohort runs, the CCE counters for continuous evaluation runs.
type RunSummary struct {
	BatchID     uint   `json:"batch_id"`
	JobType     string `json:"job_type"`
	Mode        string `json:"mode"`
	GradingMode string `json:"grading_mode,omitempty"`
	Students    int    `json:"students"`
	ExamGroups  int    `json:"exam_groups"`

	SubjectRows      int   `json:"subject_rows"`
	ExamGroupRows    int   `json:"exam_group_rows"`
	CohortRows       int   `json:"cohort_rows"`
	ScholasticRows   int   `json:"scholastic_rows"`
	CoScholasticRows int   `json:"co_scholastic_rows"`
	RowsDeleted      int64 `json:"rows_deleted"`

	MarkerKey   string        `json:"marker_key"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

// RankEntry is one student's place in the batch ranking.
type RankEntry struct {
	Rank        int     `json:"rank"`
	Marks       float64 `json:"marks"`
	StudentID   uint    `json:"student_id"`
	StudentName string  `json:"student_name"`
	AdmissionNo string  `json:"admission_no,omitempty"`
}

// ===== REPORT JOBS =====

type EnqueueReportJobRequest struct {
	BatchID uint   `json:"batch_id" validate:"required"`
	JobType string `json:"job_type" validate:"run_mode"`
	Trigger string `json:"trigger" validate:"omitempty,oneof=api schedule"`
}

// ReportJobMessage is the payload of a generation request on the job topic.
type ReportJobMessage = events.GenerationRequestedEvent

type ListReportJobsRequest struct {
	JobObject string `form:"job_object" json:"job_object"`
	JobType   string `form:"job_type" json:"job_type" validate:"omitempty,run_mode"`
	BatchID   uint   `form:"batch_id" json:"batch_id"`
	Status    string `form:"status" json:"status" validate:"omitempty,job_status"`
	Limit     int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" json:"offset" validate:"omitempty,min=0"`
}

type ReportJobListResponse struct {
	Jobs   []*models.ReportJob `json:"jobs"`
	Total  int64               `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}
