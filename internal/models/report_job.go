package models

import (
	"time"

	"gorm.io/datatypes"
)

type ReportJobStatus string

const (
	ReportJobQueued    ReportJobStatus = "queued"
	ReportJobRunning   ReportJobStatus = "running"
	ReportJobCompleted ReportJobStatus = "completed"
	ReportJobFailed    ReportJobStatus = "failed"
	ReportJobSkipped   ReportJobStatus = "skipped"
)

// JobObjectBatch is the job object name of batch report jobs.
const JobObjectBatch = "Batch"

type ReportJob struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"` // UUID
	JobObject string `json:"job_object" gorm:"not null;size:50;default:Batch;index"`
	BatchID   uint   `json:"batch_id" gorm:"not null;index"`
	JobType   string `json:"job_type" gorm:"size:5;index"` // "1", "2" or CCE
	Trigger   string `json:"trigger" gorm:"size:20"`      // api, schedule

	// Job status
	Status   ReportJobStatus `json:"status" gorm:"default:queued;index"`
	Attempts int             `json:"attempts" gorm:"default:0"`
	Error    *string         `json:"error,omitempty" gorm:"type:text"`

	// Results
	Summary datatypes.JSON `json:"summary" gorm:"type:jsonb"` // RunSummary

	// Timestamps
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
