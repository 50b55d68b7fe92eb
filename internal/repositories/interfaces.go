package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the data access used by report generation. Methods
// that receive a nil tx run against the root connection.
type Repository interface {
	Batch() BatchRepository
	Report() ReportRepository
	Cce() CceRepository
	Configuration() ConfigurationRepository
	ReportJob() ReportJobRepository

	// Transaction runs fn in a single database transaction. Returning an
	// error from fn rolls back everything fn wrote.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ===== SHARED FILTER STRUCTS =====

type ReportJobFilters struct {
	JobObject string                  `json:"job_object"`
	JobType   *string                 `json:"job_type"`
	BatchID   *uint                   `json:"batch_id"`
	Status    *models.ReportJobStatus `json:"status"`
	DateFrom  *time.Time              `json:"date_from"`
	DateTo    *time.Time              `json:"date_to"`
	Limit     int                     `json:"limit"`
	Offset    int                     `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

// BatchRepository reads batches and their rosters.
type BatchRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Batch, error) // Includes course
	ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Batch, error)

	// Rosters
	ListStudents(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.Student, error)
	ListArchivedStudents(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.Student, error)
}

// ReportRepository reads exam data and maintains grouped exam reports.
type ReportRepository interface {
	FindExamGroupsLinkedToBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.ExamGroup, error)
	FindSubjectsForBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.Subject, error)
	FindExam(ctx context.Context, tx *gorm.DB, examGroupID, subjectID uint) (*models.Exam, error)            // nil when absent
	HasElectiveAssignment(ctx context.Context, tx *gorm.DB, studentID, subjectID uint) (bool, error)
	FindScore(ctx context.Context, tx *gorm.DB, examID, studentID uint) (*models.ExamScore, error) // nil when absent

	// Report maintenance
	DeleteStudentReports(ctx context.Context, tx *gorm.DB, batchID uint, studentIDs []uint) (int64, error)
	UpsertReport(ctx context.Context, tx *gorm.DB, report *models.GroupedExamReport) error
	ListReports(ctx context.Context, tx *gorm.DB, batchID uint, scoreType *models.ScoreType) ([]*models.GroupedExamReport, error)
}

// CceRepository reads CCE assessments and maintains CCE reports.
type CceRepository interface {
	FindFaCriteriasForBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.FaCriteria, error)
	FindObservationGroupsForCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.ObservationGroup, error) // Includes observations and grade set

	// FindAssessmentScores returns the scores given through the indicators of
	// one describable in a batch: with an exam when scholastic, without otherwise.
	FindAssessmentScores(ctx context.Context, tx *gorm.DB, describableType string, describableID, batchID uint, scholastic bool) ([]*models.AssessmentScore, error)

	DeleteScholasticReports(ctx context.Context, tx *gorm.DB, batchID uint) (int64, error)
	DeleteCoScholasticReports(ctx context.Context, tx *gorm.DB, batchID uint) (int64, error)
	CreateReports(ctx context.Context, tx *gorm.DB, reports []*models.CceReport) error
	ListReports(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.CceReport, error)
}

// ConfigurationRepository stores run markers.
type ConfigurationRepository interface {
	RecordRunMarker(ctx context.Context, tx *gorm.DB, key string, at time.Time) error // Create or update
	GetRunMarker(ctx context.Context, tx *gorm.DB, key string) (*models.Configuration, error)
	ListRunMarkers(ctx context.Context, tx *gorm.DB, prefix string) ([]*models.Configuration, error)
}

// ReportJobRepository persists the audit trail of report jobs.
type ReportJobRepository interface {
	Create(ctx context.Context, tx *gorm.DB, job *models.ReportJob) error
	Update(ctx context.Context, tx *gorm.DB, job *models.ReportJob) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ReportJob, error)
	List(ctx context.Context, tx *gorm.DB, filters ReportJobFilters) ([]*models.ReportJob, int64, error)
}

// ===== ERRORS =====

var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err is a missing-record error from any
// repository implementation.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
