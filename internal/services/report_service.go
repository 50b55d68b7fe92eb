package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

// ReportService regenerates and serves the derived reports of a batch.
type ReportService interface {
	// Run regenerates the reports of a batch for a job type code: "1" for the
	// current cohort, "2" for the archived cohort, anything else for CCE.
	Run(ctx context.Context, batchID uint, jobType string) (*RunSummary, error)

	GetReports(ctx context.Context, batchID uint, scoreType *models.ScoreType) ([]*models.GroupedExamReport, error)
	GetCceReports(ctx context.Context, batchID uint) ([]*models.CceReport, error)
	BatchRanking(ctx context.Context, batchID uint) ([]RankEntry, error)

	GetRunMarker(ctx context.Context, jobType string) (*models.Configuration, error)
	ListRunMarkers(ctx context.Context) ([]*models.Configuration, error)
}

type ReportServiceConfig struct {
	Features        GradingFeatures
	RankingCacheTTL time.Duration
}

type reportService struct {
	repo          repositories.Repository
	cache         cache.CacheService
	config        ReportServiceConfig
	logger        *slog.Logger
	serviceLogger *ServiceLogger
	now           func() time.Time
}

func NewReportService(repo repositories.Repository, cacheService cache.CacheService, config ReportServiceConfig, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		cache:  cacheService,
		config: config,
		logger: logger,
		serviceLogger: NewServiceLogger(logger, LogConfig{
			Service:       "report-service",
			Component:     "reports",
			EnableMetrics: true,
		}),
		now: time.Now,
	}
}

// ===== REPORT RUNS =====

func (s *reportService) Run(ctx context.Context, batchID uint, jobType string) (*RunSummary, error) {
	op := s.serviceLogger.WithOperation(ctx, "run_reports", batchID, jobType)
	summary, err := s.run(ctx, batchID, jobType)
	op.LogResult(err)
	if err != nil {
		return nil, err
	}

	s.serviceLogger.LogRunSummary(ctx, summary)
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.RankingKey(batchID)); err != nil {
			s.logger.Warn("Failed to invalidate batch ranking", "batch_id", batchID, "error", err)
		}
	}
	return summary, nil
}

func (s *reportService) run(ctx context.Context, batchID uint, jobType string) (*RunSummary, error) {
	batch, err := s.getBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	mode := models.ParseRunMode(jobType)
	summary := &RunSummary{
		BatchID:   batch.ID,
		JobType:   jobType,
		Mode:      mode.String(),
		MarkerKey: models.MarkerKey(jobType),
		StartedAt: s.now(),
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		if mode == models.RunModeContinuousEvaluation {
			err = s.generateCceReports(ctx, tx, batch, summary)
		} else {
			err = s.generateCohortReports(ctx, tx, batch, mode, summary)
		}
		if err != nil {
			return err
		}

		summary.CompletedAt = s.now()
		if err := s.repo.Configuration().RecordRunMarker(ctx, tx, summary.MarkerKey, summary.CompletedAt); err != nil {
			return fmt.Errorf("failed to record run marker: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s run for batch %d failed: %w", mode, batch.ID, err)
	}

	summary.Duration = summary.CompletedAt.Sub(summary.StartedAt)
	return summary, nil
}

// generateCohortReports rebuilds the s, e and c rows of the roster. When no
// linked exam group has an exam for the batch's subjects nothing is touched.
func (s *reportService) generateCohortReports(ctx context.Context, tx *gorm.DB, batch *models.Batch, mode models.RunMode, summary *RunSummary) error {
	grading := ResolveGradingMode(&batch.Course, s.config.Features)
	summary.GradingMode = grading.Name()

	reports := s.repo.Report()
	groups, err := reports.FindExamGroupsLinkedToBatch(ctx, tx, batch.ID)
	if err != nil {
		return err
	}
	subjects, err := reports.FindSubjectsForBatch(ctx, tx, batch.ID)
	if err != nil {
		return err
	}
	students, err := s.roster(ctx, tx, batch.ID, mode)
	if err != nil {
		return err
	}

	summary.ExamGroups = len(groups)
	summary.Students = len(students)
	if len(groups) == 0 || len(students) == 0 {
		return nil
	}

	acc := newCohortAccumulator()
	weightages := make(map[uint]float64, len(groups))
	for _, group := range groups {
		weightages[group.ID] = group.Weightage

		for _, subject := range subjects {
			exam, err := reports.FindExam(ctx, tx, group.ID, subject.ID)
			if err != nil {
				return err
			}
			if exam == nil {
				continue
			}

			for _, student := range students {
				if subject.IsElective() {
					assigned, err := reports.HasElectiveAssignment(ctx, tx, student.ID, subject.ID)
					if err != nil {
						return err
					}
					if !assigned {
						continue
					}
				}

				score, err := reports.FindScore(ctx, tx, exam.ID, student.ID)
				if err != nil {
					return err
				}

				c := grading.Contribution(ScoreInput{Score: score, Exam: exam, Subject: subject, ExamGroup: group})
				acc.addSubject(student.ID, subject.ID, c.Percentage)
				acc.addExamGroup(student.ID, group.ID, c.Raw, c.Denominator)
			}
		}
	}

	if acc.empty() {
		return nil
	}

	studentIDs := make([]uint, len(students))
	for i, student := range students {
		studentIDs[i] = student.ID
	}
	deleted, err := reports.DeleteStudentReports(ctx, tx, batch.ID, studentIDs)
	if err != nil {
		return err
	}
	summary.RowsDeleted = deleted

	for _, key := range acc.subjectOrder {
		subjectID := key.subjectID
		if err := reports.UpsertReport(ctx, tx, &models.GroupedExamReport{
			BatchID:   batch.ID,
			StudentID: key.studentID,
			ScoreType: models.ScoreTypeSubject,
			SubjectID: &subjectID,
			Marks:     sum(acc.subjects[key]),
		}); err != nil {
			return err
		}
		summary.SubjectRows++
	}

	for _, key := range acc.groupOrder {
		values := acc.groups[key]
		total, contribution := grading.ExamGroupTotal(sum(values.raw), sum(values.denominators), weightages[key.examGroupID])

		examGroupID := key.examGroupID
		if err := reports.UpsertReport(ctx, tx, &models.GroupedExamReport{
			BatchID:     batch.ID,
			StudentID:   key.studentID,
			ScoreType:   models.ScoreTypeExamGroup,
			ExamGroupID: &examGroupID,
			Marks:       total,
		}); err != nil {
			return err
		}
		summary.ExamGroupRows++
		acc.addCohort(key.studentID, contribution)
	}

	for _, studentID := range acc.studentOrder {
		if err := reports.UpsertReport(ctx, tx, &models.GroupedExamReport{
			BatchID:   batch.ID,
			StudentID: studentID,
			ScoreType: models.ScoreTypeCohort,
			Marks:     sum(acc.cohort[studentID]),
		}); err != nil {
			return err
		}
		summary.CohortRows++
	}
	return nil
}

func (s *reportService) roster(ctx context.Context, tx *gorm.DB, batchID uint, mode models.RunMode) ([]*models.Student, error) {
	if mode == models.RunModeArchivedCohort {
		return s.repo.Batch().ListArchivedStudents(ctx, tx, batchID)
	}
	return s.repo.Batch().ListStudents(ctx, tx, batchID)
}

// ===== READS =====

func (s *reportService) GetReports(ctx context.Context, batchID uint, scoreType *models.ScoreType) ([]*models.GroupedExamReport, error) {
	if scoreType != nil {
		switch *scoreType {
		case models.ScoreTypeSubject, models.ScoreTypeExamGroup, models.ScoreTypeCohort:
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidScoreType, *scoreType)
		}
	}
	if _, err := s.getBatch(ctx, batchID); err != nil {
		return nil, err
	}

	reports, err := s.repo.Report().ListReports(ctx, nil, batchID, scoreType)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (s *reportService) GetCceReports(ctx context.Context, batchID uint) ([]*models.CceReport, error) {
	if _, err := s.getBatch(ctx, batchID); err != nil {
		return nil, err
	}

	reports, err := s.repo.Cce().ListReports(ctx, nil, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cce reports: %w", err)
	}
	return reports, nil
}

func (s *reportService) GetRunMarker(ctx context.Context, jobType string) (*models.Configuration, error) {
	marker, err := s.repo.Configuration().GetRunMarker(ctx, nil, models.MarkerKey(jobType))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRunMarkerNotFound
		}
		return nil, fmt.Errorf("failed to get run marker: %w", err)
	}
	return marker, nil
}

func (s *reportService) ListRunMarkers(ctx context.Context) ([]*models.Configuration, error) {
	markers, err := s.repo.Configuration().ListRunMarkers(ctx, nil, models.MarkerKey(""))
	if err != nil {
		return nil, fmt.Errorf("failed to list run markers: %w", err)
	}
	return markers, nil
}

func (s *reportService) getBatch(ctx context.Context, batchID uint) (*models.Batch, error) {
	batch, err := s.repo.Batch().GetByID(ctx, nil, batchID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %d", ErrBatchNotFound, batchID)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return batch, nil
}

// isCacheMiss reports whether a cache read simply found nothing.
func isCacheMiss(err error) bool {
	return errors.Is(err, cache.ErrCacheMiss)
}
