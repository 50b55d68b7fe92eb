package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type ReportPostgreSQL struct {
	db *gorm.DB
}

func NewReportPostgreSQL(db *gorm.DB) repositories.ReportRepository {
	return &ReportPostgreSQL{db: db}
}

// ===== EXAM DATA =====

// FindExamGroupsLinkedToBatch returns the batch's exam groups that have a
// grouped exam row for the batch.
func (r *ReportPostgreSQL) FindExamGroupsLinkedToBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.ExamGroup, error) {
	var groups []*models.ExamGroup
	if err := conn(ctx, r.db, tx).
		Where("exam_groups.batch_id = ?", batchID).
		Where("EXISTS (SELECT 1 FROM grouped_exams ge WHERE ge.batch_id = ? AND ge.exam_group_id = exam_groups.id)", batchID).
		Order("exam_groups.id").
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to find grouped exam groups: %w", err)
	}
	return groups, nil
}

func (r *ReportPostgreSQL) FindSubjectsForBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.Subject, error) {
	var subjects []*models.Subject
	if err := conn(ctx, r.db, tx).
		Where("batch_id = ? AND is_deleted = ?", batchID, false).
		Order("id").
		Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to find batch subjects: %w", err)
	}
	return subjects, nil
}

func (r *ReportPostgreSQL) FindExam(ctx context.Context, tx *gorm.DB, examGroupID, subjectID uint) (*models.Exam, error) {
	var exam models.Exam
	if err := conn(ctx, r.db, tx).
		Where("exam_group_id = ? AND subject_id = ?", examGroupID, subjectID).
		First(&exam).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find exam: %w", err)
	}
	return &exam, nil
}

func (r *ReportPostgreSQL) HasElectiveAssignment(ctx context.Context, tx *gorm.DB, studentID, subjectID uint) (bool, error) {
	var count int64
	if err := conn(ctx, r.db, tx).
		Model(&models.StudentsSubject{}).
		Where("student_id = ? AND subject_id = ?", studentID, subjectID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check elective assignment: %w", err)
	}
	return count > 0, nil
}

func (r *ReportPostgreSQL) FindScore(ctx context.Context, tx *gorm.DB, examID, studentID uint) (*models.ExamScore, error) {
	var score models.ExamScore
	if err := conn(ctx, r.db, tx).
		Preload("GradingLevel").
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		First(&score).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find exam score: %w", err)
	}
	return &score, nil
}

// ===== REPORT MAINTENANCE =====

func (r *ReportPostgreSQL) DeleteStudentReports(ctx context.Context, tx *gorm.DB, batchID uint, studentIDs []uint) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}

	result := conn(ctx, r.db, tx).
		Where("batch_id = ? AND student_id IN ?", batchID, studentIDs).
		Delete(&models.GroupedExamReport{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete grouped exam reports: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UpsertReport updates the row matching the report's natural key in place,
// or creates it.
func (r *ReportPostgreSQL) UpsertReport(ctx context.Context, tx *gorm.DB, report *models.GroupedExamReport) error {
	db := conn(ctx, r.db, tx)

	query := db.Model(&models.GroupedExamReport{}).
		Where("student_id = ? AND score_type = ?", report.StudentID, report.ScoreType)
	switch report.ScoreType {
	case models.ScoreTypeSubject:
		query = query.Where("batch_id = ? AND subject_id = ?", report.BatchID, report.SubjectID)
	case models.ScoreTypeExamGroup:
		query = query.Where("exam_group_id = ?", report.ExamGroupID)
	case models.ScoreTypeCohort:
		query = query.Where("batch_id = ?", report.BatchID)
	default:
		return fmt.Errorf("unknown score type %q", report.ScoreType)
	}

	var existing models.GroupedExamReport
	err := query.First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(report).Error; err != nil {
			return fmt.Errorf("failed to create grouped exam report: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to find grouped exam report: %w", err)
	}

	if err := db.Model(&existing).Update("marks", report.Marks).Error; err != nil {
		return fmt.Errorf("failed to update grouped exam report: %w", err)
	}
	report.ID = existing.ID
	report.CreatedAt = existing.CreatedAt
	return nil
}

func (r *ReportPostgreSQL) ListReports(ctx context.Context, tx *gorm.DB, batchID uint, scoreType *models.ScoreType) ([]*models.GroupedExamReport, error) {
	var reports []*models.GroupedExamReport
	query := conn(ctx, r.db, tx).Where("batch_id = ?", batchID)
	if scoreType != nil {
		query = query.Where("score_type = ?", *scoreType)
	}

	if err := query.Order("student_id, score_type, id").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list grouped exam reports: %w", err)
	}
	return reports, nil
}
