package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type CcePostgreSQL struct {
	db *gorm.DB
}

func NewCcePostgreSQL(db *gorm.DB) repositories.CceRepository {
	return &CcePostgreSQL{db: db}
}

// FindFaCriteriasForBatch returns the criterias of every FA group attached to
// a non-deleted subject of the batch.
func (c *CcePostgreSQL) FindFaCriteriasForBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.FaCriteria, error) {
	var criterias []*models.FaCriteria
	if err := conn(ctx, c.db, tx).
		Distinct("fa_criterias.*").
		Joins("JOIN fa_groups ON fa_groups.id = fa_criterias.fa_group_id").
		Joins("JOIN fa_groups_subjects ON fa_groups_subjects.fa_group_id = fa_groups.id").
		Joins("JOIN subjects ON subjects.id = fa_groups_subjects.subject_id").
		Where("subjects.batch_id = ? AND subjects.is_deleted = ?", batchID, false).
		Order("fa_criterias.id").
		Find(&criterias).Error; err != nil {
		return nil, fmt.Errorf("failed to find fa criterias: %w", err)
	}
	return criterias, nil
}

func (c *CcePostgreSQL) FindObservationGroupsForCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.ObservationGroup, error) {
	var groups []*models.ObservationGroup
	if err := conn(ctx, c.db, tx).
		Joins("JOIN courses_observation_groups ON courses_observation_groups.observation_group_id = observation_groups.id").
		Where("courses_observation_groups.course_id = ?", courseID).
		Preload("Observations", func(db *gorm.DB) *gorm.DB {
			return db.Order("observations.id")
		}).
		Preload("CceGradeSet.CceGrades").
		Order("observation_groups.id").
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to find observation groups: %w", err)
	}
	return groups, nil
}

func (c *CcePostgreSQL) FindAssessmentScores(ctx context.Context, tx *gorm.DB, describableType string, describableID, batchID uint, scholastic bool) ([]*models.AssessmentScore, error) {
	query := conn(ctx, c.db, tx).
		Model(&models.AssessmentScore{}).
		Joins("JOIN descriptive_indicators ON descriptive_indicators.id = assessment_scores.descriptive_indicator_id").
		Where("descriptive_indicators.describable_type = ? AND descriptive_indicators.describable_id = ?", describableType, describableID).
		Where("assessment_scores.batch_id = ?", batchID)
	if scholastic {
		query = query.Where("assessment_scores.exam_id IS NOT NULL")
	} else {
		query = query.Where("assessment_scores.exam_id IS NULL")
	}

	var scores []*models.AssessmentScore
	if err := query.
		Order("assessment_scores.exam_id, assessment_scores.student_id, assessment_scores.id").
		Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to find assessment scores: %w", err)
	}
	return scores, nil
}

// ===== REPORT MAINTENANCE =====

func (c *CcePostgreSQL) DeleteScholasticReports(ctx context.Context, tx *gorm.DB, batchID uint) (int64, error) {
	result := conn(ctx, c.db, tx).
		Where("batch_id = ? AND exam_id > 0", batchID).
		Delete(&models.CceReport{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete scholastic reports: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (c *CcePostgreSQL) DeleteCoScholasticReports(ctx context.Context, tx *gorm.DB, batchID uint) (int64, error) {
	result := conn(ctx, c.db, tx).
		Where("batch_id = ? AND exam_id IS NULL", batchID).
		Delete(&models.CceReport{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete co-scholastic reports: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (c *CcePostgreSQL) CreateReports(ctx context.Context, tx *gorm.DB, reports []*models.CceReport) error {
	if len(reports) == 0 {
		return nil
	}
	if err := conn(ctx, c.db, tx).CreateInBatches(reports, 200).Error; err != nil {
		return fmt.Errorf("failed to create cce reports: %w", err)
	}
	return nil
}

func (c *CcePostgreSQL) ListReports(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.CceReport, error) {
	var reports []*models.CceReport
	if err := conn(ctx, c.db, tx).
		Where("batch_id = ?", batchID).
		Order("student_id, observable_type, observable_id, id").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list cce reports: %w", err)
	}
	return reports, nil
}
