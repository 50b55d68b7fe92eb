package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type BatchPostgreSQL struct {
	db *gorm.DB
}

func NewBatchPostgreSQL(db *gorm.DB) repositories.BatchRepository {
	return &BatchPostgreSQL{db: db}
}

func (b *BatchPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Batch, error) {
	var batch models.Batch
	if err := conn(ctx, b.db, tx).
		Preload("Course").
		First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &batch, nil
}

func (b *BatchPostgreSQL) ListActive(ctx context.Context, tx *gorm.DB) ([]*models.Batch, error) {
	var batches []*models.Batch
	if err := conn(ctx, b.db, tx).
		Where("is_deleted = ? AND is_active = ?", false, true).
		Preload("Course").
		Order("id").
		Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to list active batches: %w", err)
	}
	return batches, nil
}

func (b *BatchPostgreSQL) ListStudents(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.Student, error) {
	var students []*models.Student
	if err := conn(ctx, b.db, tx).
		Where("batch_id = ?", batchID).
		Order("id").
		Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list batch students: %w", err)
	}
	return students, nil
}

// ListArchivedStudents resolves the historical roster. Enrollment rows whose
// student no longer exists are skipped.
func (b *BatchPostgreSQL) ListArchivedStudents(ctx context.Context, tx *gorm.DB, batchID uint) ([]*models.Student, error) {
	var students []*models.Student
	if err := conn(ctx, b.db, tx).
		Model(&models.Student{}).
		Joins("JOIN batch_students ON batch_students.student_id = students.id").
		Where("batch_students.batch_id = ?", batchID).
		Order("students.id").
		Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list archived batch students: %w", err)
	}
	return students, nil
}
