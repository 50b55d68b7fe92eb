package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type ReportJobPostgreSQL struct {
	db *gorm.DB
}

func NewReportJobPostgreSQL(db *gorm.DB) repositories.ReportJobRepository {
	return &ReportJobPostgreSQL{db: db}
}

func (r *ReportJobPostgreSQL) Create(ctx context.Context, tx *gorm.DB, job *models.ReportJob) error {
	if err := conn(ctx, r.db, tx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create report job: %w", err)
	}
	return nil
}

func (r *ReportJobPostgreSQL) Update(ctx context.Context, tx *gorm.DB, job *models.ReportJob) error {
	result := conn(ctx, r.db, tx).Save(job)
	if result.Error != nil {
		return fmt.Errorf("failed to update report job: %w", result.Error)
	}
	return nil
}

func (r *ReportJobPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := conn(ctx, r.db, tx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report job: %w", err)
	}
	return &job, nil
}

func (r *ReportJobPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ReportJobFilters) ([]*models.ReportJob, int64, error) {
	query := conn(ctx, r.db, tx).Model(&models.ReportJob{})

	if filters.JobObject != "" {
		query = query.Where("job_object = ?", filters.JobObject)
	}
	if filters.JobType != nil {
		query = query.Where("job_type = ?", *filters.JobType)
	}
	if filters.BatchID != nil {
		query = query.Where("batch_id = ?", *filters.BatchID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count report jobs: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var jobs []*models.ReportJob
	if err := query.Order("created_at DESC, id").Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list report jobs: %w", err)
	}
	return jobs, total, nil
}
