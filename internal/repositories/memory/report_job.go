package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type reportJobRepository struct {
	store *Store
}

func (repo *reportJobRepository) Create(_ context.Context, _ *gorm.DB, job *models.ReportJob) error {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if _, exists := repo.store.jobs[job.ID]; exists {
		return fmt.Errorf("report job %s already exists", job.ID)
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	c := *job
	repo.store.jobs[job.ID] = &c
	return nil
}

func (repo *reportJobRepository) Update(_ context.Context, _ *gorm.DB, job *models.ReportJob) error {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if err := repo.store.fail(OpUpdateReportJob); err != nil {
		return err
	}
	if _, exists := repo.store.jobs[job.ID]; !exists {
		return repositories.ErrNotFound
	}
	job.UpdatedAt = time.Now()
	c := *job
	repo.store.jobs[job.ID] = &c
	return nil
}

func (repo *reportJobRepository) GetByID(_ context.Context, _ *gorm.DB, id string) (*models.ReportJob, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	job, ok := repo.store.jobs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *job
	return &c, nil
}

func (repo *reportJobRepository) List(_ context.Context, _ *gorm.DB, filters repositories.ReportJobFilters) ([]*models.ReportJob, int64, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var jobs []*models.ReportJob
	for _, job := range repo.store.jobs {
		if !matchesJob(job, filters) {
			continue
		}
		c := *job
		jobs = append(jobs, &c)
	}
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})

	total := int64(len(jobs))
	if filters.Offset > 0 {
		if filters.Offset >= len(jobs) {
			return []*models.ReportJob{}, total, nil
		}
		jobs = jobs[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(jobs) {
		jobs = jobs[:filters.Limit]
	}
	return jobs, total, nil
}

func matchesJob(job *models.ReportJob, filters repositories.ReportJobFilters) bool {
	if filters.JobObject != "" && job.JobObject != filters.JobObject {
		return false
	}
	if filters.JobType != nil && job.JobType != *filters.JobType {
		return false
	}
	if filters.BatchID != nil && job.BatchID != *filters.BatchID {
		return false
	}
	if filters.Status != nil && job.Status != *filters.Status {
		return false
	}
	if filters.DateFrom != nil && job.CreatedAt.Before(*filters.DateFrom) {
		return false
	}
	if filters.DateTo != nil && job.CreatedAt.After(*filters.DateTo) {
		return false
	}
	return true
}
