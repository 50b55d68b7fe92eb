package memory

import (
	"context"
	"sort"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type batchRepository struct {
	store *Store
}

func (repo *batchRepository) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Batch, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	batch, ok := repo.store.batches[id]
	if !ok || batch.DeletedAt.Valid {
		return nil, repositories.ErrNotFound
	}
	c := *batch
	if course, ok := repo.store.courses[batch.CourseID]; ok {
		c.Course = *course
	}
	return &c, nil
}

func (repo *batchRepository) ListActive(_ context.Context, _ *gorm.DB) ([]*models.Batch, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var batches []*models.Batch
	for _, id := range sortedIDs(repo.store.batches) {
		batch := repo.store.batches[id]
		if batch.IsDeleted || !batch.IsActive || batch.DeletedAt.Valid {
			continue
		}
		c := *batch
		if course, ok := repo.store.courses[batch.CourseID]; ok {
			c.Course = *course
		}
		batches = append(batches, &c)
	}
	return batches, nil
}

func (repo *batchRepository) ListStudents(_ context.Context, _ *gorm.DB, batchID uint) ([]*models.Student, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var students []*models.Student
	for _, id := range sortedIDs(repo.store.students) {
		student := repo.store.students[id]
		if student.BatchID == batchID {
			c := *student
			students = append(students, &c)
		}
	}
	return students, nil
}

func (repo *batchRepository) ListArchivedStudents(_ context.Context, _ *gorm.DB, batchID uint) ([]*models.Student, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var students []*models.Student
	for _, enrollment := range repo.store.batchStudents {
		if enrollment.BatchID != batchID {
			continue
		}
		if student, ok := repo.store.students[enrollment.StudentID]; ok {
			c := *student
			students = append(students, &c)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}
