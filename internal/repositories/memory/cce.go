package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
	"gorm.io/gorm"
)

type cceRepository struct {
	store *Store
}

func (repo *cceRepository) FindFaCriteriasForBatch(_ context.Context, _ *gorm.DB, batchID uint) ([]*models.FaCriteria, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	groups := make(map[uint]bool)
	for groupID, subjectIDs := range repo.store.faGroupSubjects {
		for _, subjectID := range subjectIDs {
			subject, ok := repo.store.subjects[subjectID]
			if ok && subject.BatchID == batchID && !subject.IsDeleted {
				groups[groupID] = true
			}
		}
	}

	var criterias []*models.FaCriteria
	for _, id := range sortedIDs(repo.store.faCriterias) {
		criteria := repo.store.faCriterias[id]
		if groups[criteria.FaGroupID] {
			c := *criteria
			criterias = append(criterias, &c)
		}
	}
	return criterias, nil
}

func (repo *cceRepository) FindObservationGroupsForCourse(_ context.Context, _ *gorm.DB, courseID uint) ([]*models.ObservationGroup, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	ids := append([]uint(nil), repo.store.courseObsGroups[courseID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var groups []*models.ObservationGroup
	for _, id := range ids {
		if group, ok := repo.store.observationGroups[id]; ok {
			c := copyObservationGroup(group)
			groups = append(groups, &c)
		}
	}
	return groups, nil
}

func (repo *cceRepository) FindAssessmentScores(_ context.Context, _ *gorm.DB, describableType string, describableID, batchID uint, scholastic bool) ([]*models.AssessmentScore, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	indicators := make(map[uint]bool)
	for id, indicator := range repo.store.indicators {
		if indicator.DescribableType == describableType && indicator.DescribableID == describableID {
			indicators[id] = true
		}
	}

	var scores []*models.AssessmentScore
	for _, score := range repo.store.assessmentScores {
		if !indicators[score.DescriptiveIndicatorID] || score.BatchID != batchID {
			continue
		}
		if (score.ExamID != nil) != scholastic {
			continue
		}
		c := *score
		scores = append(scores, &c)
	}
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if ea, eb := examIDOf(a.ExamID), examIDOf(b.ExamID); ea != eb {
			return ea < eb
		}
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		return a.ID < b.ID
	})
	return scores, nil
}

func (repo *cceRepository) DeleteScholasticReports(_ context.Context, _ *gorm.DB, batchID uint) (int64, error) {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if err := repo.store.fail(OpDeleteScholasticReports); err != nil {
		return 0, err
	}
	return repo.deleteWhere(func(r *models.CceReport) bool {
		return r.BatchID == batchID && r.IsScholastic()
	}), nil
}

func (repo *cceRepository) DeleteCoScholasticReports(_ context.Context, _ *gorm.DB, batchID uint) (int64, error) {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if err := repo.store.fail(OpDeleteCoScholasticReports); err != nil {
		return 0, err
	}
	return repo.deleteWhere(func(r *models.CceReport) bool {
		return r.BatchID == batchID && r.ExamID == nil
	}), nil
}

func (repo *cceRepository) deleteWhere(match func(*models.CceReport) bool) int64 {
	var deleted int64
	for id, report := range repo.store.cceReports {
		if match(report) {
			delete(repo.store.cceReports, id)
			deleted++
		}
	}
	return deleted
}

func (repo *cceRepository) CreateReports(_ context.Context, _ *gorm.DB, reports []*models.CceReport) error {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if err := repo.store.fail(OpCreateCceReports); err != nil {
		return err
	}

	now := time.Now()
	for _, report := range reports {
		report.ID = repo.store.nextID()
		report.CreatedAt, report.UpdatedAt = now, now
		c := *report
		repo.store.cceReports[c.ID] = &c
	}
	return nil
}

func (repo *cceRepository) ListReports(_ context.Context, _ *gorm.DB, batchID uint) ([]*models.CceReport, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var reports []*models.CceReport
	for _, report := range repo.store.cceReports {
		if report.BatchID == batchID {
			c := *report
			reports = append(reports, &c)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.ObservableType != b.ObservableType {
			return a.ObservableType < b.ObservableType
		}
		if a.ObservableID != b.ObservableID {
			return a.ObservableID < b.ObservableID
		}
		return a.ID < b.ID
	})
	return reports, nil
}

func examIDOf(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
