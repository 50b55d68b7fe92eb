package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
	"gorm.io/gorm"
)

type reportRepository struct {
	store *Store
}

func (repo *reportRepository) FindExamGroupsLinkedToBatch(_ context.Context, _ *gorm.DB, batchID uint) ([]*models.ExamGroup, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	linked := make(map[uint]bool)
	for _, ge := range repo.store.groupedExams {
		if ge.BatchID == batchID {
			linked[ge.ExamGroupID] = true
		}
	}

	var groups []*models.ExamGroup
	for _, id := range sortedIDs(repo.store.examGroups) {
		group := repo.store.examGroups[id]
		if group.BatchID == batchID && linked[id] {
			c := *group
			groups = append(groups, &c)
		}
	}
	return groups, nil
}

func (repo *reportRepository) FindSubjectsForBatch(_ context.Context, _ *gorm.DB, batchID uint) ([]*models.Subject, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var subjects []*models.Subject
	for _, id := range sortedIDs(repo.store.subjects) {
		subject := repo.store.subjects[id]
		if subject.BatchID == batchID && !subject.IsDeleted {
			c := *subject
			subjects = append(subjects, &c)
		}
	}
	return subjects, nil
}

func (repo *reportRepository) FindExam(_ context.Context, _ *gorm.DB, examGroupID, subjectID uint) (*models.Exam, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	for _, id := range sortedIDs(repo.store.exams) {
		exam := repo.store.exams[id]
		if exam.ExamGroupID == examGroupID && exam.SubjectID == subjectID {
			c := *exam
			return &c, nil
		}
	}
	return nil, nil
}

func (repo *reportRepository) HasElectiveAssignment(_ context.Context, _ *gorm.DB, studentID, subjectID uint) (bool, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	for _, ss := range repo.store.studentsSubjects {
		if ss.StudentID == studentID && ss.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *reportRepository) FindScore(_ context.Context, _ *gorm.DB, examID, studentID uint) (*models.ExamScore, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	for _, id := range sortedIDs(repo.store.scores) {
		score := repo.store.scores[id]
		if score.ExamID != examID || score.StudentID != studentID {
			continue
		}
		c := *score
		if score.GradingLevelID != nil {
			if level, ok := repo.store.gradingLevels[*score.GradingLevelID]; ok {
				l := *level
				c.GradingLevel = &l
			}
		}
		return &c, nil
	}
	return nil, nil
}

func (repo *reportRepository) DeleteStudentReports(_ context.Context, _ *gorm.DB, batchID uint, studentIDs []uint) (int64, error) {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if err := repo.store.fail(OpDeleteStudentReports); err != nil {
		return 0, err
	}

	students := make(map[uint]bool, len(studentIDs))
	for _, id := range studentIDs {
		students[id] = true
	}

	var deleted int64
	for id, report := range repo.store.reports {
		if report.BatchID == batchID && students[report.StudentID] {
			delete(repo.store.reports, id)
			deleted++
		}
	}
	return deleted, nil
}

func (repo *reportRepository) UpsertReport(_ context.Context, _ *gorm.DB, report *models.GroupedExamReport) error {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if err := repo.store.fail(OpUpsertReport); err != nil {
		return err
	}

	now := time.Now()
	key := report.Key()
	for _, existing := range repo.store.reports {
		if existing.Key() == key {
			existing.Marks = report.Marks
			existing.UpdatedAt = now
			report.ID = existing.ID
			report.CreatedAt = existing.CreatedAt
			report.UpdatedAt = now
			return nil
		}
	}

	report.ID = repo.store.nextID()
	report.CreatedAt, report.UpdatedAt = now, now
	c := *report
	repo.store.reports[c.ID] = &c
	return nil
}

func (repo *reportRepository) ListReports(_ context.Context, _ *gorm.DB, batchID uint, scoreType *models.ScoreType) ([]*models.GroupedExamReport, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var reports []*models.GroupedExamReport
	for _, report := range repo.store.reports {
		if report.BatchID != batchID {
			continue
		}
		if scoreType != nil && report.ScoreType != *scoreType {
			continue
		}
		c := *report
		reports = append(reports, &c)
	}
	sort.Slice(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.ScoreType != b.ScoreType {
			return a.ScoreType < b.ScoreType
		}
		return a.ID < b.ID
	})
	return reports, nil
}
