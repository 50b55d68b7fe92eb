package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories/memory"
	"github.com/stretchr/testify/require"
)

var allFeatures = GradingFeatures{GPAEnabled: true, CWAEnabled: true}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(v float64) *float64 { return &v }
func uintPtr(v uint) *uint         { return &v }

func gradingType(t models.GradingType) *models.GradingType { return &t }

// batchFixture is one course with one batch and helpers to seed exam data
// against it.
type batchFixture struct {
	t      *testing.T
	store  *memory.Store
	course models.Course
	batch  models.Batch
}

func newBatchFixture(t *testing.T, grading *models.GradingType) *batchFixture {
	t.Helper()
	store := memory.NewStore()
	course := store.AddCourse(models.Course{CourseName: "Grade 8", Code: "G8", GradingType: grading})
	batch := store.AddBatch(models.Batch{
		Name:      "2026 A",
		CourseID:  course.ID,
		StartedOn: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		EndedOn:   time.Date(2026, 12, 10, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	})
	return &batchFixture{t: t, store: store, course: course, batch: batch}
}

func (f *batchFixture) student(first string) models.Student {
	return f.store.AddStudent(models.Student{BatchID: f.batch.ID, FirstName: first, AdmissionNo: "ADM-" + first})
}

func (f *batchFixture) subject(name string, creditHours *float64) models.Subject {
	return f.store.AddSubject(models.Subject{BatchID: f.batch.ID, Name: name, CreditHours: creditHours})
}

func (f *batchFixture) electiveSubject(name string) models.Subject {
	return f.store.AddSubject(models.Subject{BatchID: f.batch.ID, Name: name, ElectiveGroupID: uintPtr(900)})
}

// examGroup adds a linked exam group with the given weightage.
func (f *batchFixture) examGroup(name string, weightage float64) models.ExamGroup {
	group := f.store.AddExamGroup(models.ExamGroup{BatchID: f.batch.ID, Name: name, Weightage: weightage})
	f.store.LinkExamGroup(f.batch.ID, group.ID, weightage)
	return group
}

func (f *batchFixture) exam(group models.ExamGroup, subject models.Subject, maximum float64) models.Exam {
	return f.store.AddExam(models.Exam{ExamGroupID: group.ID, SubjectID: subject.ID, MaximumMarks: maximum})
}

func (f *batchFixture) marks(exam models.Exam, student models.Student, marks float64) {
	f.store.AddScore(models.ExamScore{ExamID: exam.ID, StudentID: student.ID, Marks: floatPtr(marks)})
}

func (f *batchFixture) graded(exam models.Exam, student models.Student, marks float64, level models.GradingLevel) {
	f.store.AddScore(models.ExamScore{ExamID: exam.ID, StudentID: student.ID, Marks: floatPtr(marks), GradingLevelID: &level.ID})
}

func (f *batchFixture) service() *reportService {
	return f.serviceWith(allFeatures, nil)
}

func (f *batchFixture) serviceWith(features GradingFeatures, cacheService cache.CacheService) *reportService {
	return NewReportService(f.store, cacheService, ReportServiceConfig{
		Features:        features,
		RankingCacheTTL: time.Minute,
	}, testLogger()).(*reportService)
}

// reportsByKey indexes the batch's report rows for assertions.
func (f *batchFixture) reportsByKey() map[models.ReportKey]float64 {
	f.t.Helper()
	reports, err := f.store.Report().ListReports(context.Background(), nil, f.batch.ID, nil)
	require.NoError(f.t, err)

	byKey := make(map[models.ReportKey]float64, len(reports))
	for _, report := range reports {
		_, duplicate := byKey[report.Key()]
		require.False(f.t, duplicate, "duplicate report row %+v", report.Key())
		byKey[report.Key()] = report.Marks
	}
	return byKey
}

func (f *batchFixture) subjectKey(student models.Student, subject models.Subject) models.ReportKey {
	return models.ReportKey{BatchID: f.batch.ID, StudentID: student.ID, ScoreType: models.ScoreTypeSubject, SubjectID: subject.ID}
}

func examGroupReportKey(student models.Student, group models.ExamGroup) models.ReportKey {
	return models.ReportKey{StudentID: student.ID, ScoreType: models.ScoreTypeExamGroup, ExamGroupID: group.ID}
}

func (f *batchFixture) cohortKey(student models.Student) models.ReportKey {
	return models.ReportKey{BatchID: f.batch.ID, StudentID: student.ID, ScoreType: models.ScoreTypeCohort}
}
