package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func uintPtr(v uint) *uint { return &v }

func TestUpsertReport_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := &models.GroupedExamReport{BatchID: 1, StudentID: 2, ScoreType: models.ScoreTypeSubject, SubjectID: uintPtr(3), Marks: 10}
	require.NoError(t, store.Report().UpsertReport(ctx, nil, first))

	second := &models.GroupedExamReport{BatchID: 1, StudentID: 2, ScoreType: models.ScoreTypeSubject, SubjectID: uintPtr(3), Marks: 42}
	require.NoError(t, store.Report().UpsertReport(ctx, nil, second))

	reports, err := store.Report().ListReports(ctx, nil, 1, nil)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 42.0, reports[0].Marks)
}

func TestUpsertReport_ExamGroupKeyIgnoresSubject(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Report().UpsertReport(ctx, nil, &models.GroupedExamReport{
		BatchID: 1, StudentID: 2, ScoreType: models.ScoreTypeExamGroup, ExamGroupID: uintPtr(5), Marks: 1,
	}))
	require.NoError(t, store.Report().UpsertReport(ctx, nil, &models.GroupedExamReport{
		BatchID: 1, StudentID: 2, ScoreType: models.ScoreTypeExamGroup, ExamGroupID: uintPtr(6), Marks: 2,
	}))
	require.NoError(t, store.Report().UpsertReport(ctx, nil, &models.GroupedExamReport{
		BatchID: 1, StudentID: 2, ScoreType: models.ScoreTypeExamGroup, ExamGroupID: uintPtr(5), Marks: 3,
	}))

	scoreType := models.ScoreTypeExamGroup
	reports, err := store.Report().ListReports(ctx, nil, 1, &scoreType)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	require.NoError(t, store.Cce().CreateReports(ctx, nil, []*models.CceReport{
		{BatchID: 1, StudentID: 1, ObservableID: 1, ObservableType: models.DescribableObservation, GradeString: "A"},
	}))

	err := store.Transaction(ctx, func(tx *gorm.DB) error {
		deleted, err := store.Cce().DeleteCoScholasticReports(ctx, tx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		require.NoError(t, store.Configuration().RecordRunMarker(ctx, tx, "job/Batch/3", time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reports, err := store.Cce().ListReports(ctx, nil, 1)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	_, err = store.Configuration().GetRunMarker(ctx, nil, "job/Batch/3")
	assert.True(t, repositories.IsNotFoundError(err))
}

func TestFailAfter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("disk full")
	store.FailAfter(OpCreateCceReports, 1, boom)

	assert.NoError(t, store.Cce().CreateReports(ctx, nil, []*models.CceReport{{BatchID: 1}}))
	assert.ErrorIs(t, store.Cce().CreateReports(ctx, nil, []*models.CceReport{{BatchID: 1}}), boom)

	store.ClearFailures()
	assert.NoError(t, store.Cce().CreateReports(ctx, nil, []*models.CceReport{{BatchID: 1}}))
}

func TestListArchivedStudents_SkipsMissingStudents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	kept := store.AddArchivedStudent(7, models.Student{BatchID: 9, FirstName: "Ada"})
	gone := store.AddArchivedStudent(7, models.Student{BatchID: 9, FirstName: "Bob"})
	store.RemoveStudent(gone.ID)

	students, err := store.Batch().ListArchivedStudents(ctx, nil, 7)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, kept.ID, students[0].ID)
}

func TestRecordRunMarker_CreateOrUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, store.Configuration().RecordRunMarker(ctx, nil, "job/Batch/1", first))
	require.NoError(t, store.Configuration().RecordRunMarker(ctx, nil, "job/Batch/1", second))
	require.NoError(t, store.Configuration().RecordRunMarker(ctx, nil, "other/key", second))

	markers, err := store.Configuration().ListRunMarkers(ctx, nil, "job/Batch/")
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, second.Format(time.RFC3339Nano), markers[0].ConfigValue)
}
