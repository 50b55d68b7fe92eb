package services

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueActiveBatches(t *testing.T) {
	ctx := context.Background()
	f := newBatchFixture(t, nil)
	cce := f.store.AddCourse(models.Course{CourseName: "Grade 3", Code: "G3", GradingType: gradingType(models.GradingTypeCCE)})
	cceBatch := f.store.AddBatch(models.Batch{Name: "2026 B", CourseID: cce.ID, IsActive: true})
	f.store.AddBatch(models.Batch{Name: "2025 A", CourseID: f.course.ID, IsActive: false})

	publisher := events.NewMockEventPublisher(testLogger())
	jobs := NewReportJobService(f.store, f.service(), cache.NewMemoryRunLocker(), publisher, validator.New(),
		ReportJobServiceConfig{}, testLogger())
	scheduler := NewScheduler(f.store, jobs, "", testLogger())

	queued, err := scheduler.EnqueueActiveBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	listed, err := jobs.ListJobs(ctx, &ListReportJobsRequest{})
	require.NoError(t, err)
	require.Len(t, listed.Jobs, 2)

	jobTypes := make(map[uint]string)
	for _, job := range listed.Jobs {
		assert.Equal(t, TriggerSchedule, job.Trigger)
		assert.Equal(t, models.ReportJobQueued, job.Status)
		jobTypes[job.BatchID] = job.JobType
	}
	assert.Equal(t, map[uint]string{
		f.batch.ID:  models.JobTypeCurrentCohort,
		cceBatch.ID: models.JobTypeCCE,
	}, jobTypes)
	assert.Len(t, publisher.EventsOfType(events.EventReportGenerationRequested), 2)
}

func TestScheduler_StartStop(t *testing.T) {
	f := newBatchFixture(t, nil)
	jobs := NewReportJobService(f.store, f.service(), cache.NewMemoryRunLocker(), events.NewMockEventPublisher(testLogger()),
		validator.New(), ReportJobServiceConfig{}, testLogger())

	invalid := NewScheduler(f.store, jobs, "every tuesday", testLogger())
	assert.Error(t, invalid.Start())

	scheduler := NewScheduler(f.store, jobs, "@hourly", testLogger())
	require.NoError(t, scheduler.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
