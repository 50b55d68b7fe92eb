package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories/memory"
	"github.com/SAP-F-2025/report-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobFixture struct {
	*batchFixture
	locker    *cache.MemoryRunLocker
	publisher *events.MockEventPublisher
	jobs      *reportJobService
}

// newJobFixture seeds a plain batch with one scored student.
func newJobFixture(t *testing.T) *jobFixture {
	f := &jobFixture{
		batchFixture: newBatchFixture(t, nil),
		locker:       cache.NewMemoryRunLocker(),
		publisher:    events.NewMockEventPublisher(testLogger()),
	}
	asha := f.student("Asha")
	maths := f.subject("Maths", nil)
	f.marks(f.exam(f.examGroup("Term 1", 100), maths, 100), asha, 80)

	f.jobs = NewReportJobService(f.store, f.service(), f.locker, f.publisher, validator.New(),
		ReportJobServiceConfig{LockTTL: time.Minute}, testLogger()).(*reportJobService)
	return f
}

func (f *jobFixture) enqueue(jobType string) *models.ReportJob {
	f.t.Helper()
	job, err := f.jobs.Enqueue(context.Background(), &EnqueueReportJobRequest{BatchID: f.batch.ID, JobType: jobType})
	require.NoError(f.t, err)
	return job
}

func (f *jobFixture) stored(id string) *models.ReportJob {
	f.t.Helper()
	job, err := f.jobs.GetJob(context.Background(), id)
	require.NoError(f.t, err)
	return job
}

func TestEnqueue(t *testing.T) {
	f := newJobFixture(t)

	job := f.enqueue(models.JobTypeCurrentCohort)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportJobQueued, job.Status)
	assert.Equal(t, models.JobObjectBatch, job.JobObject)
	assert.Equal(t, TriggerAPI, job.Trigger)
	assert.Equal(t, models.ReportJobQueued, f.stored(job.ID).Status)

	requested := f.publisher.EventsOfType(events.EventReportGenerationRequested)
	require.Len(t, requested, 1)
	data, ok := requested[0].Data.(events.GenerationRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, job.ID, data.JobID)
	assert.Equal(t, f.batch.ID, data.BatchID)
	assert.Equal(t, models.JobTypeCurrentCohort, data.JobType)
}

func TestEnqueue_Rejected(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	_, err := f.jobs.Enqueue(ctx, &EnqueueReportJobRequest{BatchID: f.batch.ID, JobType: "9"})
	assert.True(t, IsValidation(err))

	_, err = f.jobs.Enqueue(ctx, &EnqueueReportJobRequest{JobType: models.JobTypeCurrentCohort})
	assert.True(t, IsValidation(err))

	_, err = f.jobs.Enqueue(ctx, &EnqueueReportJobRequest{BatchID: f.batch.ID + 1, JobType: models.JobTypeCurrentCohort})
	assert.ErrorIs(t, err, ErrBatchNotFound)

	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestEnqueue_PublishFailureFailsJob(t *testing.T) {
	f := newJobFixture(t)
	f.publisher.Err = errors.New("broker unavailable")

	job, err := f.jobs.Enqueue(context.Background(), &EnqueueReportJobRequest{BatchID: f.batch.ID, JobType: models.JobTypeCurrentCohort})
	require.ErrorIs(t, err, ErrEventPublishFailure)
	require.NotNil(t, job)

	stored := f.stored(job.ID)
	assert.Equal(t, models.ReportJobFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Contains(t, *stored.Error, "broker unavailable")
	assert.NotNil(t, stored.CompletedAt)
}

func TestProcess_Completed(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	job := f.enqueue(models.JobTypeCurrentCohort)

	processed, err := f.jobs.Process(ctx, ReportJobMessage{JobID: job.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobCompleted, processed.Status)

	stored := f.stored(job.ID)
	assert.Equal(t, models.ReportJobCompleted, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.NotNil(t, stored.StartedAt)
	assert.NotNil(t, stored.CompletedAt)
	assert.Nil(t, stored.Error)

	var summary RunSummary
	require.NoError(t, json.Unmarshal(stored.Summary, &summary))
	assert.Equal(t, "current_cohort", summary.Mode)
	assert.Equal(t, models.MarkerKey(models.JobTypeCurrentCohort), summary.MarkerKey)

	require.Len(t, f.publisher.EventsOfType(events.EventReportGenerated), 1)
	assert.Len(t, f.reportsByKey(), 3)

	// The lock is released once the run finishes.
	_, acquired, err := f.locker.Acquire(ctx, f.batch.ID, time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestProcess_RunFailure(t *testing.T) {
	f := newJobFixture(t)
	boom := errors.New("disk full")
	f.store.FailOn(memory.OpRecordRunMarker, boom)
	job := f.enqueue(models.JobTypeCurrentCohort)

	_, err := f.jobs.Process(context.Background(), ReportJobMessage{JobID: job.ID})
	require.ErrorIs(t, err, boom)

	stored := f.stored(job.ID)
	assert.Equal(t, models.ReportJobFailed, stored.Status)
	require.NotNil(t, stored.Error)
	assert.Contains(t, *stored.Error, "disk full")

	failed := f.publisher.EventsOfType(events.EventReportGenerationFailed)
	require.Len(t, failed, 1)
	data, ok := failed[0].Data.(events.GenerationFailedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, data.Attempts)
	assert.Empty(t, f.reportsByKey())
}

func TestProcess_SkippedWhileBatchLocked(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	_, acquired, err := f.locker.Acquire(ctx, f.batch.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	job := f.enqueue(models.JobTypeCurrentCohort)

	_, err = f.jobs.Process(ctx, ReportJobMessage{JobID: job.ID})
	require.ErrorIs(t, err, ErrBatchRunInProgress)

	stored := f.stored(job.ID)
	assert.Equal(t, models.ReportJobSkipped, stored.Status)
	assert.Zero(t, stored.Attempts)
	require.Len(t, f.publisher.EventsOfType(events.EventReportGenerationSkipped), 1)
	assert.Empty(t, f.reportsByKey())

	// The handler acks skipped jobs.
	assert.NoError(t, f.jobs.ProcessGenerationRequest(ctx, ReportJobMessage{JobID: job.ID}))
}

func TestProcess_RedeliveredJob(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	job := f.enqueue(models.JobTypeCurrentCohort)

	_, err := f.jobs.Process(ctx, ReportJobMessage{JobID: job.ID})
	require.NoError(t, err)

	_, err = f.jobs.Process(ctx, ReportJobMessage{JobID: job.ID})
	assert.ErrorIs(t, err, ErrReportJobFinished)
	assert.Equal(t, 1, f.stored(job.ID).Attempts)

	assert.NoError(t, f.jobs.ProcessGenerationRequest(ctx, ReportJobMessage{JobID: job.ID}))
	assert.Len(t, f.publisher.EventsOfType(events.EventReportGenerated), 1)
}

func TestProcessGenerationRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown job is dropped", func(t *testing.T) {
		f := newJobFixture(t)
		assert.NoError(t, f.jobs.ProcessGenerationRequest(ctx, ReportJobMessage{JobID: "missing"}))
	})

	t.Run("infrastructure failure is retried", func(t *testing.T) {
		f := newJobFixture(t)
		job := f.enqueue(models.JobTypeCurrentCohort)
		boom := errors.New("connection refused")
		f.store.FailOn(memory.OpUpdateReportJob, boom)

		assert.ErrorIs(t, f.jobs.ProcessGenerationRequest(ctx, ReportJobMessage{JobID: job.ID}), boom)
	})
}

func TestListJobs(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	f.jobs.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := f.enqueue(models.JobTypeCurrentCohort)
	second := f.enqueue(models.JobTypeArchivedCohort)
	_, err := f.jobs.Process(ctx, ReportJobMessage{JobID: first.ID})
	require.NoError(t, err)

	all, err := f.jobs.ListJobs(ctx, &ListReportJobsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, defaultJobListLimit, all.Limit)
	require.Len(t, all.Jobs, 2)
	assert.Equal(t, second.ID, all.Jobs[0].ID) // newest first

	queued, err := f.jobs.ListJobs(ctx, &ListReportJobsRequest{Status: string(models.ReportJobQueued)})
	require.NoError(t, err)
	require.Len(t, queued.Jobs, 1)
	assert.Equal(t, second.ID, queued.Jobs[0].ID)

	archived, err := f.jobs.ListJobs(ctx, &ListReportJobsRequest{JobType: models.JobTypeArchivedCohort, BatchID: f.batch.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), archived.Total)

	paged, err := f.jobs.ListJobs(ctx, &ListReportJobsRequest{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), paged.Total)
	require.Len(t, paged.Jobs, 1)
	assert.Equal(t, first.ID, paged.Jobs[0].ID)

	_, err = f.jobs.ListJobs(ctx, &ListReportJobsRequest{Status: "paused"})
	assert.True(t, IsValidation(err))
}

func TestGetJob_NotFound(t *testing.T) {
	f := newJobFixture(t)
	_, err := f.jobs.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReportJobNotFound)
}
