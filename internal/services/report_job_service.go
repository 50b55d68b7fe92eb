package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"github.com/SAP-F-2025/report-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"

	defaultJobListLimit = 20
)

// ReportJobService queues report runs and executes them one batch at a time.
type ReportJobService interface {
	Enqueue(ctx context.Context, req *EnqueueReportJobRequest) (*models.ReportJob, error)
	Process(ctx context.Context, msg ReportJobMessage) (*models.ReportJob, error)
	GetJob(ctx context.Context, id string) (*models.ReportJob, error)
	ListJobs(ctx context.Context, req *ListReportJobsRequest) (*ReportJobListResponse, error)

	events.JobProcessor
}

type ReportJobServiceConfig struct {
	LockTTL time.Duration
}

type reportJobService struct {
	repo          repositories.Repository
	reports       ReportService
	locker        cache.RunLocker
	publisher     events.EventPublisher
	validator     *validator.Validator
	config        ReportJobServiceConfig
	logger        *slog.Logger
	serviceLogger *ServiceLogger
	now           func() time.Time
}

func NewReportJobService(
	repo repositories.Repository,
	reports ReportService,
	locker cache.RunLocker,
	publisher events.EventPublisher,
	validator *validator.Validator,
	config ReportJobServiceConfig,
	logger *slog.Logger,
) ReportJobService {
	if config.LockTTL <= 0 {
		config.LockTTL = 30 * time.Minute
	}
	return &reportJobService{
		repo:      repo,
		reports:   reports,
		locker:    locker,
		publisher: publisher,
		validator: validator,
		config:    config,
		logger:    logger,
		serviceLogger: NewServiceLogger(logger, LogConfig{
			Service:   "report-service",
			Component: "report_jobs",
		}),
		now: time.Now,
	}
}

// ===== ENQUEUE =====

func (s *reportJobService) Enqueue(ctx context.Context, req *EnqueueReportJobRequest) (*models.ReportJob, error) {
	op := s.serviceLogger.WithOperation(ctx, "enqueue_report_job", req.BatchID, req.JobType)

	job, err := s.enqueue(ctx, req)
	op.LogResult(err)
	return job, err
}

func (s *reportJobService) enqueue(ctx context.Context, req *EnqueueReportJobRequest) (*models.ReportJob, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Batch().GetByID(ctx, nil, req.BatchID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %d", ErrBatchNotFound, req.BatchID)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerAPI
	}

	job := &models.ReportJob{
		ID:        uuid.NewString(),
		JobObject: models.JobObjectBatch,
		BatchID:   req.BatchID,
		JobType:   req.JobType,
		Trigger:   trigger,
		Status:    models.ReportJobQueued,
		CreatedAt: s.now(),
	}
	if err := s.repo.ReportJob().Create(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("failed to create report job: %w", err)
	}

	event := events.NewReportEvent(events.EventReportGenerationRequested, events.GenerationRequestedEvent{
		JobID:       job.ID,
		BatchID:     job.BatchID,
		JobType:     job.JobType,
		Trigger:     job.Trigger,
		RequestedAt: job.CreatedAt,
	})
	if err := s.publisher.PublishReportEvent(ctx, event); err != nil {
		message := err.Error()
		completed := s.now()
		job.Status = models.ReportJobFailed
		job.Error = &message
		job.CompletedAt = &completed
		if updateErr := s.repo.ReportJob().Update(ctx, nil, job); updateErr != nil {
			s.logger.Error("Failed to mark unpublished job as failed", "job_id", job.ID, "error", updateErr)
		}
		return job, fmt.Errorf("%w: %v", ErrEventPublishFailure, err)
	}

	return job, nil
}

// ===== PROCESSING =====

// Process runs a queued job. A job whose batch is already being processed
// is marked skipped and ErrBatchRunInProgress is returned.
func (s *reportJobService) Process(ctx context.Context, msg ReportJobMessage) (*models.ReportJob, error) {
	job, err := s.GetJob(ctx, msg.JobID)
	if err != nil {
		return nil, err
	}
	if isTerminal(job.Status) {
		return job, fmt.Errorf("%w: %s is %s", ErrReportJobFinished, job.ID, job.Status)
	}

	token, acquired, err := s.locker.Acquire(ctx, job.BatchID, s.config.LockTTL)
	if err != nil {
		return job, err
	}
	if !acquired {
		return job, s.skip(ctx, job)
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), job.BatchID, token); err != nil {
			s.logger.Error("Failed to release run lock", "batch_id", job.BatchID, "error", err)
		}
	}()

	started := s.now()
	job.Status = models.ReportJobRunning
	job.Attempts++
	job.StartedAt = &started
	job.Error = nil
	if err := s.repo.ReportJob().Update(ctx, nil, job); err != nil {
		return job, fmt.Errorf("failed to mark report job running: %w", err)
	}

	summary, runErr := s.reports.Run(ctx, job.BatchID, job.JobType)
	completed := s.now()
	job.CompletedAt = &completed

	if runErr != nil {
		message := runErr.Error()
		job.Status = models.ReportJobFailed
		job.Error = &message
		if err := s.repo.ReportJob().Update(ctx, nil, job); err != nil {
			return job, fmt.Errorf("failed to mark report job failed: %w", err)
		}
		s.publish(ctx, events.EventReportGenerationFailed, events.GenerationFailedEvent{
			JobID:    job.ID,
			BatchID:  job.BatchID,
			JobType:  job.JobType,
			Error:    message,
			Attempts: job.Attempts,
			FailedAt: completed,
		})
		return job, runErr
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		return job, fmt.Errorf("failed to encode run summary: %w", err)
	}
	job.Status = models.ReportJobCompleted
	job.Summary = datatypes.JSON(encoded)
	if err := s.repo.ReportJob().Update(ctx, nil, job); err != nil {
		return job, fmt.Errorf("failed to mark report job completed: %w", err)
	}

	s.publish(ctx, events.EventReportGenerated, events.ReportGeneratedEvent{
		JobID:       job.ID,
		BatchID:     job.BatchID,
		JobType:     job.JobType,
		Mode:        summary.Mode,
		Summary:     summary,
		CompletedAt: completed,
	})
	return job, nil
}

func (s *reportJobService) skip(ctx context.Context, job *models.ReportJob) error {
	now := s.now()
	reason := ErrBatchRunInProgress.Error()
	job.Status = models.ReportJobSkipped
	job.Error = &reason
	job.CompletedAt = &now
	if err := s.repo.ReportJob().Update(ctx, nil, job); err != nil {
		return fmt.Errorf("failed to mark report job skipped: %w", err)
	}

	s.logger.Warn("Skipping report job, batch run in progress", "job_id", job.ID, "batch_id", job.BatchID)
	s.publish(ctx, events.EventReportGenerationSkipped, events.GenerationSkippedEvent{
		JobID:     job.ID,
		BatchID:   job.BatchID,
		JobType:   job.JobType,
		Reason:    reason,
		SkippedAt: now,
	})
	return fmt.Errorf("%w: batch %d", ErrBatchRunInProgress, job.BatchID)
}

// ProcessGenerationRequest is the job topic handler. Outcomes already
// recorded on the job are not redelivered; anything else is returned so the
// transport retries.
func (s *reportJobService) ProcessGenerationRequest(ctx context.Context, request events.GenerationRequestedEvent) error {
	job, err := s.Process(ctx, request)
	switch {
	case err == nil:
		return nil
	case IsNotFound(err):
		s.logger.Warn("Dropping request for unknown report job", "job_id", request.JobID)
		return nil
	case errors.Is(err, ErrReportJobFinished):
		s.logger.Info("Ignoring redelivered report job", "job_id", request.JobID)
		return nil
	case job != nil && isTerminal(job.Status):
		return nil
	default:
		return err
	}
}

func (s *reportJobService) publish(ctx context.Context, eventType events.EventType, data interface{}) {
	if err := s.publisher.PublishReportEvent(ctx, events.NewReportEvent(eventType, data)); err != nil {
		s.logger.Warn("Failed to publish report outcome", "event_type", eventType, "error", err)
	}
}

func isTerminal(status models.ReportJobStatus) bool {
	switch status {
	case models.ReportJobCompleted, models.ReportJobFailed, models.ReportJobSkipped:
		return true
	}
	return false
}

// ===== READS =====

func (s *reportJobService) GetJob(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.ReportJob().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrReportJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to get report job: %w", err)
	}
	return job, nil
}

func (s *reportJobService) ListJobs(ctx context.Context, req *ListReportJobsRequest) (*ReportJobListResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	filters := repositories.ReportJobFilters{
		JobObject: req.JobObject,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if filters.Limit == 0 {
		filters.Limit = defaultJobListLimit
	}
	if req.JobType != "" {
		jobType := req.JobType
		filters.JobType = &jobType
	}
	if req.BatchID != 0 {
		batchID := req.BatchID
		filters.BatchID = &batchID
	}
	if req.Status != "" {
		status := models.ReportJobStatus(req.Status)
		filters.Status = &status
	}

	jobs, total, err := s.repo.ReportJob().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list report jobs: %w", err)
	}

	return &ReportJobListResponse{
		Jobs:   jobs,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}
