package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"github.com/robfig/cron/v3"
)

const DefaultReportSchedule = "15 2 * * *"

// Scheduler periodically queues a report job for every active batch.
type Scheduler struct {
	cron     *cron.Cron
	repo     repositories.Repository
	jobs     ReportJobService
	schedule string
	logger   *slog.Logger
}

func NewScheduler(repo repositories.Repository, jobs ReportJobService, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultReportSchedule
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))

	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		repo:     repo,
		jobs:     jobs,
		schedule: schedule,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start registers the enqueue entry and starts the cron runner.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		count, err := s.EnqueueActiveBatches(context.Background())
		if err != nil {
			s.logger.Error("Scheduled report enqueue failed", "queued", count, "error", err)
			return
		}
		s.logger.Info("Scheduled report jobs queued", "queued", count)
	})
	if err != nil {
		return fmt.Errorf("failed to register report schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Report scheduler started", "schedule", s.schedule)
	return nil
}

// Stop waits for a running tick to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// EnqueueActiveBatches queues one job per active batch and returns how many
// were queued. A batch that cannot be queued does not stop the others.
func (s *Scheduler) EnqueueActiveBatches(ctx context.Context) (int, error) {
	batches, err := s.repo.Batch().ListActive(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list active batches: %w", err)
	}

	queued := 0
	var firstErr error
	for _, batch := range batches {
		_, err := s.jobs.Enqueue(ctx, &EnqueueReportJobRequest{
			BatchID: batch.ID,
			JobType: scheduledJobType(&batch.Course),
			Trigger: TriggerSchedule,
		})
		if err != nil {
			s.logger.Warn("Failed to queue scheduled report job", "batch_id", batch.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		queued++
	}
	return queued, firstErr
}

func scheduledJobType(course *models.Course) string {
	if course.Is(models.GradingTypeCCE) {
		return models.JobTypeCCE
	}
	return models.JobTypeCurrentCohort
}
