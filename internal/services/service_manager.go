package services

import (
	"log/slog"

	"github.com/SAP-F-2025/report-service/internal/cache"
	"github.com/SAP-F-2025/report-service/internal/events"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"github.com/SAP-F-2025/report-service/internal/validator"
)

// ServiceManager gives handlers and workers access to every service.
type ServiceManager interface {
	Reports() ReportService
	ReportJobs() ReportJobService
	Export() ExportService
}

type ServiceManagerConfig struct {
	Reports ReportServiceConfig
	Jobs    ReportJobServiceConfig
}

type serviceManager struct {
	reports    ReportService
	reportJobs ReportJobService
	export     ExportService
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	locker cache.RunLocker,
	publisher events.EventPublisher,
	validator *validator.Validator,
	config ServiceManagerConfig,
	logger *slog.Logger,
) ServiceManager {
	reports := NewReportService(repo, cacheService, config.Reports, logger)

	return &serviceManager{
		reports:    reports,
		reportJobs: NewReportJobService(repo, reports, locker, publisher, validator, config.Jobs, logger),
		export:     NewExportService(repo, reports, logger),
	}
}

func (m *serviceManager) Reports() ReportService {
	return m.reports
}

func (m *serviceManager) ReportJobs() ReportJobService {
	return m.reportJobs
}

func (m *serviceManager) Export() ExportService {
	return m.export
}
