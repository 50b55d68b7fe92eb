package postgres

import (
	"context"

	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db            *gorm.DB
	batch         repositories.BatchRepository
	report        repositories.ReportRepository
	cce           repositories.CceRepository
	configuration repositories.ConfigurationRepository
	reportJob     repositories.ReportJobRepository
}

// NewRepository builds the PostgreSQL-backed repository set.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:            db,
		batch:         NewBatchPostgreSQL(db),
		report:        NewReportPostgreSQL(db),
		cce:           NewCcePostgreSQL(db),
		configuration: NewConfigurationPostgreSQL(db),
		reportJob:     NewReportJobPostgreSQL(db),
	}
}

func (r *repository) Batch() repositories.BatchRepository                 { return r.batch }
func (r *repository) Report() repositories.ReportRepository               { return r.report }
func (r *repository) Cce() repositories.CceRepository                     { return r.cce }
func (r *repository) Configuration() repositories.ConfigurationRepository { return r.configuration }
func (r *repository) ReportJob() repositories.ReportJobRepository         { return r.reportJob }

func (r *repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// conn picks the transaction when one is in progress.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
