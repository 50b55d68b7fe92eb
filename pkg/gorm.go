package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/report-service/internal/config"
	"github.com/SAP-F-2025/report-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// ReportTables are the tables the service owns and migrates.
func ReportTables() []interface{} {
	return []interface{}{
		&models.GroupedExamReport{},
		&models.CceReport{},
		&models.Configuration{},
		&models.ReportJob{},
	}
}

// SourceTables are owned by the school application. They are only migrated
// when the service runs against its own database, in development.
func SourceTables() []interface{} {
	return []interface{}{
		&models.Course{},
		&models.Batch{},
		&models.Student{},
		&models.BatchStudent{},
		&models.Subject{},
		&models.StudentsSubject{},
		&models.ExamGroup{},
		&models.GroupedExam{},
		&models.GradingLevel{},
		&models.Exam{},
		&models.ExamScore{},
		&models.CceGradeSet{},
		&models.CceGrade{},
		&models.FaGroup{},
		&models.FaCriteria{},
		&models.ObservationGroup{},
		&models.Observation{},
		&models.DescriptiveIndicator{},
		&models.AssessmentScore{},
	}
}

func MigrateDatabase(db *gorm.DB, cfg *config.Config) error {
	tables := ReportTables()
	if !cfg.IsProduction() {
		tables = append(SourceTables(), tables...)
	}
	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
