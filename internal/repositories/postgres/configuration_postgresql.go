package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConfigurationPostgreSQL struct {
	db *gorm.DB
}

func NewConfigurationPostgreSQL(db *gorm.DB) repositories.ConfigurationRepository {
	return &ConfigurationPostgreSQL{db: db}
}

func (c *ConfigurationPostgreSQL) RecordRunMarker(ctx context.Context, tx *gorm.DB, key string, at time.Time) error {
	marker := &models.Configuration{
		ConfigKey:   key,
		ConfigValue: at.UTC().Format(time.RFC3339Nano),
	}

	if err := conn(ctx, c.db, tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"config_value", "updated_at"}),
		}).
		Create(marker).Error; err != nil {
		return fmt.Errorf("failed to record run marker: %w", err)
	}
	return nil
}

func (c *ConfigurationPostgreSQL) GetRunMarker(ctx context.Context, tx *gorm.DB, key string) (*models.Configuration, error) {
	var marker models.Configuration
	if err := conn(ctx, c.db, tx).
		Where("config_key = ?", key).
		First(&marker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run marker: %w", err)
	}
	return &marker, nil
}

func (c *ConfigurationPostgreSQL) ListRunMarkers(ctx context.Context, tx *gorm.DB, prefix string) ([]*models.Configuration, error) {
	var markers []*models.Configuration
	if err := conn(ctx, c.db, tx).
		Where("config_key LIKE ?", prefix+"%").
		Order("config_key").
		Find(&markers).Error; err != nil {
		return nil, fmt.Errorf("failed to list run markers: %w", err)
	}
	return markers, nil
}
