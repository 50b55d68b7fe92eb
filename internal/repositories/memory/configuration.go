package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/report-service/internal/models"
	"github.com/SAP-F-2025/report-service/internal/repositories"
	"gorm.io/gorm"
)

type configurationRepository struct {
	store *Store
}

func (repo *configurationRepository) RecordRunMarker(_ context.Context, _ *gorm.DB, key string, at time.Time) error {
	repo.store.mutex.Lock()
	defer repo.store.mutex.Unlock()

	if err := repo.store.fail(OpRecordRunMarker); err != nil {
		return err
	}

	now := time.Now()
	value := at.UTC().Format(time.RFC3339Nano)
	if marker, ok := repo.store.configurations[key]; ok {
		marker.ConfigValue = value
		marker.UpdatedAt = now
		return nil
	}

	repo.store.configurations[key] = &models.Configuration{
		ID:          repo.store.nextID(),
		ConfigKey:   key,
		ConfigValue: value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (repo *configurationRepository) GetRunMarker(_ context.Context, _ *gorm.DB, key string) (*models.Configuration, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	marker, ok := repo.store.configurations[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *marker
	return &c, nil
}

func (repo *configurationRepository) ListRunMarkers(_ context.Context, _ *gorm.DB, prefix string) ([]*models.Configuration, error) {
	repo.store.mutex.RLock()
	defer repo.store.mutex.RUnlock()

	var markers []*models.Configuration
	for key, marker := range repo.store.configurations {
		if strings.HasPrefix(key, prefix) {
			c := *marker
			markers = append(markers, &c)
		}
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].ConfigKey < markers[j].ConfigKey })
	return markers, nil
}
