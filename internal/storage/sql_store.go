package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps keys in the kv_entries table.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.KVEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("Failed to read key from database", err, map[string]interface{}{
			"key": key,
		})
		return "", false, fmt.Errorf("sql get %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	entry := model.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		logger.Error("Failed to write key to database", err, map[string]interface{}{
			"key": key,
		})
		return fmt.Errorf("sql set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&model.KVEntry{}).Error; err != nil {
		return fmt.Errorf("sql delete %s: %w", key, err)
	}
	return nil
}
