package configstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	interfaces "papertrader/internal/domain/interfaces"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SystemConfig is one runtime setting.
type SystemConfig struct {
	Key         string `gorm:"primaryKey;size:128"`
	Value       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text"`
	UpdatedAt   time.Time
}

func (SystemConfig) TableName() string {
	return "system_config"
}

// GormStore keeps settings in the system_config table.
type GormStore struct {
	db *gorm.DB
}

var _ interfaces.ConfigStore = (*GormStore)(nil)

// Open connects to PostgreSQL with query logging disabled.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return New(db), nil
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&SystemConfig{}); err != nil {
		return fmt.Errorf("migrate system_config: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row SystemConfig
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %s: %w", key, err)
	}
	return row.Value, true, nil
}

// Set upserts the value. An empty description keeps the stored one.
func (s *GormStore) Set(ctx context.Context, key, value, description string) error {
	columns := []string{"value", "updated_at"}
	if description != "" {
		columns = append(columns, "description")
	}
	row := SystemConfig{Key: key, Value: value, Description: description}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
