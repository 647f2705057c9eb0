package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository persists batch history. The service runs without one when no
// database is configured.
type Repository interface {
	CreateBatch(ctx context.Context, record *BatchRecord) error
	GetBatch(ctx context.Context, id uuid.UUID) (*BatchRecord, error)
	ListBatches(ctx context.Context, limit int) ([]BatchRecord, error)
}

type gormRepository struct {
	db *gorm.DB
}

// Open connects to postgres, migrates the history tables and returns a
// repository over them.
func Open(databaseURL string) (Repository, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&BatchRecord{}, &GeneratedFileRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history tables: %w", err)
	}
	return &gormRepository{db: db}, nil
}

func (r *gormRepository) CreateBatch(ctx context.Context, record *BatchRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gormRepository) GetBatch(ctx context.Context, id uuid.UUID) (*BatchRecord, error) {
	var record BatchRecord
	if err := r.db.WithContext(ctx).Preload("Files").First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) ListBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []BatchRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
