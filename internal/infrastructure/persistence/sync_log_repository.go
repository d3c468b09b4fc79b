package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements sync.SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Save inserts or updates a sync log entry
func (r *GormSyncLogRepository) Save(ctx context.Context, log *syncdomain.SyncLog) error {
	model := &models.SyncLogModel{}
	model.FromDomain(log)
	return r.db.WithContext(ctx).Save(model).Error
}

// ListBySeller returns a seller's sync log entries for one kind
func (r *GormSyncLogRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, kind syncdomain.SyncLogKind, limit int) ([]syncdomain.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logModels []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND kind = ?", sellerID, kind).
		Order("created_at DESC").
		Limit(limit).
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]syncdomain.SyncLog, len(logModels))
	for i, model := range logModels {
		logs[i] = *model.ToDomain()
	}
	return logs, nil
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ syncdomain.SyncLogRepository = (*GormSyncLogRepository)(nil)
