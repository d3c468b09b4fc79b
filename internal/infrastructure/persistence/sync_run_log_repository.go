package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormRunLogRepository implements sync.RunLogRepository using GORM
type GormRunLogRepository struct {
	db *gorm.DB
}

// NewGormRunLogRepository creates a new GormRunLogRepository
func NewGormRunLogRepository(db *gorm.DB) *GormRunLogRepository {
	return &GormRunLogRepository{db: db}
}

// Append writes one run log row
func (r *GormRunLogRepository) Append(ctx context.Context, log *syncdomain.RunLog) error {
	model := &models.RunLogModel{}
	model.FromDomain(log)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListBySeller returns recent run logs for a seller, newest first
func (r *GormRunLogRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]syncdomain.RunLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var logModels []models.RunLogModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("ran_at DESC").
		Limit(limit).
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]syncdomain.RunLog, len(logModels))
	for i, model := range logModels {
		logs[i] = *model.ToDomain()
	}
	return logs, nil
}

// Ensure GormRunLogRepository implements RunLogRepository
var _ syncdomain.RunLogRepository = (*GormRunLogRepository)(nil)
