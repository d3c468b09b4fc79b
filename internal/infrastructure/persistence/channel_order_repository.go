package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormOrderRecordRepository implements sync.OrderRecordRepository using GORM
type GormOrderRecordRepository struct {
	db *gorm.DB
}

// NewGormOrderRecordRepository creates a new GormOrderRecordRepository
func NewGormOrderRecordRepository(db *gorm.DB) *GormOrderRecordRepository {
	return &GormOrderRecordRepository{db: db}
}

// Upsert inserts or replaces records keyed by (connection_id, order_id).
// Re-syncing the same channel order updates the stored row in place.
func (r *GormOrderRecordRepository) Upsert(ctx context.Context, records []syncdomain.OrderRecord) error {
	if len(records) == 0 {
		return nil
	}

	recordModels := make([]models.OrderRecordModel, len(records))
	for i := range records {
		recordModels[i].FromDomain(&records[i])
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "connection_id"}, {Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total", "currency", "status", "item_count", "placed_at", "raw", "synced_at",
			}),
		}).
		Create(&recordModels).Error
}

// ListBySeller returns a seller's synced orders, newest first
func (r *GormOrderRecordRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]syncdomain.OrderRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var recordModels []models.OrderRecordModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("synced_at DESC").
		Limit(limit).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]syncdomain.OrderRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// CountBySeller returns the number of synced orders for a seller
func (r *GormOrderRecordRepository) CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderRecordModel{}).
		Where("seller_id = ?", sellerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormOrderRecordRepository implements OrderRecordRepository
var _ syncdomain.OrderRecordRepository = (*GormOrderRecordRepository)(nil)
