package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormProductMappingRepository implements sync.ProductMappingRepository using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

// Upsert inserts or replaces mappings keyed by (connection_id, sku)
func (r *GormProductMappingRepository) Upsert(ctx context.Context, mappings []syncdomain.ProductMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	mappingModels := make([]models.ProductMappingModel, len(mappings))
	for i := range mappings {
		mappingModels[i].FromDomain(&mappings[i])
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "connection_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "price", "stock", "raw", "synced_at",
			}),
		}).
		Create(&mappingModels).Error
}

// ListBySeller returns a seller's product mappings
func (r *GormProductMappingRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]syncdomain.ProductMapping, error) {
	if limit <= 0 {
		limit = 50
	}

	var mappingModels []models.ProductMappingModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("synced_at DESC").
		Limit(limit).
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]syncdomain.ProductMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// Ensure GormProductMappingRepository implements ProductMappingRepository
var _ syncdomain.ProductMappingRepository = (*GormProductMappingRepository)(nil)
