package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormConnectionRepository implements channel.ConnectionRepository using GORM
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GormConnectionRepository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// Save inserts or updates a connection
func (r *GormConnectionRepository) Save(ctx context.Context, conn *channel.Connection) error {
	model := models.ConnectionModelFromDomain(conn)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a connection by its ID
func (r *GormConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive finds the seller's active connection for a channel
func (r *GormConnectionRepository) FindActive(ctx context.Context, sellerID uuid.UUID, channelType channel.Type) (*channel.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND channel_type = ? AND is_active = ?", sellerID, channelType, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, channel.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListBySeller returns the seller's connections matching the filter
func (r *GormConnectionRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, filter channel.ConnectionFilter) ([]channel.Connection, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ConnectionModel{}).
		Where("seller_id = ?", sellerID)

	if filter.ChannelType != nil && filter.ChannelType.IsValid() {
		query = query.Where("channel_type = ?", *filter.ChannelType)
	}
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var connectionModels []models.ConnectionModel
	if err := query.Order("created_at DESC").Find(&connectionModels).Error; err != nil {
		return nil, err
	}

	connections := make([]channel.Connection, len(connectionModels))
	for i, model := range connectionModels {
		connections[i] = *model.ToDomain()
	}
	return connections, nil
}

// ListActiveByChannel returns every active connection for a channel
func (r *GormConnectionRepository) ListActiveByChannel(ctx context.Context, channelType channel.Type) ([]channel.Connection, error) {
	var connectionModels []models.ConnectionModel
	if err := r.db.WithContext(ctx).
		Where("channel_type = ? AND is_active = ?", channelType, true).
		Order("created_at DESC").
		Find(&connectionModels).Error; err != nil {
		return nil, err
	}

	connections := make([]channel.Connection, len(connectionModels))
	for i, model := range connectionModels {
		connections[i] = *model.ToDomain()
	}
	return connections, nil
}

// UpdateStatus sets the connection status
func (r *GormConnectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status channel.ConnectionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ConnectionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrConnectionNotFound
	}
	return nil
}

// Ensure GormConnectionRepository implements ConnectionRepository
var _ channel.ConnectionRepository = (*GormConnectionRepository)(nil)
