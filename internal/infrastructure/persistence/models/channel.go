package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/channel"
)

// ConnectionModel is the persistence model for the channel Connection entity.
type ConnectionModel struct {
	ID                   uuid.UUID                `gorm:"type:uuid;primary_key"`
	SellerID             uuid.UUID                `gorm:"type:uuid;not null;index:idx_connection_seller,priority:1;index:idx_connection_seller_channel,priority:1"`
	ChannelType          channel.Type             `gorm:"type:varchar(20);not null;index:idx_connection_seller_channel,priority:2"`
	EncryptedCredentials string                   `gorm:"type:text;not null"`
	Status               channel.ConnectionStatus `gorm:"type:varchar(20);not null;default:'connected'"`
	IsActive             bool                     `gorm:"not null;default:true;index"`
	LastSyncAt           *time.Time
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConnectionModel) TableName() string {
	return "channel_connections"
}

// ToDomain converts the persistence model to a domain Connection entity.
func (m *ConnectionModel) ToDomain() *channel.Connection {
	return &channel.Connection{
		ID:                   m.ID,
		SellerID:             m.SellerID,
		ChannelType:          m.ChannelType,
		EncryptedCredentials: m.EncryptedCredentials,
		Status:               m.Status,
		IsActive:             m.IsActive,
		LastSyncAt:           m.LastSyncAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Connection.
func (m *ConnectionModel) FromDomain(c *channel.Connection) {
	m.ID = c.ID
	m.SellerID = c.SellerID
	m.ChannelType = c.ChannelType
	m.EncryptedCredentials = c.EncryptedCredentials
	m.Status = c.Status
	m.IsActive = c.IsActive
	m.LastSyncAt = c.LastSyncAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ConnectionModelFromDomain creates a persistence model from a domain Connection.
func ConnectionModelFromDomain(c *channel.Connection) *ConnectionModel {
	m := &ConnectionModel{}
	m.FromDomain(c)
	return m
}
