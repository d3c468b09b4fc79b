package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConnectionStatus represents the health of a channel connection.
type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusError        ConnectionStatus = "error"
)

// IsValid checks if the connection status is a known value
func (s ConnectionStatus) IsValid() bool {
	switch s {
	case ConnectionStatusConnected, ConnectionStatusDisconnected, ConnectionStatusError:
		return true
	}
	return false
}

// Connection links one seller to one external channel. Credential material
// is stored as an encrypted blob and never in plaintext. Disconnecting
// deactivates the row instead of deleting it to preserve audit history.
type Connection struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	ChannelType Type
	// EncryptedCredentials holds the AES-GCM sealed credential JSON
	EncryptedCredentials string
	Status               ConnectionStatus
	IsActive             bool
	LastSyncAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewConnection creates an active connection in connected state.
func NewConnection(sellerID uuid.UUID, channelType Type, encryptedCredentials string) (*Connection, error) {
	if !channelType.IsValid() {
		return nil, ErrUnsupportedChannel
	}
	if encryptedCredentials == "" {
		return nil, ErrInvalidCredentials
	}
	now := time.Now()
	return &Connection{
		ID:                   uuid.New(),
		SellerID:             sellerID,
		ChannelType:          channelType,
		EncryptedCredentials: encryptedCredentials,
		Status:               ConnectionStatusConnected,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// Disconnect deactivates the connection, keeping the row for audit.
func (c *Connection) Disconnect() {
	c.Status = ConnectionStatusDisconnected
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

// MarkError flags the connection after a credential or terminal API failure.
func (c *Connection) MarkError() {
	c.Status = ConnectionStatusError
	c.UpdatedAt = time.Now()
}

// MarkSynced records a successful sync and restores connected status.
func (c *Connection) MarkSynced(at time.Time) {
	c.Status = ConnectionStatusConnected
	c.LastSyncAt = &at
	c.UpdatedAt = time.Now()
}

// RotateCredentials replaces the sealed credential blob after a token refresh.
func (c *Connection) RotateCredentials(encryptedCredentials string) error {
	if encryptedCredentials == "" {
		return ErrInvalidCredentials
	}
	c.EncryptedCredentials = encryptedCredentials
	c.UpdatedAt = time.Now()
	return nil
}

// ConnectionFilter narrows connection list queries.
type ConnectionFilter struct {
	ChannelType *Type
	Status      *ConnectionStatus
	ActiveOnly  bool
}

// ConnectionRepository is the persistence port for channel connections.
type ConnectionRepository interface {
	// Save inserts or updates a connection
	Save(ctx context.Context, conn *Connection) error

	// FindByID loads a connection by ID, ErrConnectionNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)

	// FindActive loads the seller's active connection for a channel,
	// ErrConnectionNotFound when absent
	FindActive(ctx context.Context, sellerID uuid.UUID, channelType Type) (*Connection, error)

	// ListBySeller returns the seller's connections matching the filter
	ListBySeller(ctx context.Context, sellerID uuid.UUID, filter ConnectionFilter) ([]Connection, error)

	// ListActiveByChannel returns every active connection for a channel
	// across sellers, used for inbound webhook attribution
	ListActiveByChannel(ctx context.Context, channelType Type) ([]Connection, error)

	// UpdateStatus sets the connection status
	UpdateStatus(ctx context.Context, id uuid.UUID, status ConnectionStatus) error
}
