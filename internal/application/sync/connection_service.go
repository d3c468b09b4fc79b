package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/infrastructure/channels"
	"github.com/channelsync/backend/internal/infrastructure/secrets"
)

// ConnectConnectionInput carries the inputs for connecting a channel.
type ConnectConnectionInput struct {
	SellerID    uuid.UUID
	ChannelType channel.Type
	// Credentials is the channel-specific credential JSON, stored encrypted
	Credentials json.RawMessage
	// Replace rotates credentials on an existing active connection instead
	// of failing with ErrConnectionExists
	Replace bool
}

// ConnectionService manages channel connection lifecycle. Credentials are
// validated by constructing the channel adapter before anything is stored,
// then sealed with AES-GCM so plaintext never reaches the database.
type ConnectionService struct {
	connections channel.ConnectionRepository
	registry    *channels.Registry
	cipher      *secrets.Cipher
	logger      *zap.Logger
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(
	connections channel.ConnectionRepository,
	registry *channels.Registry,
	cipher *secrets.Cipher,
	logger *zap.Logger,
) *ConnectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionService{
		connections: connections,
		registry:    registry,
		cipher:      cipher,
		logger:      logger,
	}
}

// Connect validates the credentials and stores an encrypted connection for
// the seller. A second active connection for the same channel is rejected
// unless Replace is set, in which case the credentials are rotated in place.
func (s *ConnectionService) Connect(ctx context.Context, input ConnectConnectionInput) (*channel.Connection, error) {
	if !input.ChannelType.IsValid() {
		return nil, fmt.Errorf("%w: %s", channel.ErrUnsupportedChannel, input.ChannelType)
	}
	if len(input.Credentials) == 0 {
		return nil, channel.ErrInvalidCredentials
	}

	// Building the adapter validates structure and required fields
	if _, err := s.registry.Build(input.ChannelType, input.Credentials); err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.EncryptText(string(input.Credentials))
	if err != nil {
		return nil, fmt.Errorf("encrypting credentials: %w", err)
	}

	existing, err := s.connections.FindActive(ctx, input.SellerID, input.ChannelType)
	if err != nil && !errors.Is(err, channel.ErrConnectionNotFound) {
		return nil, err
	}

	if existing != nil {
		if !input.Replace {
			return nil, channel.ErrConnectionExists
		}
		if err := existing.RotateCredentials(encrypted); err != nil {
			return nil, err
		}
		existing.Status = channel.ConnectionStatusConnected
		if err := s.connections.Save(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("rotated channel connection credentials",
			zap.String("seller_id", input.SellerID.String()),
			zap.String("channel_type", input.ChannelType.String()),
			zap.String("connection_id", existing.ID.String()),
		)
		return existing, nil
	}

	conn, err := channel.NewConnection(input.SellerID, input.ChannelType, encrypted)
	if err != nil {
		return nil, err
	}
	if err := s.connections.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("connected channel",
		zap.String("seller_id", input.SellerID.String()),
		zap.String("channel_type", input.ChannelType.String()),
		zap.String("connection_id", conn.ID.String()),
	)
	return conn, nil
}

// Disconnect deactivates a seller's connection. The row is kept for audit.
func (s *ConnectionService) Disconnect(ctx context.Context, sellerID, connectionID uuid.UUID) error {
	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.SellerID != sellerID {
		return channel.ErrConnectionNotFound
	}

	conn.Disconnect()
	if err := s.connections.Save(ctx, conn); err != nil {
		return err
	}

	s.logger.Info("disconnected channel",
		zap.String("seller_id", sellerID.String()),
		zap.String("connection_id", connectionID.String()),
	)
	return nil
}

// Get loads a seller's connection by ID.
func (s *ConnectionService) Get(ctx context.Context, sellerID, connectionID uuid.UUID) (*channel.Connection, error) {
	conn, err := s.connections.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.SellerID != sellerID {
		return nil, channel.ErrConnectionNotFound
	}
	return conn, nil
}

// List returns the seller's connections matching the filter.
func (s *ConnectionService) List(ctx context.Context, sellerID uuid.UUID, filter channel.ConnectionFilter) ([]channel.Connection, error) {
	return s.connections.ListBySeller(ctx, sellerID, filter)
}

// ResolveShopifyConnection finds the active shopify connection whose stored
// shop domain matches an inbound webhook's shop domain header. Returns
// ErrConnectionNotFound when no connection matches.
func (s *ConnectionService) ResolveShopifyConnection(ctx context.Context, shopDomain string) (*channel.Connection, error) {
	shopDomain = strings.ToLower(strings.TrimSpace(shopDomain))
	if shopDomain == "" {
		return nil, channel.ErrConnectionNotFound
	}

	active, err := s.connections.ListActiveByChannel(ctx, channel.TypeShopify)
	if err != nil {
		return nil, err
	}

	for i := range active {
		plaintext, err := s.cipher.DecryptText(active[i].EncryptedCredentials)
		if err != nil {
			s.logger.Warn("skipping connection with undecryptable credentials",
				zap.String("connection_id", active[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		var creds struct {
			ShopDomain string `json:"shop_domain"`
		}
		if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
			continue
		}
		if strings.ToLower(creds.ShopDomain) == shopDomain {
			return &active[i], nil
		}
	}
	return nil, channel.ErrConnectionNotFound
}
