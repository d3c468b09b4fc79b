package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/channel"
)

// OrderRecord is a normalized order persisted for a seller after an
// orders_sync run. One row per (connection, channel order id); re-syncing
// updates the row in place.
type OrderRecord struct {
	ID           uuid.UUID
	SellerID     uuid.UUID
	ConnectionID uuid.UUID
	ChannelType  channel.Type
	OrderID      string
	Total        decimal.Decimal
	Currency     string
	Status       channel.OrderStatus
	ItemCount    int
	PlacedAt     *time.Time
	Raw          json.RawMessage
	SyncedAt     time.Time
}

// NewOrderRecord builds a persisted record from a normalized adapter order.
func NewOrderRecord(sellerID, connectionID uuid.UUID, channelType channel.Type, order channel.Order) *OrderRecord {
	rec := &OrderRecord{
		ID:           uuid.New(),
		SellerID:     sellerID,
		ConnectionID: connectionID,
		ChannelType:  channelType,
		OrderID:      order.OrderID,
		Total:        order.Total,
		Currency:     order.Currency,
		Status:       order.Status,
		ItemCount:    len(order.Items),
		Raw:          order.Raw,
		SyncedAt:     time.Now(),
	}
	if !order.PlacedAt.IsZero() {
		placedAt := order.PlacedAt
		rec.PlacedAt = &placedAt
	}
	return rec
}

// ProductMapping links a channel product to a seller, persisted after a
// products_sync run. One row per (connection, sku).
type ProductMapping struct {
	ID           uuid.UUID
	SellerID     uuid.UUID
	ConnectionID uuid.UUID
	ChannelType  channel.Type
	SKU          string
	Title        string
	Price        decimal.Decimal
	Stock        int
	Raw          json.RawMessage
	SyncedAt     time.Time
}

// NewProductMapping builds a persisted mapping from a normalized product.
func NewProductMapping(sellerID, connectionID uuid.UUID, channelType channel.Type, product channel.Product) *ProductMapping {
	return &ProductMapping{
		ID:           uuid.New(),
		SellerID:     sellerID,
		ConnectionID: connectionID,
		ChannelType:  channelType,
		SKU:          product.SKU,
		Title:        product.Title,
		Price:        product.Price,
		Stock:        product.Stock,
		Raw:          product.Raw,
		SyncedAt:     time.Now(),
	}
}

// SyncLogStatus is the state of an inventory or price sync attempt.
type SyncLogStatus string

const (
	SyncLogStatusPending SyncLogStatus = "pending"
	SyncLogStatusSynced  SyncLogStatus = "synced"
	SyncLogStatusError   SyncLogStatus = "error"
)

// SyncLogKind distinguishes inventory from price sync log entries.
type SyncLogKind string

const (
	SyncLogKindInventory SyncLogKind = "inventory"
	SyncLogKindPrice     SyncLogKind = "price"
)

// SyncLog is an append-only audit row for inventory and price sync
// attempts, optionally scoped to one SKU.
type SyncLog struct {
	ID           uuid.UUID
	SellerID     uuid.UUID
	ConnectionID uuid.UUID
	Kind         SyncLogKind
	SKU          string
	Status       SyncLogStatus
	Detail       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSyncLog creates a pending sync log entry.
func NewSyncLog(sellerID, connectionID uuid.UUID, kind SyncLogKind, sku string) *SyncLog {
	now := time.Now()
	return &SyncLog{
		ID:           uuid.New(),
		SellerID:     sellerID,
		ConnectionID: connectionID,
		Kind:         kind,
		SKU:          sku,
		Status:       SyncLogStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MarkSynced resolves the entry as successfully synced.
func (l *SyncLog) MarkSynced() {
	l.Status = SyncLogStatusSynced
	l.UpdatedAt = time.Now()
}

// MarkError resolves the entry with a failure detail.
func (l *SyncLog) MarkError(detail string) {
	l.Status = SyncLogStatusError
	l.Detail = detail
	l.UpdatedAt = time.Now()
}

// OrderRecordRepository persists normalized orders.
type OrderRecordRepository interface {
	// Upsert inserts or replaces records keyed by (connection, order id)
	Upsert(ctx context.Context, records []OrderRecord) error

	// ListBySeller returns a seller's synced orders, newest first
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]OrderRecord, error)

	// CountBySeller returns the number of synced orders for a seller
	CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

// ProductMappingRepository persists normalized product mappings.
type ProductMappingRepository interface {
	// Upsert inserts or replaces mappings keyed by (connection, sku)
	Upsert(ctx context.Context, mappings []ProductMapping) error

	// ListBySeller returns a seller's product mappings
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]ProductMapping, error)
}

// SyncLogRepository persists inventory and price sync log entries.
type SyncLogRepository interface {
	// Save inserts or updates a sync log entry
	Save(ctx context.Context, log *SyncLog) error

	// ListBySeller returns a seller's sync log entries for one kind
	ListBySeller(ctx context.Context, sellerID uuid.UUID, kind SyncLogKind, limit int) ([]SyncLog, error)
}
