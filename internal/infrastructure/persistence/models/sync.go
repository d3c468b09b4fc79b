package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/domain/sync"
)

// SyncJobModel is the persistence model for the durable job queue.
type SyncJobModel struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key"`
	SellerID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_sync_job_seller_status,priority:1"`
	ConnectionID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type         sync.JobType   `gorm:"type:varchar(30);not null"`
	Parameters   []byte         `gorm:"type:jsonb"`
	Status       sync.JobStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_sync_job_seller_status,priority:2;index:idx_sync_job_status_scheduled,priority:1"`
	ScheduledAt  time.Time      `gorm:"not null;index:idx_sync_job_status_scheduled,priority:2"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	LastError    string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain Job.
func (m *SyncJobModel) ToDomain() *sync.Job {
	return &sync.Job{
		ID:           m.ID,
		SellerID:     m.SellerID,
		ConnectionID: m.ConnectionID,
		Type:         m.Type,
		Parameters:   m.Parameters,
		Status:       m.Status,
		ScheduledAt:  m.ScheduledAt,
		StartedAt:    m.StartedAt,
		FinishedAt:   m.FinishedAt,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Job.
func (m *SyncJobModel) FromDomain(j *sync.Job) {
	m.ID = j.ID
	m.SellerID = j.SellerID
	m.ConnectionID = j.ConnectionID
	m.Type = j.Type
	m.Parameters = j.Parameters
	m.Status = j.Status
	m.ScheduledAt = j.ScheduledAt
	m.StartedAt = j.StartedAt
	m.FinishedAt = j.FinishedAt
	m.LastError = j.LastError
	m.CreatedAt = j.CreatedAt
}

// RunLogModel is the persistence model for job run audit rows.
type RunLogModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key"`
	JobID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	SellerID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	ChannelType channel.Type   `gorm:"type:varchar(20);not null"`
	JobType     sync.JobType   `gorm:"type:varchar(30);not null"`
	Outcome     sync.JobStatus `gorm:"type:varchar(20);not null"`
	ItemCount   int            `gorm:"not null;default:0"`
	Error       string         `gorm:"type:text"`
	DurationMs  int64          `gorm:"not null;default:0"`
	RanAt       time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (RunLogModel) TableName() string {
	return "job_run_log"
}

// ToDomain converts the persistence model to a domain RunLog.
func (m *RunLogModel) ToDomain() *sync.RunLog {
	return &sync.RunLog{
		ID:          m.ID,
		JobID:       m.JobID,
		SellerID:    m.SellerID,
		ChannelType: m.ChannelType,
		JobType:     m.JobType,
		Outcome:     m.Outcome,
		ItemCount:   m.ItemCount,
		Error:       m.Error,
		Duration:    time.Duration(m.DurationMs) * time.Millisecond,
		RanAt:       m.RanAt,
	}
}

// FromDomain populates the persistence model from a domain RunLog.
func (m *RunLogModel) FromDomain(l *sync.RunLog) {
	m.ID = l.ID
	m.JobID = l.JobID
	m.SellerID = l.SellerID
	m.ChannelType = l.ChannelType
	m.JobType = l.JobType
	m.Outcome = l.Outcome
	m.ItemCount = l.ItemCount
	m.Error = l.Error
	m.DurationMs = l.Duration.Milliseconds()
	m.RanAt = l.RanAt
}

// OrderRecordModel is the persistence model for normalized channel orders.
type OrderRecordModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primary_key"`
	SellerID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	ConnectionID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uq_channel_order,priority:1"`
	ChannelType  channel.Type        `gorm:"type:varchar(20);not null"`
	OrderID      string              `gorm:"type:varchar(100);not null;uniqueIndex:uq_channel_order,priority:2"`
	Total        decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	Currency     string              `gorm:"type:varchar(10)"`
	Status       channel.OrderStatus `gorm:"type:varchar(20);not null"`
	ItemCount    int                 `gorm:"not null;default:0"`
	PlacedAt     *time.Time
	Raw          []byte    `gorm:"type:jsonb"`
	SyncedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderRecordModel) TableName() string {
	return "channel_orders"
}

// ToDomain converts the persistence model to a domain OrderRecord.
func (m *OrderRecordModel) ToDomain() *sync.OrderRecord {
	return &sync.OrderRecord{
		ID:           m.ID,
		SellerID:     m.SellerID,
		ConnectionID: m.ConnectionID,
		ChannelType:  m.ChannelType,
		OrderID:      m.OrderID,
		Total:        m.Total,
		Currency:     m.Currency,
		Status:       m.Status,
		ItemCount:    m.ItemCount,
		PlacedAt:     m.PlacedAt,
		Raw:          m.Raw,
		SyncedAt:     m.SyncedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderRecord.
func (m *OrderRecordModel) FromDomain(r *sync.OrderRecord) {
	m.ID = r.ID
	m.SellerID = r.SellerID
	m.ConnectionID = r.ConnectionID
	m.ChannelType = r.ChannelType
	m.OrderID = r.OrderID
	m.Total = r.Total
	m.Currency = r.Currency
	m.Status = r.Status
	m.ItemCount = r.ItemCount
	m.PlacedAt = r.PlacedAt
	m.Raw = r.Raw
	m.SyncedAt = r.SyncedAt
}

// ProductMappingModel is the persistence model for normalized channel products.
type ProductMappingModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	SellerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ConnectionID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_channel_product,priority:1"`
	ChannelType  channel.Type    `gorm:"type:varchar(20);not null"`
	SKU          string          `gorm:"type:varchar(100);not null;uniqueIndex:uq_channel_product,priority:2"`
	Title        string          `gorm:"type:varchar(255)"`
	Price        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Stock        int             `gorm:"not null;default:0"`
	Raw          []byte          `gorm:"type:jsonb"`
	SyncedAt     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductMappingModel) TableName() string {
	return "channel_product_mappings"
}

// ToDomain converts the persistence model to a domain ProductMapping.
func (m *ProductMappingModel) ToDomain() *sync.ProductMapping {
	return &sync.ProductMapping{
		ID:           m.ID,
		SellerID:     m.SellerID,
		ConnectionID: m.ConnectionID,
		ChannelType:  m.ChannelType,
		SKU:          m.SKU,
		Title:        m.Title,
		Price:        m.Price,
		Stock:        m.Stock,
		Raw:          m.Raw,
		SyncedAt:     m.SyncedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductMapping.
func (m *ProductMappingModel) FromDomain(p *sync.ProductMapping) {
	m.ID = p.ID
	m.SellerID = p.SellerID
	m.ConnectionID = p.ConnectionID
	m.ChannelType = p.ChannelType
	m.SKU = p.SKU
	m.Title = p.Title
	m.Price = p.Price
	m.Stock = p.Stock
	m.Raw = p.Raw
	m.SyncedAt = p.SyncedAt
}

// SyncLogModel is the persistence model for inventory and price sync logs.
type SyncLogModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primary_key"`
	SellerID     uuid.UUID          `gorm:"type:uuid;not null;index:idx_sync_log_seller_kind,priority:1"`
	ConnectionID uuid.UUID          `gorm:"type:uuid;not null"`
	Kind         sync.SyncLogKind   `gorm:"type:varchar(20);not null;index:idx_sync_log_seller_kind,priority:2"`
	SKU          string             `gorm:"type:varchar(100)"`
	Status       sync.SyncLogStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Detail       string             `gorm:"type:text"`
	CreatedAt    time.Time          `gorm:"not null"`
	UpdatedAt    time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog.
func (m *SyncLogModel) ToDomain() *sync.SyncLog {
	return &sync.SyncLog{
		ID:           m.ID,
		SellerID:     m.SellerID,
		ConnectionID: m.ConnectionID,
		Kind:         m.Kind,
		SKU:          m.SKU,
		Status:       m.Status,
		Detail:       m.Detail,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncLog.
func (m *SyncLogModel) FromDomain(l *sync.SyncLog) {
	m.ID = l.ID
	m.SellerID = l.SellerID
	m.ConnectionID = l.ConnectionID
	m.Kind = l.Kind
	m.SKU = l.SKU
	m.Status = l.Status
	m.Detail = l.Detail
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}
