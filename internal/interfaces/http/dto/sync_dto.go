package dto

import (
	"encoding/json"
	"time"

	"github.com/channelsync/backend/internal/domain/channel"
	syncdomain "github.com/channelsync/backend/internal/domain/sync"
)

// ConnectChannelRequest is the request body for connecting a channel
type ConnectChannelRequest struct {
	ChannelType string          `json:"channel_type" binding:"required"`
	Credentials json.RawMessage `json:"credentials" binding:"required"`
	Replace     bool            `json:"replace"`
}

// ConnectionResponse is the API shape of a channel connection. Credential
// material is never included.
type ConnectionResponse struct {
	ID          string     `json:"id"`
	ChannelType string     `json:"channel_type"`
	DisplayName string     `json:"display_name"`
	Status      string     `json:"status"`
	IsActive    bool       `json:"is_active"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ConnectionResponseFromDomain converts a domain connection
func ConnectionResponseFromDomain(c *channel.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:          c.ID.String(),
		ChannelType: c.ChannelType.String(),
		DisplayName: c.ChannelType.DisplayName(),
		Status:      string(c.Status),
		IsActive:    c.IsActive,
		LastSyncAt:  c.LastSyncAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// EnqueueJobRequest is the request body for enqueuing a sync job
type EnqueueJobRequest struct {
	ConnectionID string          `json:"connection_id" binding:"required,uuid"`
	Type         string          `json:"type" binding:"required"`
	Parameters   json.RawMessage `json:"parameters"`
}

// JobResponse is the API shape of a sync job
type JobResponse struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connection_id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// JobResponseFromDomain converts a domain job
func JobResponseFromDomain(j *syncdomain.Job) JobResponse {
	return JobResponse{
		ID:           j.ID.String(),
		ConnectionID: j.ConnectionID.String(),
		Type:         string(j.Type),
		Status:       string(j.Status),
		Parameters:   j.Parameters,
		ScheduledAt:  j.ScheduledAt,
		StartedAt:    j.StartedAt,
		FinishedAt:   j.FinishedAt,
		LastError:    j.LastError,
		CreatedAt:    j.CreatedAt,
	}
}

// RunLogResponse is the API shape of a job run log row
type RunLogResponse struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	ChannelType string    `json:"channel_type"`
	JobType     string    `json:"job_type"`
	Outcome     string    `json:"outcome"`
	ItemCount   int       `json:"item_count"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	RanAt       time.Time `json:"ran_at"`
}

// RunLogResponseFromDomain converts a domain run log
func RunLogResponseFromDomain(l *syncdomain.RunLog) RunLogResponse {
	return RunLogResponse{
		ID:          l.ID.String(),
		JobID:       l.JobID.String(),
		ChannelType: l.ChannelType.String(),
		JobType:     string(l.JobType),
		Outcome:     string(l.Outcome),
		ItemCount:   l.ItemCount,
		Error:       l.Error,
		DurationMs:  l.Duration.Milliseconds(),
		RanAt:       l.RanAt,
	}
}

// OrderRecordResponse is the API shape of a synced order
type OrderRecordResponse struct {
	ID           string     `json:"id"`
	ConnectionID string     `json:"connection_id"`
	ChannelType  string     `json:"channel_type"`
	OrderID      string     `json:"order_id"`
	Total        string     `json:"total"`
	Currency     string     `json:"currency,omitempty"`
	Status       string     `json:"status"`
	ItemCount    int        `json:"item_count"`
	PlacedAt     *time.Time `json:"placed_at,omitempty"`
	SyncedAt     time.Time  `json:"synced_at"`
}

// OrderRecordResponseFromDomain converts a domain order record
func OrderRecordResponseFromDomain(r *syncdomain.OrderRecord) OrderRecordResponse {
	return OrderRecordResponse{
		ID:           r.ID.String(),
		ConnectionID: r.ConnectionID.String(),
		ChannelType:  r.ChannelType.String(),
		OrderID:      r.OrderID,
		Total:        r.Total.StringFixed(2),
		Currency:     r.Currency,
		Status:       string(r.Status),
		ItemCount:    r.ItemCount,
		PlacedAt:     r.PlacedAt,
		SyncedAt:     r.SyncedAt,
	}
}

// ProductMappingResponse is the API shape of a synced product
type ProductMappingResponse struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	ChannelType  string    `json:"channel_type"`
	SKU          string    `json:"sku"`
	Title        string    `json:"title"`
	Price        string    `json:"price"`
	Stock        int       `json:"stock"`
	SyncedAt     time.Time `json:"synced_at"`
}

// ProductMappingResponseFromDomain converts a domain product mapping
func ProductMappingResponseFromDomain(p *syncdomain.ProductMapping) ProductMappingResponse {
	return ProductMappingResponse{
		ID:           p.ID.String(),
		ConnectionID: p.ConnectionID.String(),
		ChannelType:  p.ChannelType.String(),
		SKU:          p.SKU,
		Title:        p.Title,
		Price:        p.Price.StringFixed(2),
		Stock:        p.Stock,
		SyncedAt:     p.SyncedAt,
	}
}

// RunWorkerRequest is the request body for the scheduler-triggered worker run
type RunWorkerRequest struct {
	Limit    int    `json:"limit" binding:"omitempty,min=1,max=100"`
	SellerID string `json:"seller_id" binding:"omitempty,uuid"`
}

// BatchResultResponse is the worker run outcome
type BatchResultResponse struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
