package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/channelsync/backend/internal/domain/channel"
)

// Domain errors for job queue operations
var (
	// ErrJobNotFound indicates the job does not exist
	ErrJobNotFound = errors.New("sync: job not found")
	// ErrUnknownJobType indicates an unrecognized job type
	ErrUnknownJobType = errors.New("sync: unknown job type")
	// ErrInvalidTransition indicates an illegal job status transition
	ErrInvalidTransition = errors.New("sync: invalid job status transition")
	// ErrJobAlreadyClaimed indicates the job was claimed by another worker
	ErrJobAlreadyClaimed = errors.New("sync: job already claimed")
)

// JobType identifies the kind of synchronization work a job performs.
type JobType string

const (
	JobTypeOrdersSync    JobType = "orders_sync"
	JobTypeProductsSync  JobType = "products_sync"
	JobTypeInventorySync JobType = "inventory_sync"
	JobTypePriceSync     JobType = "price_sync"
)

// IsValid checks if the job type is a known value
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeOrdersSync, JobTypeProductsSync, JobTypeInventorySync, JobTypePriceSync:
		return true
	}
	return false
}

// JobStatus is the job queue state machine:
// pending -> in_progress -> completed | failed.
// A failed job is terminal; operators enqueue a new job instead of
// retrying the same row.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is one unit of synchronization work in the durable queue.
type Job struct {
	ID           uuid.UUID
	SellerID     uuid.UUID
	ConnectionID uuid.UUID
	Type         JobType
	// Parameters carries job-type specific options as JSON
	Parameters  json.RawMessage
	Status      JobStatus
	ScheduledAt time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	LastError   string
	CreatedAt   time.Time
}

// NewJob creates a pending job scheduled to run immediately.
func NewJob(sellerID, connectionID uuid.UUID, jobType JobType, parameters json.RawMessage) (*Job, error) {
	if !jobType.IsValid() {
		return nil, ErrUnknownJobType
	}
	now := time.Now()
	return &Job{
		ID:           uuid.New(),
		SellerID:     sellerID,
		ConnectionID: connectionID,
		Type:         jobType,
		Parameters:   parameters,
		Status:       JobStatusPending,
		ScheduledAt:  now,
		CreatedAt:    now,
	}, nil
}

// Start transitions the job to in_progress. The durable claim happens in
// the repository; this keeps the in-memory entity consistent with it.
func (j *Job) Start() error {
	if j.Status != JobStatusPending {
		return ErrInvalidTransition
	}
	now := time.Now()
	j.Status = JobStatusInProgress
	j.StartedAt = &now
	return nil
}

// Complete marks the job completed.
func (j *Job) Complete() error {
	if j.Status != JobStatusInProgress {
		return ErrInvalidTransition
	}
	now := time.Now()
	j.Status = JobStatusCompleted
	j.FinishedAt = &now
	return nil
}

// Fail marks the job failed with the terminal error message.
func (j *Job) Fail(message string) error {
	if j.Status != JobStatusInProgress {
		return ErrInvalidTransition
	}
	now := time.Now()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.LastError = message
	return nil
}

// Duration returns the job run time, zero until finished.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// BatchResult summarizes one worker invocation.
type BatchResult struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// JobFilter narrows job list queries.
type JobFilter struct {
	SellerID *uuid.UUID
	Type     *JobType
	Status   *JobStatus
	Page     int
	PageSize int
}

// JobRepository is the persistence port for the job queue. ClaimPending is
// the sole shared-mutation point between concurrent worker invocations and
// must be implemented as an atomic conditional update on status.
type JobRepository interface {
	// Enqueue inserts a pending job
	Enqueue(ctx context.Context, job *Job) error

	// ClaimPending atomically transitions up to limit pending jobs to
	// in_progress, ordered by scheduled_at, optionally filtered to one
	// seller, and returns the claimed jobs. A job claimed by a concurrent
	// invocation is skipped, never returned twice.
	ClaimPending(ctx context.Context, limit int, sellerID *uuid.UUID) ([]Job, error)

	// MarkCompleted finalizes a claimed job as completed
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// MarkFailed finalizes a claimed job as failed with the error message
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error

	// FindByID loads a job, ErrJobNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Job, error)

	// List returns jobs matching the filter with a total count
	List(ctx context.Context, filter JobFilter) ([]Job, int64, error)
}

// RunLog is the append-only audit row written once per processed job,
// regardless of outcome.
type RunLog struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	SellerID    uuid.UUID
	ChannelType channel.Type
	JobType     JobType
	Outcome     JobStatus
	ItemCount   int
	Error       string
	Duration    time.Duration
	RanAt       time.Time
}

// RunLogRepository is the persistence port for job run logs.
type RunLogRepository interface {
	// Append writes one run log row
	Append(ctx context.Context, log *RunLog) error

	// ListBySeller returns recent run logs for a seller, newest first
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]RunLog, error)
}
