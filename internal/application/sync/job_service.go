package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/channel"
	syncdomain "github.com/channelsync/backend/internal/domain/sync"
)

// EnqueueJobInput carries the inputs for enqueuing a sync job.
type EnqueueJobInput struct {
	SellerID     uuid.UUID
	ConnectionID uuid.UUID
	Type         syncdomain.JobType
	Parameters   json.RawMessage
}

// JobService enqueues sync jobs and exposes read access to jobs, run logs
// and synced data. Job execution lives in Worker.
type JobService struct {
	jobs        syncdomain.JobRepository
	runLogs     syncdomain.RunLogRepository
	orders      syncdomain.OrderRecordRepository
	products    syncdomain.ProductMappingRepository
	connections channel.ConnectionRepository
	logger      *zap.Logger
}

// NewJobService creates a new JobService
func NewJobService(
	jobs syncdomain.JobRepository,
	runLogs syncdomain.RunLogRepository,
	orders syncdomain.OrderRecordRepository,
	products syncdomain.ProductMappingRepository,
	connections channel.ConnectionRepository,
	logger *zap.Logger,
) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{
		jobs:        jobs,
		runLogs:     runLogs,
		orders:      orders,
		products:    products,
		connections: connections,
		logger:      logger,
	}
}

// Enqueue validates the target connection and inserts a pending job.
func (s *JobService) Enqueue(ctx context.Context, input EnqueueJobInput) (*syncdomain.Job, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: %s", syncdomain.ErrUnknownJobType, input.Type)
	}

	conn, err := s.connections.FindByID(ctx, input.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn.SellerID != input.SellerID {
		return nil, channel.ErrConnectionNotFound
	}
	if !conn.IsActive {
		return nil, channel.ErrConnectionInactive
	}

	job, err := syncdomain.NewJob(input.SellerID, input.ConnectionID, input.Type, input.Parameters)
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("enqueued sync job",
		zap.String("job_id", job.ID.String()),
		zap.String("seller_id", input.SellerID.String()),
		zap.String("connection_id", input.ConnectionID.String()),
		zap.String("job_type", string(input.Type)),
	)
	return job, nil
}

// GetJob loads a seller's job by ID.
func (s *JobService) GetJob(ctx context.Context, sellerID, jobID uuid.UUID) (*syncdomain.Job, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.SellerID != sellerID {
		return nil, syncdomain.ErrJobNotFound
	}
	return job, nil
}

// ListJobs returns jobs matching the filter with a total count.
func (s *JobService) ListJobs(ctx context.Context, filter syncdomain.JobFilter) ([]syncdomain.Job, int64, error) {
	return s.jobs.List(ctx, filter)
}

// ListRuns returns recent run logs for a seller, newest first.
func (s *JobService) ListRuns(ctx context.Context, sellerID uuid.UUID, limit int) ([]syncdomain.RunLog, error) {
	return s.runLogs.ListBySeller(ctx, sellerID, limit)
}

// ListOrders returns a seller's synced orders with the total count.
func (s *JobService) ListOrders(ctx context.Context, sellerID uuid.UUID, limit int) ([]syncdomain.OrderRecord, int64, error) {
	records, err := s.orders.ListBySeller(ctx, sellerID, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.CountBySeller(ctx, sellerID)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListProducts returns a seller's synced product mappings.
func (s *JobService) ListProducts(ctx context.Context, sellerID uuid.UUID, limit int) ([]syncdomain.ProductMapping, error) {
	return s.products.ListBySeller(ctx, sellerID, limit)
}
