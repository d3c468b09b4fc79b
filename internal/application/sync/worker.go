package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/channel"
	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/channels"
	"github.com/channelsync/backend/internal/infrastructure/secrets"
	"github.com/channelsync/backend/internal/infrastructure/telemetry"
)

// DefaultBatchLimit bounds one worker invocation when no limit is given.
const DefaultBatchLimit = 10

// ProcessOptions narrows one worker invocation.
type ProcessOptions struct {
	// Limit caps the number of jobs claimed, DefaultBatchLimit when zero
	Limit int
	// SellerID restricts the batch to one seller's jobs when set
	SellerID *uuid.UUID
}

// Worker drains the sync job queue. Jobs are claimed atomically so
// concurrent invocations never process the same job twice, then executed
// sequentially with per-job error isolation: one failing job marks itself
// failed and the batch moves on. Failed jobs are terminal; a new job must
// be enqueued to retry. Every processed job gets exactly one run log row.
type Worker struct {
	jobs        syncdomain.JobRepository
	runLogs     syncdomain.RunLogRepository
	orders      syncdomain.OrderRecordRepository
	products    syncdomain.ProductMappingRepository
	syncLogs    syncdomain.SyncLogRepository
	connections channel.ConnectionRepository
	registry    *channels.Registry
	cipher      *secrets.Cipher
	logger      *zap.Logger
	metrics     *telemetry.SyncMetrics
}

// NewWorker creates a new Worker
func NewWorker(
	jobs syncdomain.JobRepository,
	runLogs syncdomain.RunLogRepository,
	orders syncdomain.OrderRecordRepository,
	products syncdomain.ProductMappingRepository,
	syncLogs syncdomain.SyncLogRepository,
	connections channel.ConnectionRepository,
	registry *channels.Registry,
	cipher *secrets.Cipher,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		jobs:        jobs,
		runLogs:     runLogs,
		orders:      orders,
		products:    products,
		syncLogs:    syncLogs,
		connections: connections,
		registry:    registry,
		cipher:      cipher,
		logger:      logger,
	}
}

// WithMetrics enables per-job metric recording.
func (w *Worker) WithMetrics(metrics *telemetry.SyncMetrics) *Worker {
	w.metrics = metrics
	return w
}

// ProcessPendingJobs claims and runs up to opts.Limit pending jobs and
// reports how many were processed, succeeded and failed.
func (w *Worker) ProcessPendingJobs(ctx context.Context, opts ProcessOptions) (syncdomain.BatchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	claimed, err := w.jobs.ClaimPending(ctx, limit, opts.SellerID)
	if err != nil {
		return syncdomain.BatchResult{}, fmt.Errorf("claiming pending jobs: %w", err)
	}

	result := syncdomain.BatchResult{Processed: len(claimed)}
	for i := range claimed {
		if err := w.processJob(ctx, &claimed[i]); err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}

	w.logger.Info("processed sync job batch",
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// processJob runs one claimed job to a terminal state and writes its run
// log row. The returned error reports the job outcome, not a batch abort.
func (w *Worker) processJob(ctx context.Context, job *syncdomain.Job) error {
	started := time.Now()
	log := w.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("seller_id", job.SellerID.String()),
		zap.String("job_type", string(job.Type)),
	)

	channelType, itemCount, runErr := w.runJob(ctx, job)

	outcome := syncdomain.JobStatusCompleted
	errMsg := ""
	if runErr != nil {
		outcome = syncdomain.JobStatusFailed
		errMsg = runErr.Error()
		if err := w.jobs.MarkFailed(ctx, job.ID, errMsg); err != nil {
			log.Error("failed to mark job failed", zap.Error(err))
		}
		log.Warn("sync job failed", zap.Error(runErr))
	} else {
		if err := w.jobs.MarkCompleted(ctx, job.ID); err != nil {
			log.Error("failed to mark job completed", zap.Error(err))
		}
		log.Info("sync job completed", zap.Int("item_count", itemCount))
	}

	runLog := &syncdomain.RunLog{
		ID:          uuid.New(),
		JobID:       job.ID,
		SellerID:    job.SellerID,
		ChannelType: channelType,
		JobType:     job.Type,
		Outcome:     outcome,
		ItemCount:   itemCount,
		Error:       errMsg,
		Duration:    time.Since(started),
		RanAt:       started,
	}
	if w.metrics != nil {
		w.metrics.RecordJob(ctx, channelType.String(), string(job.Type), string(outcome),
			itemCount, time.Since(started).Seconds())
	}

	if err := w.runLogs.Append(ctx, runLog); err != nil {
		// The job outcome is already durable; losing the audit row is
		// logged but does not flip the result
		log.Error("failed to append run log", zap.Error(err))
	}

	return runErr
}

// runJob resolves the connection and adapter, then dispatches on job type.
func (w *Worker) runJob(ctx context.Context, job *syncdomain.Job) (channel.Type, int, error) {
	conn, err := w.connections.FindByID(ctx, job.ConnectionID)
	if err != nil {
		return "", 0, fmt.Errorf("loading connection: %w", err)
	}
	if !conn.IsActive {
		return conn.ChannelType, 0, channel.ErrConnectionInactive
	}

	credentialJSON, err := w.cipher.DecryptText(conn.EncryptedCredentials)
	if err != nil {
		w.markConnectionError(ctx, conn)
		return conn.ChannelType, 0, fmt.Errorf("decrypting credentials: %w", err)
	}

	adapter, err := w.registry.Build(conn.ChannelType, []byte(credentialJSON))
	if err != nil {
		w.markConnectionError(ctx, conn)
		return conn.ChannelType, 0, err
	}

	var itemCount int
	switch job.Type {
	case syncdomain.JobTypeOrdersSync:
		itemCount, err = w.syncOrders(ctx, conn, adapter)
	case syncdomain.JobTypeProductsSync:
		itemCount, err = w.syncProducts(ctx, conn, adapter)
	case syncdomain.JobTypeInventorySync:
		itemCount, err = w.syncLevels(ctx, conn, adapter, syncdomain.SyncLogKindInventory)
	case syncdomain.JobTypePriceSync:
		itemCount, err = w.syncLevels(ctx, conn, adapter, syncdomain.SyncLogKindPrice)
	default:
		err = fmt.Errorf("%w: %s", syncdomain.ErrUnknownJobType, job.Type)
	}
	if err != nil {
		return conn.ChannelType, itemCount, err
	}

	conn.MarkSynced(time.Now())
	if saveErr := w.connections.Save(ctx, conn); saveErr != nil {
		w.logger.Error("failed to record connection sync time",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(saveErr),
		)
	}
	return conn.ChannelType, itemCount, nil
}

// syncOrders pulls all channel orders and upserts normalized records.
func (w *Worker) syncOrders(ctx context.Context, conn *channel.Connection, adapter channel.Adapter) (int, error) {
	orders, err := adapter.FetchOrders(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]syncdomain.OrderRecord, len(orders))
	for i, order := range orders {
		records[i] = *syncdomain.NewOrderRecord(conn.SellerID, conn.ID, conn.ChannelType, order)
	}
	if err := w.orders.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("storing order records: %w", err)
	}
	return len(records), nil
}

// syncProducts pulls the channel catalog and upserts product mappings.
func (w *Worker) syncProducts(ctx context.Context, conn *channel.Connection, adapter channel.Adapter) (int, error) {
	products, err := adapter.FetchProducts(ctx)
	if err != nil {
		return 0, err
	}

	mappings := make([]syncdomain.ProductMapping, len(products))
	for i, product := range products {
		mappings[i] = *syncdomain.NewProductMapping(conn.SellerID, conn.ID, conn.ChannelType, product)
	}
	if err := w.products.Upsert(ctx, mappings); err != nil {
		return 0, fmt.Errorf("storing product mappings: %w", err)
	}
	return len(mappings), nil
}

// syncLevels records an inventory or price reconciliation pass as sync log
// rows, one per catalog SKU.
func (w *Worker) syncLevels(ctx context.Context, conn *channel.Connection, adapter channel.Adapter, kind syncdomain.SyncLogKind) (int, error) {
	products, err := adapter.FetchProducts(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, product := range products {
		entry := syncdomain.NewSyncLog(conn.SellerID, conn.ID, kind, product.SKU)
		switch kind {
		case syncdomain.SyncLogKindInventory:
			entry.Detail = fmt.Sprintf("stock=%d", product.Stock)
		case syncdomain.SyncLogKindPrice:
			entry.Detail = fmt.Sprintf("price=%s", product.Price.String())
		}
		entry.MarkSynced()
		if err := w.syncLogs.Save(ctx, entry); err != nil {
			return count, fmt.Errorf("storing sync log for sku %s: %w", product.SKU, err)
		}
		count++
	}
	return count, nil
}

func (w *Worker) markConnectionError(ctx context.Context, conn *channel.Connection) {
	if err := w.connections.UpdateStatus(ctx, conn.ID, channel.ConnectionStatusError); err != nil {
		w.logger.Error("failed to mark connection errored",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
	}
}
