package sync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/channelsync/backend/internal/domain/channel"
	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/channels"
	"github.com/channelsync/backend/internal/infrastructure/httpclient"
	"github.com/channelsync/backend/internal/infrastructure/persistence"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
	"github.com/channelsync/backend/internal/infrastructure/secrets"
)

// workerHarness wires a worker against sqlite-backed repositories and the
// mock channel so a batch runs end to end without network access.
type workerHarness struct {
	worker      *Worker
	jobs        syncdomain.JobRepository
	runLogs     syncdomain.RunLogRepository
	orders      syncdomain.OrderRecordRepository
	products    syncdomain.ProductMappingRepository
	connections channel.ConnectionRepository
	cipher      *secrets.Cipher
}

func newWorkerHarness(t *testing.T) *workerHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ConnectionModel{},
		&models.SyncJobModel{},
		&models.RunLogModel{},
		&models.OrderRecordModel{},
		&models.ProductMappingModel{},
		&models.SyncLogModel{},
	))

	cipher, err := secrets.NewCipher("worker-test-secret")
	require.NoError(t, err)

	jobs := persistence.NewGormJobRepository(db)
	runLogs := persistence.NewGormRunLogRepository(db)
	orders := persistence.NewGormOrderRecordRepository(db)
	products := persistence.NewGormProductMappingRepository(db)
	syncLogs := persistence.NewGormSyncLogRepository(db)
	connections := persistence.NewGormConnectionRepository(db)

	registry := channels.NewRegistry(httpclient.New(httpclient.Options{}), nil)
	worker := NewWorker(jobs, runLogs, orders, products, syncLogs, connections, registry, cipher, nil)

	return &workerHarness{
		worker:      worker,
		jobs:        jobs,
		runLogs:     runLogs,
		orders:      orders,
		products:    products,
		connections: connections,
		cipher:      cipher,
	}
}

// connectMockChannel stores an active mock connection with sealed credentials.
func (h *workerHarness) connectMockChannel(t *testing.T, sellerID uuid.UUID) *channel.Connection {
	t.Helper()
	encrypted, err := h.cipher.EncryptText(`{"store_name":"Worker Test Store"}`)
	require.NoError(t, err)
	conn, err := channel.NewConnection(sellerID, channel.TypeMock, encrypted)
	require.NoError(t, err)
	require.NoError(t, h.connections.Save(context.Background(), conn))
	return conn
}

func (h *workerHarness) enqueue(t *testing.T, sellerID, connectionID uuid.UUID, jobType syncdomain.JobType) *syncdomain.Job {
	t.Helper()
	job, err := syncdomain.NewJob(sellerID, connectionID, jobType, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.NoError(t, h.jobs.Enqueue(context.Background(), job))
	return job
}

func TestWorker_ProcessPendingJobs_OrdersSync(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	conn := h.connectMockChannel(t, sellerID)
	job := h.enqueue(t, sellerID, conn.ID, syncdomain.JobTypeOrdersSync)

	result, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.BatchResult{Processed: 1, Succeeded: 1, Failed: 0}, result)

	// Job finalized as completed
	processed, err := h.jobs.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobStatusCompleted, processed.Status)
	require.NotNil(t, processed.FinishedAt)

	// Mock channel produced two orders, both stored as normalized records
	records, err := h.orders.ListBySeller(ctx, sellerID, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, conn.ID, record.ConnectionID)
		assert.Equal(t, channel.TypeMock, record.ChannelType)
	}

	// Exactly one run log row with the item count
	runs, err := h.runLogs.ListBySeller(ctx, sellerID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, job.ID, runs[0].JobID)
	assert.Equal(t, syncdomain.JobStatusCompleted, runs[0].Outcome)
	assert.Equal(t, 2, runs[0].ItemCount)
	assert.Empty(t, runs[0].Error)

	// The connection records the sync time
	refreshed, err := h.connections.FindByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastSyncAt)
}

func TestWorker_ProcessPendingJobs_ProductsSync(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	conn := h.connectMockChannel(t, sellerID)
	h.enqueue(t, sellerID, conn.ID, syncdomain.JobTypeProductsSync)

	result, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)

	mappings, err := h.products.ListBySeller(ctx, sellerID, 10)
	require.NoError(t, err)
	assert.Len(t, mappings, 3)
}

func TestWorker_ProcessPendingJobs_IsolatesFailures(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	good := h.connectMockChannel(t, sellerID)
	goodJob := h.enqueue(t, sellerID, good.ID, syncdomain.JobTypeOrdersSync)

	// A connection whose sealed credentials do not decrypt
	broken, err := channel.NewConnection(sellerID, channel.TypeMock, "bm90LXZhbGlkLWNpcGhlcnRleHQ=")
	require.NoError(t, err)
	require.NoError(t, h.connections.Save(ctx, broken))
	brokenJob := h.enqueue(t, sellerID, broken.ID, syncdomain.JobTypeOrdersSync)

	result, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.BatchResult{Processed: 2, Succeeded: 1, Failed: 1}, result)

	completed, err := h.jobs.FindByID(ctx, goodJob.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobStatusCompleted, completed.Status)

	failed, err := h.jobs.FindByID(ctx, brokenJob.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobStatusFailed, failed.Status)
	assert.Contains(t, failed.LastError, "decrypting credentials")

	// The broken connection is flagged for the operator
	flagged, err := h.connections.FindByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, channel.ConnectionStatusError, flagged.Status)

	// Both outcomes are audited
	runs, err := h.runLogs.ListBySeller(ctx, sellerID, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestWorker_ProcessPendingJobs_InactiveConnectionFails(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	conn := h.connectMockChannel(t, sellerID)
	conn.Disconnect()
	require.NoError(t, h.connections.Save(ctx, conn))

	job := h.enqueue(t, sellerID, conn.ID, syncdomain.JobTypeOrdersSync)

	result, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.BatchResult{Processed: 1, Succeeded: 0, Failed: 1}, result)

	failed, err := h.jobs.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobStatusFailed, failed.Status)
	assert.Contains(t, failed.LastError, "inactive")

	runs, err := h.runLogs.ListBySeller(ctx, sellerID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, syncdomain.JobStatusFailed, runs[0].Outcome)
}

func TestWorker_ProcessPendingJobs_FailedJobsAreTerminal(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	conn := h.connectMockChannel(t, sellerID)
	conn.Disconnect()
	require.NoError(t, h.connections.Save(ctx, conn))
	h.enqueue(t, sellerID, conn.ID, syncdomain.JobTypeOrdersSync)

	first, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Failed)

	// A second invocation finds nothing to claim
	second, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.BatchResult{}, second)
}

func TestWorker_ProcessPendingJobs_SellerFilter(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerA := uuid.New()
	sellerB := uuid.New()

	connA := h.connectMockChannel(t, sellerA)
	connB := h.connectMockChannel(t, sellerB)
	jobA := h.enqueue(t, sellerA, connA.ID, syncdomain.JobTypeOrdersSync)
	jobB := h.enqueue(t, sellerB, connB.ID, syncdomain.JobTypeOrdersSync)

	result, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{SellerID: &sellerA})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.BatchResult{Processed: 1, Succeeded: 1, Failed: 0}, result)

	processedA, err := h.jobs.FindByID(ctx, jobA.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobStatusCompleted, processedA.Status)

	untouchedB, err := h.jobs.FindByID(ctx, jobB.ID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.JobStatusPending, untouchedB.Status)
}

func TestWorker_ProcessPendingJobs_LimitCapsTheBatch(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	conn := h.connectMockChannel(t, sellerID)
	for i := 0; i < 3; i++ {
		h.enqueue(t, sellerID, conn.ID, syncdomain.JobTypeOrdersSync)
	}

	result, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	remainder, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, remainder.Processed)
}

func TestWorker_ProcessPendingJobs_InventoryAndPriceSync(t *testing.T) {
	h := newWorkerHarness(t)
	ctx := context.Background()
	sellerID := uuid.New()

	conn := h.connectMockChannel(t, sellerID)
	h.enqueue(t, sellerID, conn.ID, syncdomain.JobTypeInventorySync)
	h.enqueue(t, sellerID, conn.ID, syncdomain.JobTypePriceSync)

	result, err := h.worker.ProcessPendingJobs(ctx, ProcessOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.BatchResult{Processed: 2, Succeeded: 2, Failed: 0}, result)

	runs, err := h.runLogs.ListBySeller(ctx, sellerID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// One sync log row per catalog SKU in each pass
	assert.Equal(t, 3, runs[0].ItemCount)
	assert.Equal(t, 3, runs[1].ItemCount)
}
