package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

func setupSyncJobTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SyncJobModel{}))
	return db
}

func enqueueTestJob(t *testing.T, repo *GormJobRepository, sellerID uuid.UUID, scheduledAt time.Time) *syncdomain.Job {
	t.Helper()
	job, err := syncdomain.NewJob(sellerID, uuid.New(), syncdomain.JobTypeOrdersSync, nil)
	require.NoError(t, err)
	job.ScheduledAt = scheduledAt
	require.NoError(t, repo.Enqueue(context.Background(), job))
	return job
}

func TestGormJobRepository_EnqueueAndFindByID(t *testing.T) {
	repo := NewGormJobRepository(setupSyncJobTestDB(t))
	ctx := context.Background()

	t.Run("round-trips an enqueued job", func(t *testing.T) {
		sellerID := uuid.New()
		job := enqueueTestJob(t, repo, sellerID, time.Now())

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, found.ID)
		assert.Equal(t, sellerID, found.SellerID)
		assert.Equal(t, syncdomain.JobTypeOrdersSync, found.Type)
		assert.Equal(t, syncdomain.JobStatusPending, found.Status)
	})

	t.Run("returns ErrJobNotFound for unknown ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, syncdomain.ErrJobNotFound)
	})
}

func TestGormJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()

	t.Run("claims oldest jobs first up to limit", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		sellerID := uuid.New()
		base := time.Now().Add(-time.Hour)

		oldest := enqueueTestJob(t, repo, sellerID, base)
		middle := enqueueTestJob(t, repo, sellerID, base.Add(time.Minute))
		enqueueTestJob(t, repo, sellerID, base.Add(2*time.Minute))

		claimed, err := repo.ClaimPending(ctx, 2, nil)
		require.NoError(t, err)
		require.Len(t, claimed, 2)
		assert.Equal(t, oldest.ID, claimed[0].ID)
		assert.Equal(t, middle.ID, claimed[1].ID)
		for _, job := range claimed {
			assert.Equal(t, syncdomain.JobStatusInProgress, job.Status)
			assert.NotNil(t, job.StartedAt)
		}
	})

	t.Run("never returns the same job twice", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		job := enqueueTestJob(t, repo, uuid.New(), time.Now())

		first, err := repo.ClaimPending(ctx, 10, nil)
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, job.ID, first[0].ID)

		second, err := repo.ClaimPending(ctx, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, second)
	})

	t.Run("filters by seller when requested", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		wantSeller := uuid.New()
		enqueueTestJob(t, repo, wantSeller, time.Now())
		enqueueTestJob(t, repo, uuid.New(), time.Now())

		claimed, err := repo.ClaimPending(ctx, 10, &wantSeller)
		require.NoError(t, err)
		require.Len(t, claimed, 1)
		assert.Equal(t, wantSeller, claimed[0].SellerID)
	})

	t.Run("returns nothing for non-positive limit", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		enqueueTestJob(t, repo, uuid.New(), time.Now())

		claimed, err := repo.ClaimPending(ctx, 0, nil)
		require.NoError(t, err)
		assert.Empty(t, claimed)
	})
}

func TestGormJobRepository_Finalize(t *testing.T) {
	ctx := context.Background()

	t.Run("marks a claimed job completed", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		job := enqueueTestJob(t, repo, uuid.New(), time.Now())

		claimed, err := repo.ClaimPending(ctx, 1, nil)
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		require.NoError(t, repo.MarkCompleted(ctx, job.ID))

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, syncdomain.JobStatusCompleted, found.Status)
		assert.NotNil(t, found.FinishedAt)
	})

	t.Run("marks a claimed job failed with the error message", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		job := enqueueTestJob(t, repo, uuid.New(), time.Now())

		_, err := repo.ClaimPending(ctx, 1, nil)
		require.NoError(t, err)

		require.NoError(t, repo.MarkFailed(ctx, job.ID, "credentials rejected"))

		found, err := repo.FindByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, syncdomain.JobStatusFailed, found.Status)
		assert.Equal(t, "credentials rejected", found.LastError)
	})

	t.Run("rejects finalizing a job that was never claimed", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		job := enqueueTestJob(t, repo, uuid.New(), time.Now())

		err := repo.MarkCompleted(ctx, job.ID)
		assert.ErrorIs(t, err, syncdomain.ErrInvalidTransition)
	})

	t.Run("rejects finalizing twice", func(t *testing.T) {
		repo := NewGormJobRepository(setupSyncJobTestDB(t))
		job := enqueueTestJob(t, repo, uuid.New(), time.Now())

		_, err := repo.ClaimPending(ctx, 1, nil)
		require.NoError(t, err)
		require.NoError(t, repo.MarkCompleted(ctx, job.ID))

		err = repo.MarkFailed(ctx, job.ID, "late failure")
		assert.ErrorIs(t, err, syncdomain.ErrInvalidTransition)
	})
}

func TestGormJobRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewGormJobRepository(setupSyncJobTestDB(t))

	sellerA := uuid.New()
	sellerB := uuid.New()
	enqueueTestJob(t, repo, sellerA, time.Now())
	enqueueTestJob(t, repo, sellerA, time.Now())
	enqueueTestJob(t, repo, sellerB, time.Now())

	t.Run("filters by seller", func(t *testing.T) {
		jobs, total, err := repo.List(ctx, syncdomain.JobFilter{SellerID: &sellerA})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, jobs, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := syncdomain.JobStatusCompleted
		jobs, total, err := repo.List(ctx, syncdomain.JobFilter{Status: &status})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, jobs)
	})

	t.Run("paginates", func(t *testing.T) {
		jobs, total, err := repo.List(ctx, syncdomain.JobFilter{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, jobs, 2)
	})
}
