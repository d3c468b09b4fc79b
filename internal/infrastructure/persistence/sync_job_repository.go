package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "github.com/channelsync/backend/internal/domain/sync"
	"github.com/channelsync/backend/internal/infrastructure/persistence/models"
)

// GormJobRepository implements sync.JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Enqueue inserts a pending job
func (r *GormJobRepository) Enqueue(ctx context.Context, job *syncdomain.Job) error {
	model := &models.SyncJobModel{}
	model.FromDomain(job)
	return r.db.WithContext(ctx).Create(model).Error
}

// ClaimPending atomically claims up to limit pending jobs, oldest first.
// Each candidate is claimed with a conditional UPDATE on status, so a row
// already taken by a concurrent invocation reports zero rows affected and
// is skipped. No job is ever returned to two callers.
func (r *GormJobRepository) ClaimPending(ctx context.Context, limit int, sellerID *uuid.UUID) ([]syncdomain.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("status = ?", syncdomain.JobStatusPending)
	if sellerID != nil {
		query = query.Where("seller_id = ?", *sellerID)
	}

	var candidates []models.SyncJobModel
	if err := query.
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	claimed := make([]syncdomain.Job, 0, len(candidates))
	now := time.Now()
	for _, candidate := range candidates {
		result := r.db.WithContext(ctx).
			Model(&models.SyncJobModel{}).
			Where("id = ? AND status = ?", candidate.ID, syncdomain.JobStatusPending).
			Updates(map[string]any{
				"status":     syncdomain.JobStatusInProgress,
				"started_at": now,
			})
		if result.Error != nil {
			return claimed, result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race to another worker invocation
			continue
		}

		candidate.Status = syncdomain.JobStatusInProgress
		startedAt := now
		candidate.StartedAt = &startedAt
		claimed = append(claimed, *candidate.ToDomain())
	}
	return claimed, nil
}

// MarkCompleted finalizes a claimed job as completed
func (r *GormJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.finalize(ctx, id, syncdomain.JobStatusCompleted, "")
}

// MarkFailed finalizes a claimed job as failed with the error message
func (r *GormJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.finalize(ctx, id, syncdomain.JobStatusFailed, message)
}

func (r *GormJobRepository) finalize(ctx context.Context, id uuid.UUID, status syncdomain.JobStatus, message string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncJobModel{}).
		Where("id = ? AND status = ?", id, syncdomain.JobStatusInProgress).
		Updates(map[string]any{
			"status":      status,
			"finished_at": time.Now(),
			"last_error":  message,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return syncdomain.ErrInvalidTransition
	}
	return nil
}

// FindByID finds a job by its ID
func (r *GormJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.Job, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, syncdomain.ErrJobNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns jobs matching the filter with a total count
func (r *GormJobRepository) List(ctx context.Context, filter syncdomain.JobFilter) ([]syncdomain.Job, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SyncJobModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var jobModels []models.SyncJobModel
	if err := query.Order("created_at DESC").Find(&jobModels).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]syncdomain.Job, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, total, nil
}

// applyFilter applies filter options to the query
func (r *GormJobRepository) applyFilter(query *gorm.DB, filter syncdomain.JobFilter) *gorm.DB {
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Type != nil && filter.Type.IsValid() {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// Ensure GormJobRepository implements JobRepository
var _ syncdomain.JobRepository = (*GormJobRepository)(nil)
