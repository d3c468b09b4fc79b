package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics records sync job outcomes for dashboards and alerting.
type SyncMetrics struct {
	jobsProcessed metric.Int64Counter
	itemsSynced   metric.Int64Counter
	jobDuration   metric.Float64Histogram
}

// NewSyncMetrics registers the sync job instruments on the meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	jobsProcessed, err := meter.Int64Counter(
		"sync.jobs.processed",
		metric.WithDescription("Number of sync jobs processed"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create jobs processed counter: %w", err)
	}

	itemsSynced, err := meter.Int64Counter(
		"sync.items.synced",
		metric.WithDescription("Number of orders or products synced from channels"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create items synced counter: %w", err)
	}

	jobDuration, err := meter.Float64Histogram(
		"sync.job.duration",
		metric.WithDescription("Sync job execution time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job duration histogram: %w", err)
	}

	return &SyncMetrics{
		jobsProcessed: jobsProcessed,
		itemsSynced:   itemsSynced,
		jobDuration:   jobDuration,
	}, nil
}

// RecordJob records one finished job with its outcome and item count.
func (m *SyncMetrics) RecordJob(ctx context.Context, channelType, jobType, outcome string, itemCount int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("channel_type", channelType),
		attribute.String("job_type", jobType),
		attribute.String("outcome", outcome),
	)
	m.jobsProcessed.Add(ctx, 1, attrs)
	m.jobDuration.Record(ctx, durationSeconds, attrs)
	if itemCount > 0 {
		m.itemsSynced.Add(ctx, int64(itemCount), attrs)
	}
}
