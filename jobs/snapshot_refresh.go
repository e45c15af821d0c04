package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pawshaus/pawshaus/internal/jobs"
	"github.com/pawshaus/pawshaus/internal/pricing"
)

// TaskTypeSnapshotRefresh rebuilds the cached pricing snapshot so the first
// quote after a cache expiry never pays the reference-data query.
const TaskTypeSnapshotRefresh = "pricing:snapshot_refresh"

// NewSnapshotRefreshTask constructs the cron task; it carries no payload.
func NewSnapshotRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSnapshotRefresh, nil)
}

// SnapshotRefreshJob re-primes the pricing snapshot cache.
type SnapshotRefreshJob struct {
	Cache   *pricing.SnapshotCache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSnapshotRefreshJob wires dependencies for the refresh handler.
func NewSnapshotRefreshJob(cache *pricing.SnapshotCache, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{Cache: cache, Logger: logger, Metrics: metrics}
}

func (j *SnapshotRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SnapshotRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// Handle drops the cached snapshot and loads a fresh one.
func (j *SnapshotRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("snapshot refresh: handler not configured")
	}

	tracker := j.metrics().Track(TaskTypeSnapshotRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Cache.Invalidate(ctx); err != nil {
		j.logger().Warn("invalidate pricing snapshot", slog.Any("error", err))
	}
	snap, err := j.Cache.Snapshot(ctx)
	if err != nil {
		resultErr = err
		j.logger().Error("refresh pricing snapshot", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("refreshed pricing snapshot",
		slog.Int("tiers", len(snap.Tiers)),
		slog.Int("peak_periods", len(snap.PeakPeriods)),
		slog.Int("services", len(snap.Services)))
	return nil
}
