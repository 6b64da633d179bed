package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/pkg/jobs"
)

// JobTypeWarmSnapshot refills the snapshot cache of one role.
const JobTypeWarmSnapshot = "warm_snapshot"

type snapshotWarmer interface {
	Warm(ctx context.Context, role models.Role) error
}

// WarmerConfig sizes the warm-up worker pool.
type WarmerConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// SnapshotWarmer refills snapshots in the background after writes.
type SnapshotWarmer struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewSnapshotWarmer wires a jobs queue to the snapshot service.
func NewSnapshotWarmer(snapshots snapshotWarmer, cfg WarmerConfig, logger *zap.Logger) *SnapshotWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		role, ok := job.Payload.(models.Role)
		if !ok {
			return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
		}
		if err := snapshots.Warm(ctx, role); err != nil {
			return err
		}
		logger.Debug("snapshot warmed", zap.String("role", string(role)), zap.Int("attempt", job.Attempt))
		return nil
	}
	queue := jobs.NewQueue("snapshot-warmer", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &SnapshotWarmer{queue: queue, logger: logger}
}

// Start launches the workers.
func (w *SnapshotWarmer) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop waits for in-flight warm-ups to end.
func (w *SnapshotWarmer) Stop() {
	w.queue.Stop()
}

// Schedule queues a warm-up of role unless one is already pending.
func (w *SnapshotWarmer) Schedule(role models.Role) error {
	_, err := w.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeWarmSnapshot,
		Key:     string(role),
		Payload: role,
	})
	return err
}
