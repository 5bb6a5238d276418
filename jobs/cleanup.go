package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// KeyCleaner removes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewIdempotencyCleanupTask constructs the scheduled retention sweep task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// CleanupHandler prunes processed idempotency keys so the table does not grow
// without bound. Keys only guard short-lived client retries; anything older
// than the retention window is safe to drop.
type CleanupHandler struct {
	store     KeyCleaner
	retention time.Duration
	logger    *slog.Logger
}

// NewCleanupHandler constructs the handler.
func NewCleanupHandler(store KeyCleaner, retention time.Duration, logger *slog.Logger) *CleanupHandler {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &CleanupHandler{store: store, retention: retention, logger: logger}
}

// ProcessTask runs one retention sweep.
func (h *CleanupHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if h.store == nil {
		return asynq.SkipRetry
	}
	if err := h.store.Cleanup(ctx, h.retention); err != nil {
		return err
	}
	if h.logger != nil {
		h.logger.Info("idempotency keys pruned", slog.Duration("retention", h.retention))
	}
	return nil
}
