package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nexcartbd/nexcart/internal/catalog/supplier"
)

// NewSupplierSyncHandler builds the handler for TaskTypeSupplierSync tasks.
func NewSupplierSyncHandler(syncer *supplier.Syncer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		res, err := syncer.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("supplier sync task finished",
			slog.String("run_id", res.RunID),
			slog.Int("created", res.Created),
			slog.Int("updated", res.Updated),
			slog.Int("failed", res.Failed))
		return nil
	}
}
