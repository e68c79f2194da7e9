package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/farmix-pos/farmix/internal/catalog"
)

// CatalogTasks holds the handlers for catalog maintenance jobs.
type CatalogTasks struct {
	service  *catalog.Service
	snapshot *catalog.SnapshotCache
	logger   *slog.Logger
}

// NewCatalogTasks constructs CatalogTasks.
func NewCatalogTasks(service *catalog.Service, snapshot *catalog.SnapshotCache, logger *slog.Logger) *CatalogTasks {
	return &CatalogTasks{service: service, snapshot: snapshot, logger: logger}
}

// HandleLowStock logs every product at or below the configured threshold.
func (t *CatalogTasks) HandleLowStock(ctx context.Context, task *asynq.Task) error {
	var payload LowStockPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	products, err := t.service.LowStock(ctx, payload.Threshold)
	if err != nil {
		return err
	}
	for _, p := range products {
		stock := 0
		if p.Stock != nil {
			stock = *p.Stock
		}
		t.logger.Warn("product low on stock",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int("stock", stock),
			slog.Int("threshold", payload.Threshold),
		)
	}
	t.logger.Info("low stock scan finished",
		slog.Int("flagged", len(products)),
		slog.Int("threshold", payload.Threshold),
	)
	return nil
}

// HandleSnapshot rebuilds the barcode snapshot cache.
func (t *CatalogTasks) HandleSnapshot(ctx context.Context, task *asynq.Task) error {
	var payload SnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	snapshot, err := t.snapshot.Warm(ctx)
	if err != nil {
		return err
	}
	t.logger.Info("catalog snapshot rebuilt", slog.Int("products", len(snapshot)))
	return nil
}
