package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogLowStock scans the catalog for products at or below the
	// restock threshold.
	TaskCatalogLowStock = "catalog:lowstock"
	// TaskCatalogSnapshot rebuilds the barcode snapshot used by imports.
	TaskCatalogSnapshot = "catalog:snapshot"
)

// LowStockPayload carries the threshold for a low stock scan.
type LowStockPayload struct {
	Threshold    int       `json:"threshold"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockTask constructs an Asynq task for a low stock scan.
func NewLowStockTask(threshold int, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockPayload{Threshold: threshold, ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogLowStock, body, asynq.Queue(QueueDefault)), nil
}

// SnapshotPayload carries scheduling metadata for a snapshot rebuild.
type SnapshotPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSnapshotTask constructs an Asynq task for a snapshot rebuild.
func NewSnapshotTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SnapshotPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogSnapshot, body, asynq.Queue(QueueDefault)), nil
}
