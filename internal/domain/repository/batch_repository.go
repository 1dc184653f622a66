package repository

import (
	"context"
	"time"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// BatchRepository persists BrightDataBatch rows: the durable audit trail
// behind the in-memory batch registry (spec §3, §4.4).
type BatchRepository interface {
	Create(ctx context.Context, db bun.IDB, batch *models.BrightDataBatch) error
	GetByID(ctx context.Context, db bun.IDB, batchID string) (*models.BrightDataBatch, error)
	UpdateStatus(ctx context.Context, db bun.IDB, batchID string, status models.BatchStatus, completedAt *time.Time) error
}
