package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage/models"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var _ repository.BatchRepository = (*BatchRepository)(nil)

// BatchRepository implements repository.BatchRepository using Bun ORM.
type BatchRepository struct {
	db *bun.DB
}

func NewBatchRepository(db *bun.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Create(ctx context.Context, db bun.IDB, batch *pkgmodels.BrightDataBatch) error {
	batchModel := models.FromBrightDataBatchDomain(batch)
	_, err := db.NewInsert().Model(batchModel).Returning("created_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	batch.CreatedAt = batchModel.CreatedAt
	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, db bun.IDB, batchID string) (*pkgmodels.BrightDataBatch, error) {
	batchModel := new(models.BrightDataBatchModel)
	err := db.NewSelect().Model(batchModel).Where("batch_id = ?", batchID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrBatchNotFound
		}
		return nil, err
	}
	return models.ToBrightDataBatchDomain(batchModel), nil
}

func (r *BatchRepository) UpdateStatus(ctx context.Context, db bun.IDB, batchID string, status pkgmodels.BatchStatus, completedAt *time.Time) error {
	res, err := db.NewUpdate().
		Model((*models.BrightDataBatchModel)(nil)).
		Set("status = ?", string(status)).
		Set("completed_at = ?", completedAt).
		Where("batch_id = ?", batchID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return pkgmodels.ErrBatchNotFound
	}
	return nil
}
