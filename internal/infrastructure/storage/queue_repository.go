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

var _ repository.QueueRepository = (*QueueRepository)(nil)

// QueueRepository implements repository.QueueRepository using Bun ORM.
type QueueRepository struct {
	db *bun.DB
}

func NewQueueRepository(db *bun.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

func (r *QueueRepository) Create(ctx context.Context, db bun.IDB, entry *pkgmodels.ExecutionQueueEntry) error {
	entryModel := models.FromQueueEntryDomain(entry)

	_, err := db.NewInsert().Model(entryModel).Returning("id, requested_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	entry.ID = pkgmodels.QueueEntryID(entryModel.ID)
	entry.RequestedAt = entryModel.RequestedAt
	return nil
}

func (r *QueueRepository) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.QueueEntryID) (*pkgmodels.ExecutionQueueEntry, error) {
	entryModel := new(models.ExecutionQueueEntryModel)
	err := db.NewSelect().Model(entryModel).Where("id = ?", int64(id)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrQueueEntryNotFound
		}
		return nil, err
	}
	return models.ToQueueEntryDomain(entryModel), nil
}

func (r *QueueRepository) GetByEvaluationID(ctx context.Context, db bun.IDB, evaluationID pkgmodels.EvaluationID) (*pkgmodels.ExecutionQueueEntry, error) {
	entryModel := new(models.ExecutionQueueEntryModel)
	err := db.NewSelect().Model(entryModel).Where("evaluation_id = ?", int64(evaluationID)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrQueueEntryNotFound
		}
		return nil, err
	}
	return models.ToQueueEntryDomain(entryModel), nil
}

func (r *QueueRepository) ActivePromptIDs(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID) (map[pkgmodels.PromptID]bool, error) {
	if len(promptIDs) == 0 {
		return map[pkgmodels.PromptID]bool{}, nil
	}

	ids := make([]int64, len(promptIDs))
	for i, id := range promptIDs {
		ids[i] = int64(id)
	}

	var rows []*models.ExecutionQueueEntryModel
	err := db.NewSelect().
		Model(&rows).
		Column("prompt_id").
		Where("prompt_id IN (?)", bun.In(ids)).
		Where("status IN (?)", bun.In([]string{string(pkgmodels.QueueStatusPending), string(pkgmodels.QueueStatusInProgress)})).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	active := make(map[pkgmodels.PromptID]bool, len(rows))
	for _, row := range rows {
		active[pkgmodels.PromptID(row.PromptID)] = true
	}
	return active, nil
}

func (r *QueueRepository) CountPending(ctx context.Context, db bun.IDB) (int, error) {
	return db.NewSelect().
		Model((*models.ExecutionQueueEntryModel)(nil)).
		Where("status = ?", string(pkgmodels.QueueStatusPending)).
		Count(ctx)
}

func (r *QueueRepository) ListActiveForUser(ctx context.Context, db bun.IDB, userID pkgmodels.UserID) ([]*pkgmodels.ExecutionQueueEntry, error) {
	var rows []*models.ExecutionQueueEntryModel
	err := db.NewSelect().
		Model(&rows).
		Where("requested_by = ?", string(userID)).
		Where("status IN (?)", bun.In([]string{string(pkgmodels.QueueStatusPending), string(pkgmodels.QueueStatusInProgress)})).
		Order("requested_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toQueueEntryDomains(rows), nil
}

func (r *QueueRepository) ListCompletedSince(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, since time.Time) ([]*pkgmodels.ExecutionQueueEntry, error) {
	var rows []*models.ExecutionQueueEntryModel
	err := db.NewSelect().
		Model(&rows).
		Where("requested_by = ?", string(userID)).
		Where("status = ?", string(pkgmodels.QueueStatusCompleted)).
		Where("completed_at >= ?", since).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toQueueEntryDomains(rows), nil
}

// CancelPending transitions pending rows owned by userID to cancelled.
// Only pending rows are touched: an in_progress row has already been
// claimed by a worker and must run to completion or time out (spec §4.1).
func (r *QueueRepository) CancelPending(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID, userID pkgmodels.UserID) (int, error) {
	if len(promptIDs) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(promptIDs))
	for i, id := range promptIDs {
		ids[i] = int64(id)
	}

	res, err := db.NewUpdate().
		Model((*models.ExecutionQueueEntryModel)(nil)).
		Set("status = ?", string(pkgmodels.QueueStatusCancelled)).
		Set("completed_at = ?", time.Now()).
		Where("prompt_id IN (?)", bun.In(ids)).
		Where("requested_by = ?", string(userID)).
		Where("status = ?", string(pkgmodels.QueueStatusPending)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel pending queue entries: %w", err)
	}

	affected, err := res.RowsAffected()
	return int(affected), err
}

// ResetStaleClaims resets in_progress rows claimed before cutoff back to
// pending, the stale-claim reaper run inline on every poll_next call.
func (r *QueueRepository) ResetStaleClaims(ctx context.Context, db bun.IDB, cutoff time.Time) (int, error) {
	res, err := db.NewUpdate().
		Model((*models.ExecutionQueueEntryModel)(nil)).
		Set("status = ?", string(pkgmodels.QueueStatusPending)).
		Set("claimed_at = NULL").
		Where("status = ?", string(pkgmodels.QueueStatusInProgress)).
		Where("claimed_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale claims: %w", err)
	}

	affected, err := res.RowsAffected()
	return int(affected), err
}

// ClaimNextPending locks and returns the oldest pending row using
// FOR UPDATE SKIP LOCKED so concurrent pollers never block on each other.
func (r *QueueRepository) ClaimNextPending(ctx context.Context, db bun.IDB) (*pkgmodels.ExecutionQueueEntry, error) {
	entryModel := new(models.ExecutionQueueEntryModel)
	err := db.NewSelect().
		Model(entryModel).
		Where("status = ?", string(pkgmodels.QueueStatusPending)).
		Order("requested_at ASC").
		Limit(1).
		For("UPDATE SKIP LOCKED").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim next pending entry: %w", err)
	}
	return models.ToQueueEntryDomain(entryModel), nil
}

func (r *QueueRepository) Update(ctx context.Context, db bun.IDB, entry *pkgmodels.ExecutionQueueEntry) error {
	entryModel := models.FromQueueEntryDomain(entry)

	_, err := db.NewUpdate().
		Model(entryModel).
		Column("status", "claimed_at", "completed_at", "evaluation_id").
		Where("id = ?", entryModel.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update queue entry: %w", err)
	}
	return nil
}

func (r *QueueRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, fn)
}

func toQueueEntryDomains(rows []*models.ExecutionQueueEntryModel) []*pkgmodels.ExecutionQueueEntry {
	out := make([]*pkgmodels.ExecutionQueueEntry, len(rows))
	for i, row := range rows {
		out[i] = models.ToQueueEntryDomain(row)
	}
	return out
}
