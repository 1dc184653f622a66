// Package repository defines storage-agnostic interfaces for the evaluation
// platform's persistence layer, implemented under infrastructure/storage.
package repository

import (
	"context"
	"time"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// QueueRepository persists ExecutionQueue rows (spec §3, §4.1).
type QueueRepository interface {
	// Create inserts a new pending queue entry. db lets callers run inside
	// an existing transaction or directly against the pool.
	Create(ctx context.Context, db bun.IDB, entry *models.ExecutionQueueEntry) error

	// GetByID retrieves a queue entry by id.
	GetByID(ctx context.Context, db bun.IDB, id models.QueueEntryID) (*models.ExecutionQueueEntry, error)

	// GetByEvaluationID retrieves the queue entry that owns an evaluation.
	GetByEvaluationID(ctx context.Context, db bun.IDB, evaluationID models.EvaluationID) (*models.ExecutionQueueEntry, error)

	// ActivePromptIDs returns the subset of promptIDs that currently have a
	// pending or in_progress queue row.
	ActivePromptIDs(ctx context.Context, db bun.IDB, promptIDs []models.PromptID) (map[models.PromptID]bool, error)

	// CountPending returns the total number of pending rows.
	CountPending(ctx context.Context, db bun.IDB) (int, error)

	// ListActiveForUser returns pending/in_progress entries for a user, FIFO order.
	ListActiveForUser(ctx context.Context, db bun.IDB, userID models.UserID) ([]*models.ExecutionQueueEntry, error)

	// ListCompletedSince returns entries completed at or after since for a user.
	ListCompletedSince(ctx context.Context, db bun.IDB, userID models.UserID, since time.Time) ([]*models.ExecutionQueueEntry, error)

	// CancelPending transitions the caller's pending rows for promptIDs to
	// cancelled and returns the count affected.
	CancelPending(ctx context.Context, db bun.IDB, promptIDs []models.PromptID, userID models.UserID) (int, error)

	// ResetStaleClaims resets in_progress rows claimed before cutoff back to
	// pending (the stale-claim reaper, spec §4.1 step 1).
	ResetStaleClaims(ctx context.Context, db bun.IDB, cutoff time.Time) (int, error)

	// ClaimNextPending locks and returns the oldest pending row using
	// FOR UPDATE SKIP LOCKED, or nil if the queue is empty.
	ClaimNextPending(ctx context.Context, db bun.IDB) (*models.ExecutionQueueEntry, error)

	// Update persists all mutable fields of an existing entry.
	Update(ctx context.Context, db bun.IDB, entry *models.ExecutionQueueEntry) error

	// RunInTx executes fn within a serializable-enough transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
}
