package models

import (
	"time"

	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// ExecutionQueueEntryModel is the single source of truth for what must be
// evaluated next. A partial unique index on (prompt_id) WHERE status IN
// ('pending','in_progress') (declared in the migration) enforces at most
// one active row per prompt.
type ExecutionQueueEntryModel struct {
	bun.BaseModel `bun:"table:execution_queue,alias:eq"`

	ID             int64      `bun:"id,pk,autoincrement" json:"id"`
	PromptID       int64      `bun:"prompt_id,notnull" json:"prompt_id"`
	RequestedBy    string     `bun:"requested_by,notnull" json:"requested_by"`
	RequestBatchID string     `bun:"request_batch_id" json:"request_batch_id,omitempty"`
	RequestedAt    time.Time  `bun:"requested_at,notnull,default:current_timestamp" json:"requested_at"`
	Status         string     `bun:"status,notnull,default:'pending'" json:"status"`
	ClaimedAt      *time.Time `bun:"claimed_at" json:"claimed_at,omitempty"`
	CompletedAt    *time.Time `bun:"completed_at" json:"completed_at,omitempty"`
	EvaluationID   *int64     `bun:"evaluation_id" json:"evaluation_id,omitempty"`
}

func (ExecutionQueueEntryModel) TableName() string { return "execution_queue" }

func (e *ExecutionQueueEntryModel) BeforeInsert(ctx interface{}) error {
	e.RequestedAt = time.Now()
	if e.Status == "" {
		e.Status = string(pkgmodels.QueueStatusPending)
	}
	return nil
}

func ToQueueEntryDomain(e *ExecutionQueueEntryModel) *pkgmodels.ExecutionQueueEntry {
	if e == nil {
		return nil
	}
	var evalID *pkgmodels.EvaluationID
	if e.EvaluationID != nil {
		id := pkgmodels.EvaluationID(*e.EvaluationID)
		evalID = &id
	}
	return &pkgmodels.ExecutionQueueEntry{
		ID:             pkgmodels.QueueEntryID(e.ID),
		PromptID:       pkgmodels.PromptID(e.PromptID),
		RequestedBy:    pkgmodels.UserID(e.RequestedBy),
		RequestBatchID: e.RequestBatchID,
		RequestedAt:    e.RequestedAt,
		Status:         pkgmodels.ExecutionQueueStatus(e.Status),
		ClaimedAt:      e.ClaimedAt,
		CompletedAt:    e.CompletedAt,
		EvaluationID:   evalID,
	}
}

func FromQueueEntryDomain(e *pkgmodels.ExecutionQueueEntry) *ExecutionQueueEntryModel {
	if e == nil {
		return nil
	}
	var evalID *int64
	if e.EvaluationID != nil {
		id := int64(*e.EvaluationID)
		evalID = &id
	}
	return &ExecutionQueueEntryModel{
		ID:             int64(e.ID),
		PromptID:       int64(e.PromptID),
		RequestedBy:    string(e.RequestedBy),
		RequestBatchID: e.RequestBatchID,
		RequestedAt:    e.RequestedAt,
		Status:         string(e.Status),
		ClaimedAt:      e.ClaimedAt,
		CompletedAt:    e.CompletedAt,
		EvaluationID:   evalID,
	}
}
