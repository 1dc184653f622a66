package models

import (
	"time"

	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// BrightDataBatchModel is the persisted record of an outbound scraper
// batch. The batch correlator keeps an in-memory twin (BatchInfo) for the
// reverse prompt_text -> prompt_id lookup during webhook processing; this
// row survives process restarts for audit and reconciliation.
type BrightDataBatchModel struct {
	bun.BaseModel `bun:"table:brightdata_batches,alias:bdb"`

	BatchID     string       `bun:"batch_id,pk" json:"batch_id"`
	UserID      string       `bun:"user_id,notnull" json:"user_id"`
	PromptIDs   Int64Array   `bun:"prompt_ids,type:bigint[]" json:"prompt_ids"`
	Status      string       `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt   time.Time    `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	CompletedAt *time.Time   `bun:"completed_at" json:"completed_at,omitempty"`
}

func (BrightDataBatchModel) TableName() string { return "brightdata_batches" }

func (b *BrightDataBatchModel) BeforeInsert(ctx interface{}) error {
	b.CreatedAt = time.Now()
	if b.Status == "" {
		b.Status = string(pkgmodels.BatchStatusPending)
	}
	return nil
}

func ToBrightDataBatchDomain(b *BrightDataBatchModel) *pkgmodels.BrightDataBatch {
	if b == nil {
		return nil
	}
	promptIDs := make([]pkgmodels.PromptID, len(b.PromptIDs))
	for i, id := range b.PromptIDs {
		promptIDs[i] = pkgmodels.PromptID(id)
	}
	return &pkgmodels.BrightDataBatch{
		BatchID:     b.BatchID,
		UserID:      pkgmodels.UserID(b.UserID),
		PromptIDs:   promptIDs,
		Status:      pkgmodels.BatchStatus(b.Status),
		CreatedAt:   b.CreatedAt,
		CompletedAt: b.CompletedAt,
	}
}

func FromBrightDataBatchDomain(b *pkgmodels.BrightDataBatch) *BrightDataBatchModel {
	if b == nil {
		return nil
	}
	promptIDs := make(Int64Array, len(b.PromptIDs))
	for i, id := range b.PromptIDs {
		promptIDs[i] = int64(id)
	}
	return &BrightDataBatchModel{
		BatchID:     b.BatchID,
		UserID:      string(b.UserID),
		PromptIDs:   promptIDs,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		CompletedAt: b.CompletedAt,
	}
}
