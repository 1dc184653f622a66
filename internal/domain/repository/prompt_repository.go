package repository

import (
	"context"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// PromptRepository persists Prompt rows and their nearest-neighbour lookup
// by embedding, the dedup primitive behind prompt ingest (spec §3, §4.6).
type PromptRepository interface {
	Create(ctx context.Context, db bun.IDB, prompt *models.Prompt) error
	GetByID(ctx context.Context, db bun.IDB, id models.PromptID) (*models.Prompt, error)
	GetByIDs(ctx context.Context, db bun.IDB, ids []models.PromptID) ([]*models.Prompt, error)

	// FindNearest returns the closest existing prompt by cosine distance
	// over the embedding column, or nil if none is within threshold.
	FindNearest(ctx context.Context, db bun.IDB, embedding []float32, threshold float64) (*models.Prompt, error)

	// ListByUser returns prompts owned by userID, newest first.
	ListByUser(ctx context.Context, db bun.IDB, userID models.UserID, limit, offset int) ([]*models.Prompt, error)
}

// PromptGroupRepository persists PromptGroup rows and their prompt bindings.
type PromptGroupRepository interface {
	Create(ctx context.Context, db bun.IDB, group *models.PromptGroup) error
	GetByID(ctx context.Context, db bun.IDB, id models.GroupID) (*models.PromptGroup, error)
	Update(ctx context.Context, db bun.IDB, group *models.PromptGroup) error
	ListByUser(ctx context.Context, db bun.IDB, userID models.UserID) ([]*models.PromptGroup, error)

	// AddPrompt binds promptID to groupID, no-op if already bound.
	AddPrompt(ctx context.Context, db bun.IDB, groupID models.GroupID, promptID models.PromptID) error

	// PromptIDsInGroup returns every prompt id bound to groupID.
	PromptIDsInGroup(ctx context.Context, db bun.IDB, groupID models.GroupID) ([]models.PromptID, error)
}
