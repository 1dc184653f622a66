package repository

import (
	"context"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// EvaluationRepository persists PromptEvaluation rows (spec §3, §4.1).
type EvaluationRepository interface {
	Create(ctx context.Context, db bun.IDB, eval *models.PromptEvaluation) error
	GetByID(ctx context.Context, db bun.IDB, id models.EvaluationID) (*models.PromptEvaluation, error)
	Update(ctx context.Context, db bun.IDB, eval *models.PromptEvaluation) error
	Delete(ctx context.Context, db bun.IDB, id models.EvaluationID) error

	// LatestCompletedByPrompt returns the most recently completed evaluation
	// for each (promptID, assistantPlanID) pair, used by /evaluations/results.
	LatestCompletedByPrompt(ctx context.Context, db bun.IDB, promptIDs []models.PromptID, assistantPlanID models.PlanID) (map[models.PromptID]*models.PromptEvaluation, error)

	// CompletedForPrompt returns every completed evaluation for a prompt,
	// newest first, used by the selection analyzer (spec §4.3).
	CompletedForPrompt(ctx context.Context, db bun.IDB, promptID models.PromptID) ([]*models.PromptEvaluation, error)

	// HasInProgressForPrompt reports whether any evaluation for the prompt
	// is currently in_progress.
	HasInProgressForPrompt(ctx context.Context, db bun.IDB, promptID models.PromptID) (bool, error)
}
