package repository

import (
	"context"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// AssistantRepository is the read-only lookup for AI assistants and their
// pricing plans (spec §3, static reference data seeded by migration).
type AssistantRepository interface {
	ListAssistants(ctx context.Context, db bun.IDB) ([]*models.AIAssistant, error)
	GetPlan(ctx context.Context, db bun.IDB, id models.PlanID) (*models.AIAssistantPlan, error)
	ListPlansForAssistant(ctx context.Context, db bun.IDB, assistantID models.AssistantID) ([]*models.AIAssistantPlan, error)

	// DefaultPlan returns the plan flagged is_default for the given assistant
	// (partial unique index guarantees at most one per assistant).
	DefaultPlan(ctx context.Context, db bun.IDB, assistantID models.AssistantID) (*models.AIAssistantPlan, error)

	// GetByNames resolves the (assistant_name, plan_name) pair the HTTP API
	// accepts on /evaluations/poll and /evaluations/results (spec §6) into
	// the assistant and plan rows.
	GetByNames(ctx context.Context, db bun.IDB, assistantName, planName string) (*models.AIAssistant, *models.AIAssistantPlan, error)
}
