package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage/models"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var _ repository.EvaluationRepository = (*EvaluationRepository)(nil)

// EvaluationRepository implements repository.EvaluationRepository using Bun ORM.
type EvaluationRepository struct {
	db *bun.DB
}

func NewEvaluationRepository(db *bun.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func (r *EvaluationRepository) Create(ctx context.Context, db bun.IDB, eval *pkgmodels.PromptEvaluation) error {
	evalModel := models.FromEvaluationDomain(eval)

	_, err := db.NewInsert().Model(evalModel).Returning("id, created_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create evaluation: %w", err)
	}

	eval.ID = pkgmodels.EvaluationID(evalModel.ID)
	eval.CreatedAt = evalModel.CreatedAt
	return nil
}

func (r *EvaluationRepository) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.EvaluationID) (*pkgmodels.PromptEvaluation, error) {
	evalModel := new(models.PromptEvaluationModel)
	err := db.NewSelect().Model(evalModel).Where("id = ?", int64(id)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrEvaluationNotFound
		}
		return nil, err
	}
	return models.ToEvaluationDomain(evalModel), nil
}

func (r *EvaluationRepository) Update(ctx context.Context, db bun.IDB, eval *pkgmodels.PromptEvaluation) error {
	evalModel := models.FromEvaluationDomain(eval)

	_, err := db.NewUpdate().
		Model(evalModel).
		Column("status", "claimed_at", "completed_at", "answer").
		Where("id = ?", evalModel.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) Delete(ctx context.Context, db bun.IDB, id pkgmodels.EvaluationID) error {
	_, err := db.NewDelete().
		Model((*models.PromptEvaluationModel)(nil)).
		Where("id = ?", int64(id)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete evaluation: %w", err)
	}
	return nil
}

// LatestCompletedByPrompt returns the most recently completed evaluation for
// each prompt under a given assistant plan, used by /evaluations/results.
func (r *EvaluationRepository) LatestCompletedByPrompt(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID, assistantPlanID pkgmodels.PlanID) (map[pkgmodels.PromptID]*pkgmodels.PromptEvaluation, error) {
	if len(promptIDs) == 0 {
		return map[pkgmodels.PromptID]*pkgmodels.PromptEvaluation{}, nil
	}

	ids := make([]int64, len(promptIDs))
	for i, id := range promptIDs {
		ids[i] = int64(id)
	}

	var rows []*models.PromptEvaluationModel
	err := db.NewSelect().
		Model(&rows).
		Where("prompt_id IN (?)", bun.In(ids)).
		Where("assistant_plan_id = ?", int64(assistantPlanID)).
		Where("status = ?", string(pkgmodels.EvaluationStatusCompleted)).
		Order("prompt_id ASC", "completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[pkgmodels.PromptID]*pkgmodels.PromptEvaluation, len(promptIDs))
	for _, row := range rows {
		promptID := pkgmodels.PromptID(row.PromptID)
		if _, seen := latest[promptID]; seen {
			continue
		}
		latest[promptID] = models.ToEvaluationDomain(row)
	}
	return latest, nil
}

// CompletedForPrompt returns every completed evaluation for a prompt, newest
// first, used by the selection analyzer.
func (r *EvaluationRepository) CompletedForPrompt(ctx context.Context, db bun.IDB, promptID pkgmodels.PromptID) ([]*pkgmodels.PromptEvaluation, error) {
	var rows []*models.PromptEvaluationModel
	err := db.NewSelect().
		Model(&rows).
		Where("prompt_id = ?", int64(promptID)).
		Where("status = ?", string(pkgmodels.EvaluationStatusCompleted)).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.PromptEvaluation, len(rows))
	for i, row := range rows {
		out[i] = models.ToEvaluationDomain(row)
	}
	return out, nil
}

func (r *EvaluationRepository) HasInProgressForPrompt(ctx context.Context, db bun.IDB, promptID pkgmodels.PromptID) (bool, error) {
	count, err := db.NewSelect().
		Model((*models.PromptEvaluationModel)(nil)).
		Where("prompt_id = ?", int64(promptID)).
		Where("status = ?", string(pkgmodels.EvaluationStatusInProgress)).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
