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

var _ repository.AssistantRepository = (*AssistantRepository)(nil)

// AssistantRepository implements repository.AssistantRepository using Bun ORM.
// Assistants and plans are read-only reference data seeded by migration.
type AssistantRepository struct {
	db *bun.DB
}

func NewAssistantRepository(db *bun.DB) *AssistantRepository {
	return &AssistantRepository{db: db}
}

func (r *AssistantRepository) ListAssistants(ctx context.Context, db bun.IDB) ([]*pkgmodels.AIAssistant, error) {
	var rows []*models.AIAssistantModel
	err := db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.AIAssistant, len(rows))
	for i, row := range rows {
		out[i] = models.ToAssistantDomain(row)
	}
	return out, nil
}

func (r *AssistantRepository) GetPlan(ctx context.Context, db bun.IDB, id pkgmodels.PlanID) (*pkgmodels.AIAssistantPlan, error) {
	planModel := new(models.AIAssistantPlanModel)
	err := db.NewSelect().Model(planModel).Where("id = ?", int64(id)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrPlanNotFound
		}
		return nil, err
	}
	return models.ToAssistantPlanDomain(planModel), nil
}

func (r *AssistantRepository) ListPlansForAssistant(ctx context.Context, db bun.IDB, assistantID pkgmodels.AssistantID) ([]*pkgmodels.AIAssistantPlan, error) {
	var rows []*models.AIAssistantPlanModel
	err := db.NewSelect().
		Model(&rows).
		Where("assistant_id = ?", int64(assistantID)).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.AIAssistantPlan, len(rows))
	for i, row := range rows {
		out[i] = models.ToAssistantPlanDomain(row)
	}
	return out, nil
}

func (r *AssistantRepository) DefaultPlan(ctx context.Context, db bun.IDB, assistantID pkgmodels.AssistantID) (*pkgmodels.AIAssistantPlan, error) {
	planModel := new(models.AIAssistantPlanModel)
	err := db.NewSelect().
		Model(planModel).
		Where("assistant_id = ?", int64(assistantID)).
		Where("is_default = TRUE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrPlanNotFound
		}
		return nil, err
	}
	return models.ToAssistantPlanDomain(planModel), nil
}

func (r *AssistantRepository) GetByNames(ctx context.Context, db bun.IDB, assistantName, planName string) (*pkgmodels.AIAssistant, *pkgmodels.AIAssistantPlan, error) {
	assistantModel := new(models.AIAssistantModel)
	err := db.NewSelect().Model(assistantModel).Where("name = ?", assistantName).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, pkgmodels.ErrUnknownAssistantPlan
		}
		return nil, nil, fmt.Errorf("failed to look up assistant %q: %w", assistantName, err)
	}

	planModel := new(models.AIAssistantPlanModel)
	err = db.NewSelect().
		Model(planModel).
		Where("assistant_id = ?", assistantModel.ID).
		Where("name = ?", planName).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, pkgmodels.ErrUnknownAssistantPlan
		}
		return nil, nil, fmt.Errorf("failed to look up plan %q for assistant %q: %w", planName, assistantName, err)
	}

	return models.ToAssistantDomain(assistantModel), models.ToAssistantPlanDomain(planModel), nil
}
