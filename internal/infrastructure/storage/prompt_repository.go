package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage/models"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var _ repository.PromptRepository = (*PromptRepository)(nil)
var _ repository.PromptGroupRepository = (*PromptGroupRepository)(nil)

// PromptRepository implements repository.PromptRepository using Bun ORM.
type PromptRepository struct {
	db *bun.DB
}

func NewPromptRepository(db *bun.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

func (r *PromptRepository) Create(ctx context.Context, db bun.IDB, prompt *pkgmodels.Prompt) error {
	promptModel := models.FromPromptDomain(prompt)

	_, err := db.NewInsert().Model(promptModel).Returning("id, created_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}

	prompt.ID = pkgmodels.PromptID(promptModel.ID)
	prompt.CreatedAt = promptModel.CreatedAt
	return nil
}

func (r *PromptRepository) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.PromptID) (*pkgmodels.Prompt, error) {
	promptModel := new(models.PromptModel)
	err := db.NewSelect().Model(promptModel).Where("id = ?", int64(id)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrPromptNotFound
		}
		return nil, err
	}
	return models.ToPromptDomain(promptModel), nil
}

func (r *PromptRepository) GetByIDs(ctx context.Context, db bun.IDB, ids []pkgmodels.PromptID) ([]*pkgmodels.Prompt, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rawIDs := make([]int64, len(ids))
	for i, id := range ids {
		rawIDs[i] = int64(id)
	}

	var rows []*models.PromptModel
	err := db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(rawIDs)).Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.Prompt, len(rows))
	for i, row := range rows {
		out[i] = models.ToPromptDomain(row)
	}
	return out, nil
}

// FindNearest scans existing prompts and returns the closest one by cosine
// distance, or nil if the best match falls outside threshold. The prompts
// store has no vector index (no pgvector in the teacher's stack), so
// candidates are fetched and scored in application code; this is acceptable
// at the moderate prompt-catalog volumes this platform targets (spec §9,
// Open Question "embedding store").
func (r *PromptRepository) FindNearest(ctx context.Context, db bun.IDB, embedding []float32, threshold float64) (*pkgmodels.Prompt, error) {
	var rows []*models.PromptModel
	err := db.NewSelect().
		Model(&rows).
		Where("embedding IS NOT NULL").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var best *models.PromptModel
	bestSimilarity := -1.0
	for _, row := range rows {
		sim := cosineSimilarity(embedding, []float32(row.Embedding))
		if sim > bestSimilarity {
			bestSimilarity = sim
			best = row
		}
	}

	if best == nil || bestSimilarity < threshold {
		return nil, nil
	}
	return models.ToPromptDomain(best), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func (r *PromptRepository) ListByUser(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, limit, offset int) ([]*pkgmodels.Prompt, error) {
	var rows []*models.PromptModel
	err := db.NewSelect().
		Model(&rows).
		Where("user_id = ?", string(userID)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.Prompt, len(rows))
	for i, row := range rows {
		out[i] = models.ToPromptDomain(row)
	}
	return out, nil
}

// PromptGroupRepository implements repository.PromptGroupRepository using Bun ORM.
type PromptGroupRepository struct {
	db *bun.DB
}

func NewPromptGroupRepository(db *bun.DB) *PromptGroupRepository {
	return &PromptGroupRepository{db: db}
}

func (r *PromptGroupRepository) Create(ctx context.Context, db bun.IDB, group *pkgmodels.PromptGroup) error {
	groupModel := models.FromPromptGroupDomain(group)

	_, err := db.NewInsert().Model(groupModel).Returning("id, created_at, updated_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create prompt group: %w", err)
	}

	group.ID = pkgmodels.GroupID(groupModel.ID)
	group.CreatedAt = groupModel.CreatedAt
	group.UpdatedAt = groupModel.UpdatedAt
	return nil
}

func (r *PromptGroupRepository) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.GroupID) (*pkgmodels.PromptGroup, error) {
	groupModel := new(models.PromptGroupModel)
	err := db.NewSelect().Model(groupModel).Where("id = ?", int64(id)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrGroupNotFound
		}
		return nil, err
	}
	return models.ToPromptGroupDomain(groupModel), nil
}

func (r *PromptGroupRepository) Update(ctx context.Context, db bun.IDB, group *pkgmodels.PromptGroup) error {
	groupModel := models.FromPromptGroupDomain(group)

	_, err := db.NewUpdate().
		Model(groupModel).
		Column("title", "topic_id", "brand", "competitors", "updated_at").
		Where("id = ?", groupModel.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update prompt group: %w", err)
	}
	return nil
}

func (r *PromptGroupRepository) ListByUser(ctx context.Context, db bun.IDB, userID pkgmodels.UserID) ([]*pkgmodels.PromptGroup, error) {
	var rows []*models.PromptGroupModel
	err := db.NewSelect().
		Model(&rows).
		Where("user_id = ?", string(userID)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.PromptGroup, len(rows))
	for i, row := range rows {
		out[i] = models.ToPromptGroupDomain(row)
	}
	return out, nil
}

func (r *PromptGroupRepository) AddPrompt(ctx context.Context, db bun.IDB, groupID pkgmodels.GroupID, promptID pkgmodels.PromptID) error {
	binding := &models.PromptGroupBindingModel{
		GroupID:  int64(groupID),
		PromptID: int64(promptID),
	}

	_, err := db.NewInsert().
		Model(binding).
		On("CONFLICT (group_id, prompt_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to bind prompt to group: %w", err)
	}
	return nil
}

func (r *PromptGroupRepository) PromptIDsInGroup(ctx context.Context, db bun.IDB, groupID pkgmodels.GroupID) ([]pkgmodels.PromptID, error) {
	var rows []*models.PromptGroupBindingModel
	err := db.NewSelect().
		Model(&rows).
		Column("prompt_id").
		Where("group_id = ?", int64(groupID)).
		Order("added_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]pkgmodels.PromptID, len(rows))
	for i, row := range rows {
		out[i] = pkgmodels.PromptID(row.PromptID)
	}
	return out, nil
}
