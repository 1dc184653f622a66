package batchcorrelator

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// fakeBatchRepo is an in-memory stand-in for repository.BatchRepository.
type fakeBatchRepo struct {
	batches map[string]*pkgmodels.BrightDataBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[string]*pkgmodels.BrightDataBatch)}
}

func (r *fakeBatchRepo) Create(ctx context.Context, db bun.IDB, batch *pkgmodels.BrightDataBatch) error {
	batch.CreatedAt = time.Now()
	cp := *batch
	r.batches[batch.BatchID] = &cp
	return nil
}

func (r *fakeBatchRepo) GetByID(ctx context.Context, db bun.IDB, batchID string) (*pkgmodels.BrightDataBatch, error) {
	b, ok := r.batches[batchID]
	if !ok {
		return nil, pkgmodels.ErrBatchNotFound
	}
	return b, nil
}

func (r *fakeBatchRepo) UpdateStatus(ctx context.Context, db bun.IDB, batchID string, status pkgmodels.BatchStatus, completedAt *time.Time) error {
	b, ok := r.batches[batchID]
	if !ok {
		return pkgmodels.ErrBatchNotFound
	}
	b.Status = status
	b.CompletedAt = completedAt
	return nil
}

// fakePromptRepo is a minimal stand-in for repository.PromptRepository,
// enough to resolve prompt texts for TriggerBatch.
type fakePromptRepo struct {
	prompts map[pkgmodels.PromptID]*pkgmodels.Prompt
}

func newFakePromptRepo() *fakePromptRepo {
	return &fakePromptRepo{prompts: make(map[pkgmodels.PromptID]*pkgmodels.Prompt)}
}

func (r *fakePromptRepo) Create(ctx context.Context, db bun.IDB, prompt *pkgmodels.Prompt) error {
	r.prompts[prompt.ID] = prompt
	return nil
}

func (r *fakePromptRepo) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.PromptID) (*pkgmodels.Prompt, error) {
	p, ok := r.prompts[id]
	if !ok {
		return nil, pkgmodels.ErrPromptNotFound
	}
	return p, nil
}

func (r *fakePromptRepo) GetByIDs(ctx context.Context, db bun.IDB, ids []pkgmodels.PromptID) ([]*pkgmodels.Prompt, error) {
	out := make([]*pkgmodels.Prompt, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.prompts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePromptRepo) FindNearest(ctx context.Context, db bun.IDB, embedding []float32, threshold float64) (*pkgmodels.Prompt, error) {
	return nil, pkgmodels.ErrPromptNotFound
}

func (r *fakePromptRepo) ListByUser(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, limit, offset int) ([]*pkgmodels.Prompt, error) {
	return nil, nil
}

var (
	_ repository.BatchRepository  = (*fakeBatchRepo)(nil)
	_ repository.PromptRepository = (*fakePromptRepo)(nil)
)
