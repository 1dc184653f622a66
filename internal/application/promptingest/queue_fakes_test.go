package promptingest

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// fakeQueueRepo is an in-memory stand-in for repository.QueueRepository,
// just enough to back a real queue.Service used as promptingest's enqueue
// collaborator in tests.
type fakeQueueRepo struct {
	entries map[pkgmodels.QueueEntryID]*pkgmodels.ExecutionQueueEntry
	nextID  int64
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: make(map[pkgmodels.QueueEntryID]*pkgmodels.ExecutionQueueEntry)}
}

func (r *fakeQueueRepo) Create(ctx context.Context, db bun.IDB, entry *pkgmodels.ExecutionQueueEntry) error {
	r.nextID++
	entry.ID = pkgmodels.QueueEntryID(r.nextID)
	entry.RequestedAt = time.Now()
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeQueueRepo) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.QueueEntryID) (*pkgmodels.ExecutionQueueEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, pkgmodels.ErrQueueEntryNotFound
	}
	return e, nil
}

func (r *fakeQueueRepo) GetByEvaluationID(ctx context.Context, db bun.IDB, evaluationID pkgmodels.EvaluationID) (*pkgmodels.ExecutionQueueEntry, error) {
	for _, e := range r.entries {
		if e.EvaluationID != nil && *e.EvaluationID == evaluationID {
			return e, nil
		}
	}
	return nil, pkgmodels.ErrQueueEntryNotFound
}

func (r *fakeQueueRepo) ActivePromptIDs(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID) (map[pkgmodels.PromptID]bool, error) {
	want := make(map[pkgmodels.PromptID]bool, len(promptIDs))
	for _, id := range promptIDs {
		want[id] = true
	}
	active := make(map[pkgmodels.PromptID]bool)
	for _, e := range r.entries {
		if want[e.PromptID] && e.Status.IsActive() {
			active[e.PromptID] = true
		}
	}
	return active, nil
}

func (r *fakeQueueRepo) CountPending(ctx context.Context, db bun.IDB) (int, error) {
	count := 0
	for _, e := range r.entries {
		if e.Status == pkgmodels.QueueStatusPending {
			count++
		}
	}
	return count, nil
}

func (r *fakeQueueRepo) ListActiveForUser(ctx context.Context, db bun.IDB, userID pkgmodels.UserID) ([]*pkgmodels.ExecutionQueueEntry, error) {
	return nil, nil
}

func (r *fakeQueueRepo) ListCompletedSince(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, since time.Time) ([]*pkgmodels.ExecutionQueueEntry, error) {
	return nil, nil
}

func (r *fakeQueueRepo) CancelPending(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID, userID pkgmodels.UserID) (int, error) {
	return 0, nil
}

func (r *fakeQueueRepo) ResetStaleClaims(ctx context.Context, db bun.IDB, cutoff time.Time) (int, error) {
	return 0, nil
}

func (r *fakeQueueRepo) ClaimNextPending(ctx context.Context, db bun.IDB) (*pkgmodels.ExecutionQueueEntry, error) {
	return nil, nil
}

func (r *fakeQueueRepo) Update(ctx context.Context, db bun.IDB, entry *pkgmodels.ExecutionQueueEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		return pkgmodels.ErrQueueEntryNotFound
	}
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *fakeQueueRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

// fakeEvaluationRepo is a no-op stand-in for repository.EvaluationRepository:
// promptingest's Enqueue path never touches evaluations, but queue.Service
// requires one to construct.
type fakeEvaluationRepo struct{}

func (r *fakeEvaluationRepo) Create(ctx context.Context, db bun.IDB, eval *pkgmodels.PromptEvaluation) error {
	return nil
}

func (r *fakeEvaluationRepo) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.EvaluationID) (*pkgmodels.PromptEvaluation, error) {
	return nil, pkgmodels.ErrEvaluationNotFound
}

func (r *fakeEvaluationRepo) Update(ctx context.Context, db bun.IDB, eval *pkgmodels.PromptEvaluation) error {
	return nil
}

func (r *fakeEvaluationRepo) Delete(ctx context.Context, db bun.IDB, id pkgmodels.EvaluationID) error {
	return nil
}

func (r *fakeEvaluationRepo) LatestCompletedByPrompt(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID, assistantPlanID pkgmodels.PlanID) (map[pkgmodels.PromptID]*pkgmodels.PromptEvaluation, error) {
	return nil, nil
}

func (r *fakeEvaluationRepo) CompletedForPrompt(ctx context.Context, db bun.IDB, promptID pkgmodels.PromptID) ([]*pkgmodels.PromptEvaluation, error) {
	return nil, nil
}

func (r *fakeEvaluationRepo) HasInProgressForPrompt(ctx context.Context, db bun.IDB, promptID pkgmodels.PromptID) (bool, error) {
	return false, nil
}

// fakeAssistantRepo is a no-op stand-in for repository.AssistantRepository,
// unused by Enqueue but required to construct queue.Service.
type fakeAssistantRepo struct{}

func (r *fakeAssistantRepo) ListAssistants(ctx context.Context, db bun.IDB) ([]*pkgmodels.AIAssistant, error) {
	return nil, nil
}

func (r *fakeAssistantRepo) GetPlan(ctx context.Context, db bun.IDB, id pkgmodels.PlanID) (*pkgmodels.AIAssistantPlan, error) {
	return nil, pkgmodels.ErrPlanNotFound
}

func (r *fakeAssistantRepo) ListPlansForAssistant(ctx context.Context, db bun.IDB, assistantID pkgmodels.AssistantID) ([]*pkgmodels.AIAssistantPlan, error) {
	return nil, nil
}

func (r *fakeAssistantRepo) DefaultPlan(ctx context.Context, db bun.IDB, assistantID pkgmodels.AssistantID) (*pkgmodels.AIAssistantPlan, error) {
	return nil, pkgmodels.ErrPlanNotFound
}

func (r *fakeAssistantRepo) GetByNames(ctx context.Context, db bun.IDB, assistantName, planName string) (*pkgmodels.AIAssistant, *pkgmodels.AIAssistantPlan, error) {
	return nil, nil, pkgmodels.ErrAssistantNotFound
}

var (
	_ repository.QueueRepository      = (*fakeQueueRepo)(nil)
	_ repository.EvaluationRepository = (*fakeEvaluationRepo)(nil)
	_ repository.AssistantRepository  = (*fakeAssistantRepo)(nil)
)
