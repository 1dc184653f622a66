package queue

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// fakeQueueRepo is an in-memory stand-in for repository.QueueRepository.
// RunInTx never opens a real transaction: it hands callers a zero-value
// bun.Tx, which is safe because nothing in this package issues SQL through
// it directly — every mutation goes through the fake's own methods.
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
	entry, ok := r.entries[id]
	if !ok {
		return nil, pkgmodels.ErrQueueEntryNotFound
	}
	return entry, nil
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
	var out []*pkgmodels.ExecutionQueueEntry
	for _, e := range r.entries {
		if e.RequestedBy == userID && e.Status.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeQueueRepo) ListCompletedSince(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, since time.Time) ([]*pkgmodels.ExecutionQueueEntry, error) {
	var out []*pkgmodels.ExecutionQueueEntry
	for _, e := range r.entries {
		if e.RequestedBy == userID && e.Status.IsTerminal() && e.CompletedAt != nil && !e.CompletedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeQueueRepo) CancelPending(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID, userID pkgmodels.UserID) (int, error) {
	want := make(map[pkgmodels.PromptID]bool, len(promptIDs))
	for _, id := range promptIDs {
		want[id] = true
	}
	count := 0
	for _, e := range r.entries {
		if want[e.PromptID] && e.RequestedBy == userID && e.Status == pkgmodels.QueueStatusPending {
			e.Status = pkgmodels.QueueStatusCancelled
			now := time.Now()
			e.CompletedAt = &now
			count++
		}
	}
	return count, nil
}

func (r *fakeQueueRepo) ResetStaleClaims(ctx context.Context, db bun.IDB, cutoff time.Time) (int, error) {
	count := 0
	for _, e := range r.entries {
		if e.Status == pkgmodels.QueueStatusInProgress && e.ClaimedAt != nil && e.ClaimedAt.Before(cutoff) {
			e.Status = pkgmodels.QueueStatusPending
			e.ClaimedAt = nil
			e.EvaluationID = nil
			count++
		}
	}
	return count, nil
}

func (r *fakeQueueRepo) ClaimNextPending(ctx context.Context, db bun.IDB) (*pkgmodels.ExecutionQueueEntry, error) {
	var oldest *pkgmodels.ExecutionQueueEntry
	for _, e := range r.entries {
		if e.Status != pkgmodels.QueueStatusPending {
			continue
		}
		if oldest == nil || e.RequestedAt.Before(oldest.RequestedAt) || e.ID < oldest.ID {
			oldest = e
		}
	}
	return oldest, nil
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

// fakeEvalRepo is an in-memory stand-in for repository.EvaluationRepository.
type fakeEvalRepo struct {
	evals  map[pkgmodels.EvaluationID]*pkgmodels.PromptEvaluation
	nextID int64
}

func newFakeEvalRepo() *fakeEvalRepo {
	return &fakeEvalRepo{evals: make(map[pkgmodels.EvaluationID]*pkgmodels.PromptEvaluation)}
}

func (r *fakeEvalRepo) Create(ctx context.Context, db bun.IDB, eval *pkgmodels.PromptEvaluation) error {
	r.nextID++
	eval.ID = pkgmodels.EvaluationID(r.nextID)
	eval.CreatedAt = time.Now()
	cp := *eval
	r.evals[eval.ID] = &cp
	return nil
}

func (r *fakeEvalRepo) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.EvaluationID) (*pkgmodels.PromptEvaluation, error) {
	e, ok := r.evals[id]
	if !ok {
		return nil, pkgmodels.ErrEvaluationNotFound
	}
	return e, nil
}

func (r *fakeEvalRepo) Update(ctx context.Context, db bun.IDB, eval *pkgmodels.PromptEvaluation) error {
	if _, ok := r.evals[eval.ID]; !ok {
		return pkgmodels.ErrEvaluationNotFound
	}
	cp := *eval
	r.evals[eval.ID] = &cp
	return nil
}

func (r *fakeEvalRepo) Delete(ctx context.Context, db bun.IDB, id pkgmodels.EvaluationID) error {
	delete(r.evals, id)
	return nil
}

func (r *fakeEvalRepo) LatestCompletedByPrompt(ctx context.Context, db bun.IDB, promptIDs []pkgmodels.PromptID, assistantPlanID pkgmodels.PlanID) (map[pkgmodels.PromptID]*pkgmodels.PromptEvaluation, error) {
	want := make(map[pkgmodels.PromptID]bool, len(promptIDs))
	for _, id := range promptIDs {
		want[id] = true
	}
	out := make(map[pkgmodels.PromptID]*pkgmodels.PromptEvaluation)
	for _, e := range r.evals {
		if !want[e.PromptID] || e.AssistantPlanID != assistantPlanID || e.Status != pkgmodels.EvaluationStatusCompleted {
			continue
		}
		if cur, ok := out[e.PromptID]; !ok || e.CompletedAt.After(*cur.CompletedAt) {
			out[e.PromptID] = e
		}
	}
	return out, nil
}

func (r *fakeEvalRepo) CompletedForPrompt(ctx context.Context, db bun.IDB, promptID pkgmodels.PromptID) ([]*pkgmodels.PromptEvaluation, error) {
	var out []*pkgmodels.PromptEvaluation
	for _, e := range r.evals {
		if e.PromptID == promptID && e.Status == pkgmodels.EvaluationStatusCompleted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEvalRepo) HasInProgressForPrompt(ctx context.Context, db bun.IDB, promptID pkgmodels.PromptID) (bool, error) {
	for _, e := range r.evals {
		if e.PromptID == promptID && e.Status == pkgmodels.EvaluationStatusInProgress {
			return true, nil
		}
	}
	return false, nil
}

// fakeAssistantRepo is an in-memory stand-in for repository.AssistantRepository.
type fakeAssistantRepo struct {
	assistant *pkgmodels.AIAssistant
	plan      *pkgmodels.AIAssistantPlan
}

func (r *fakeAssistantRepo) ListAssistants(ctx context.Context, db bun.IDB) ([]*pkgmodels.AIAssistant, error) {
	return []*pkgmodels.AIAssistant{r.assistant}, nil
}

func (r *fakeAssistantRepo) GetPlan(ctx context.Context, db bun.IDB, id pkgmodels.PlanID) (*pkgmodels.AIAssistantPlan, error) {
	if r.plan == nil || r.plan.ID != id {
		return nil, pkgmodels.ErrPlanNotFound
	}
	return r.plan, nil
}

func (r *fakeAssistantRepo) ListPlansForAssistant(ctx context.Context, db bun.IDB, assistantID pkgmodels.AssistantID) ([]*pkgmodels.AIAssistantPlan, error) {
	return []*pkgmodels.AIAssistantPlan{r.plan}, nil
}

func (r *fakeAssistantRepo) DefaultPlan(ctx context.Context, db bun.IDB, assistantID pkgmodels.AssistantID) (*pkgmodels.AIAssistantPlan, error) {
	return r.plan, nil
}

func (r *fakeAssistantRepo) GetByNames(ctx context.Context, db bun.IDB, assistantName, planName string) (*pkgmodels.AIAssistant, *pkgmodels.AIAssistantPlan, error) {
	if r.assistant == nil || r.assistant.Name != assistantName {
		return nil, nil, pkgmodels.ErrAssistantNotFound
	}
	if r.plan == nil || r.plan.Name != planName {
		return nil, nil, pkgmodels.ErrPlanNotFound
	}
	return r.assistant, r.plan, nil
}

// fakePromptRepo is an in-memory stand-in for repository.PromptRepository.
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
	var out []*pkgmodels.Prompt
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
	_ repository.QueueRepository      = (*fakeQueueRepo)(nil)
	_ repository.EvaluationRepository = (*fakeEvalRepo)(nil)
	_ repository.AssistantRepository  = (*fakeAssistantRepo)(nil)
	_ repository.PromptRepository     = (*fakePromptRepo)(nil)
)
