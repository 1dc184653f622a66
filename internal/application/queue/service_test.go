package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosklyar/prompts-volume-sub000/internal/config"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

func newTestService(t *testing.T) (*Service, *fakeQueueRepo, *fakeEvalRepo, *fakePromptRepo, *fakeAssistantRepo) {
	t.Helper()
	queueRepo := newFakeQueueRepo()
	evalRepo := newFakeEvalRepo()
	promptRepo := newFakePromptRepo()
	assistantRepo := &fakeAssistantRepo{
		assistant: &pkgmodels.AIAssistant{ID: 1, Name: "chatgpt"},
		plan:      &pkgmodels.AIAssistantPlan{ID: 1, AssistantID: 1, Name: "plus"},
	}
	cfg := config.QueueConfig{
		StaleClaimTimeout:         10 * time.Minute,
		MaxPendingPerUser:         100,
		WaitBaseSeconds:           5,
		WaitPerItemSeconds:        2,
		InProgressEstimateSeconds: 30,
	}
	svc := NewService(queueRepo, evalRepo, assistantRepo, promptRepo, nil, nil, cfg)
	return svc, queueRepo, evalRepo, promptRepo, assistantRepo
}

func TestEnqueue_SkipsPromptsWithActiveEntry(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := t.Context()

	result, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1, 2}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.QueuedCount)
	assert.Equal(t, 0, result.SkippedCount)

	result2, err := svc.Enqueue(ctx, []pkgmodels.PromptID{2, 3}, pkgmodels.UserID("u-1"), "batch-2")
	require.NoError(t, err)
	assert.Equal(t, 1, result2.QueuedCount)
	assert.Equal(t, 1, result2.SkippedCount)
	assert.Equal(t, 3, result2.TotalQueueSize)
}

func TestEnqueue_EmptyListIsError(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	_, err := svc.Enqueue(t.Context(), nil, pkgmodels.UserID("u-1"), "batch-1")
	assert.ErrorIs(t, err, pkgmodels.ErrEmptyPromptList)
}

func TestPollNext_ClaimsOldestPendingAndCreatesEvaluation(t *testing.T) {
	svc, queueRepo, evalRepo, promptRepo, _ := newTestService(t)
	ctx := t.Context()

	promptRepo.prompts[1] = &pkgmodels.Prompt{ID: 1, Text: "what is go"}
	_, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)

	result, err := svc.PollNext(ctx, "chatgpt", "plus")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, pkgmodels.PromptID(1), result.Entry.PromptID)
	assert.Equal(t, pkgmodels.QueueStatusInProgress, result.Entry.Status)
	require.NotNil(t, result.Entry.EvaluationID)

	eval, err := evalRepo.GetByID(ctx, nil, *result.Entry.EvaluationID)
	require.NoError(t, err)
	assert.Equal(t, pkgmodels.EvaluationStatusInProgress, eval.Status)

	stored := queueRepo.entries[result.Entry.ID]
	assert.Equal(t, pkgmodels.QueueStatusInProgress, stored.Status)
}

func TestPollNext_EmptyQueueReturnsNil(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	result, err := svc.PollNext(t.Context(), "chatgpt", "plus")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPollNext_UnknownAssistantPlanFails(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	_, err := svc.PollNext(t.Context(), "unknown", "plan")
	assert.ErrorIs(t, err, pkgmodels.ErrAssistantNotFound)
}

func TestSubmitAnswer_CompletesEvaluationAndQueueEntry(t *testing.T) {
	svc, queueRepo, _, promptRepo, _ := newTestService(t)
	ctx := t.Context()

	promptRepo.prompts[1] = &pkgmodels.Prompt{ID: 1, Text: "what is go"}
	_, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)
	poll, err := svc.PollNext(ctx, "chatgpt", "plus")
	require.NoError(t, err)
	require.NotNil(t, poll)

	answer := &pkgmodels.Answer{Response: "Go is a language", Timestamp: time.Now()}
	err = svc.SubmitAnswer(ctx, *poll.Entry.EvaluationID, answer)
	require.NoError(t, err)

	entry := queueRepo.entries[poll.Entry.ID]
	assert.Equal(t, pkgmodels.QueueStatusCompleted, entry.Status)
	require.NotNil(t, entry.CompletedAt)
}

func TestSubmitAnswer_AlreadyCompletedFails(t *testing.T) {
	svc, _, _, promptRepo, _ := newTestService(t)
	ctx := t.Context()

	promptRepo.prompts[1] = &pkgmodels.Prompt{ID: 1, Text: "what is go"}
	_, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)
	poll, err := svc.PollNext(ctx, "chatgpt", "plus")
	require.NoError(t, err)

	answer := &pkgmodels.Answer{Response: "done", Timestamp: time.Now()}
	require.NoError(t, svc.SubmitAnswer(ctx, *poll.Entry.EvaluationID, answer))

	err = svc.SubmitAnswer(ctx, *poll.Entry.EvaluationID, answer)
	assert.ErrorIs(t, err, pkgmodels.ErrEvaluationAlreadyCompleted)
}

func TestRelease_MarkAsFailedKeepsEvaluationRow(t *testing.T) {
	svc, queueRepo, evalRepo, promptRepo, _ := newTestService(t)
	ctx := t.Context()

	promptRepo.prompts[1] = &pkgmodels.Prompt{ID: 1, Text: "what is go"}
	_, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)
	poll, err := svc.PollNext(ctx, "chatgpt", "plus")
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, *poll.Entry.EvaluationID, true, "worker crashed"))

	eval, err := evalRepo.GetByID(ctx, nil, *poll.Entry.EvaluationID)
	require.NoError(t, err)
	assert.Equal(t, pkgmodels.EvaluationStatusFailed, eval.Status)
	assert.Equal(t, "worker crashed", eval.Answer.Error)

	entry := queueRepo.entries[poll.Entry.ID]
	assert.Equal(t, pkgmodels.QueueStatusFailed, entry.Status)
}

func TestRelease_WithoutMarkAsFailedDeletesEvaluation(t *testing.T) {
	svc, _, evalRepo, promptRepo, _ := newTestService(t)
	ctx := t.Context()

	promptRepo.prompts[1] = &pkgmodels.Prompt{ID: 1, Text: "what is go"}
	_, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)
	poll, err := svc.PollNext(ctx, "chatgpt", "plus")
	require.NoError(t, err)

	evalID := *poll.Entry.EvaluationID
	require.NoError(t, svc.Release(ctx, evalID, false, ""))

	_, err = evalRepo.GetByID(ctx, nil, evalID)
	assert.ErrorIs(t, err, pkgmodels.ErrEvaluationNotFound)
}

func TestSweepStaleClaims_ResetsOldInProgressEntries(t *testing.T) {
	svc, queueRepo, _, promptRepo, _ := newTestService(t)
	ctx := t.Context()

	promptRepo.prompts[1] = &pkgmodels.Prompt{ID: 1, Text: "what is go"}
	_, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)
	poll, err := svc.PollNext(ctx, "chatgpt", "plus")
	require.NoError(t, err)

	stale := time.Now().Add(-1 * time.Hour)
	queueRepo.entries[poll.Entry.ID].ClaimedAt = &stale

	count, err := svc.SweepStaleClaims(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, pkgmodels.QueueStatusPending, queueRepo.entries[poll.Entry.ID].Status)
}

func TestQueueDepth_CountsPendingOnly(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := t.Context()

	_, err := svc.Enqueue(ctx, []pkgmodels.PromptID{1, 2, 3}, pkgmodels.UserID("u-1"), "batch-1")
	require.NoError(t, err)

	depth, err := svc.QueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)
}

func TestEstimateWaitSeconds(t *testing.T) {
	cfg := config.QueueConfig{WaitBaseSeconds: 5, WaitPerItemSeconds: 2, InProgressEstimateSeconds: 30}

	assert.Equal(t, 30, EstimateWaitSeconds(cfg, 100, true))
	assert.Equal(t, 5, EstimateWaitSeconds(cfg, 0, false))
	assert.Equal(t, 25, EstimateWaitSeconds(cfg, 10, false))
}
