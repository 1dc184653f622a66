// Package queue implements the execution queue and evaluation lifecycle
// (spec §4.1): the single source of truth for what must be evaluated next,
// with global single-flight per prompt, FIFO fairness, and recovery from
// orphaned claims.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/config"
	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var (
	ErrEvaluationNotFound = pkgmodels.ErrEvaluationNotFound
	ErrAlreadyCompleted   = pkgmodels.ErrEvaluationAlreadyCompleted
)

// Service orchestrates queue/evaluation transitions. Both repositories are
// backed by the evals store, so a single bun.Tx drawn from queueRepo.RunInTx
// can be handed to evalRepo methods in the same transaction.
type Service struct {
	queueRepo         repository.QueueRepository
	evalRepo          repository.EvaluationRepository
	assistantRepo     repository.AssistantRepository
	promptRepo        repository.PromptRepository
	evalsDB           bun.IDB
	promptsDB         bun.IDB
	staleTimeout      time.Duration
	maxPendingPerUser int
	waitCfg           config.QueueConfig
}

// promptsDB is a separate *bun.DB handle: PromptRepository is backed by the
// prompts store, a different logical database than queue/evaluation state,
// so prompt lookups cannot share the evals-store transaction (spec §4 data
// model, three logical stores).
func NewService(
	queueRepo repository.QueueRepository,
	evalRepo repository.EvaluationRepository,
	assistantRepo repository.AssistantRepository,
	promptRepo repository.PromptRepository,
	evalsDB bun.IDB,
	promptsDB bun.IDB,
	cfg config.QueueConfig,
) *Service {
	return &Service{
		queueRepo:         queueRepo,
		evalRepo:          evalRepo,
		assistantRepo:     assistantRepo,
		promptRepo:        promptRepo,
		evalsDB:           evalsDB,
		promptsDB:         promptsDB,
		staleTimeout:      cfg.StaleClaimTimeout,
		maxPendingPerUser: cfg.MaxPendingPerUser,
		waitCfg:           cfg,
	}
}

// EstimatedWaitSeconds is the instance-bound counterpart of
// EstimateWaitSeconds, using this service's configured coefficients.
func (s *Service) EstimatedWaitSeconds(pendingCount int, hasInProgress bool) int {
	return EstimateWaitSeconds(s.waitCfg, pendingCount, hasInProgress)
}

// QueueDepth returns the current total pending count, used by the optional
// live dashboard push (SPEC_FULL §3) rather than any per-user endpoint.
func (s *Service) QueueDepth(ctx context.Context) (int, error) {
	return s.queueRepo.CountPending(ctx, s.evalsDB)
}

// SweepStaleClaims resets in_progress rows claimed before the configured
// stale-claim timeout back to pending (spec §4.1 step 1). PollNext already
// runs this inline before every claim attempt; this is the same reset
// exposed for a periodic sweep so orphaned claims recover even while the
// queue is otherwise idle.
func (s *Service) SweepStaleClaims(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleTimeout)
	return s.queueRepo.ResetStaleClaims(ctx, s.evalsDB, cutoff)
}

// Enqueue inserts a pending row for each prompt id that has no active
// (pending/in_progress) entry yet; others are skipped, not errored (spec §4.1).
func (s *Service) Enqueue(ctx context.Context, promptIDs []pkgmodels.PromptID, userID pkgmodels.UserID, batchID string) (*pkgmodels.AddToQueueResult, error) {
	if len(promptIDs) == 0 {
		return nil, pkgmodels.ErrEmptyPromptList
	}

	active, err := s.queueRepo.ActivePromptIDs(ctx, s.evalsDB, promptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check active prompts: %w", err)
	}

	result := &pkgmodels.AddToQueueResult{QueuedEntries: make([]*pkgmodels.ExecutionQueueEntry, 0, len(promptIDs))}
	for _, promptID := range promptIDs {
		if active[promptID] {
			result.SkippedCount++
			continue
		}

		entry := &pkgmodels.ExecutionQueueEntry{
			PromptID:       promptID,
			RequestedBy:    userID,
			RequestBatchID: batchID,
			Status:         pkgmodels.QueueStatusPending,
		}
		if err := s.queueRepo.Create(ctx, s.evalsDB, entry); err != nil {
			return nil, fmt.Errorf("failed to create queue entry for prompt %d: %w", promptID, err)
		}
		result.QueuedCount++
		result.QueuedEntries = append(result.QueuedEntries, entry)
	}

	total, err := s.queueRepo.CountPending(ctx, s.evalsDB)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending queue: %w", err)
	}
	result.TotalQueueSize = total
	return result, nil
}

// CancelPending transitions the caller's pending rows to cancelled.
func (s *Service) CancelPending(ctx context.Context, promptIDs []pkgmodels.PromptID, userID pkgmodels.UserID) (int, error) {
	return s.queueRepo.CancelPending(ctx, s.evalsDB, promptIDs, userID)
}

// QueueStatus summarizes a user's active and recently completed work.
type QueueStatus struct {
	Active    []*pkgmodels.ExecutionQueueEntry
	Completed []*pkgmodels.ExecutionQueueEntry
}

func (s *Service) Status(ctx context.Context, userID pkgmodels.UserID) (*QueueStatus, error) {
	active, err := s.queueRepo.ListActiveForUser(ctx, s.evalsDB, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active entries: %w", err)
	}
	completed, err := s.queueRepo.ListCompletedSince(ctx, s.evalsDB, userID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list completed entries: %w", err)
	}
	return &QueueStatus{Active: active, Completed: completed}, nil
}

// PollResult is returned by PollNext; both fields are nil when the queue is empty.
type PollResult struct {
	Entry  *pkgmodels.ExecutionQueueEntry
	Prompt *pkgmodels.Prompt
}

// PollNext runs the atomic claim protocol (spec §4.1 step-by-step):
// reap stale claims, lock and claim the oldest pending row with
// FOR UPDATE SKIP LOCKED, resolve its prompt, create the in_progress
// evaluation, and link the two — all inside one transaction.
func (s *Service) PollNext(ctx context.Context, assistantName, planName string) (*PollResult, error) {
	_, plan, err := s.assistantRepo.GetByNames(ctx, s.evalsDB, assistantName, planName)
	if err != nil {
		return nil, err
	}

	var result *PollResult
	err = s.queueRepo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.queueRepo.ResetStaleClaims(ctx, tx, time.Now().Add(-s.staleTimeout)); err != nil {
			return fmt.Errorf("failed to reset stale claims: %w", err)
		}

		entry, err := s.queueRepo.ClaimNextPending(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to claim next pending entry: %w", err)
		}
		if entry == nil {
			return nil
		}

		prompt, err := s.promptRepo.GetByID(ctx, s.promptsDB, entry.PromptID)
		if err != nil {
			if errors.Is(err, pkgmodels.ErrPromptNotFound) {
				entry.Status = pkgmodels.QueueStatusFailed
				now := time.Now()
				entry.CompletedAt = &now
				return s.queueRepo.Update(ctx, tx, entry)
			}
			return fmt.Errorf("failed to load prompt %d: %w", entry.PromptID, err)
		}

		now := time.Now()
		eval := &pkgmodels.PromptEvaluation{
			PromptID:        entry.PromptID,
			AssistantPlanID: plan.ID,
			Status:          pkgmodels.EvaluationStatusInProgress,
			ClaimedAt:       &now,
		}
		if err := s.evalRepo.Create(ctx, tx, eval); err != nil {
			return fmt.Errorf("failed to create evaluation: %w", err)
		}

		entry.Status = pkgmodels.QueueStatusInProgress
		entry.ClaimedAt = &now
		entry.EvaluationID = &eval.ID
		if err := s.queueRepo.Update(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to update queue entry: %w", err)
		}

		result = &PollResult{Entry: entry, Prompt: prompt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitAnswer delivers a worker's answer, completing both the evaluation
// and its owning queue entry (spec §4.1, §6 POST /evaluations/submit).
func (s *Service) SubmitAnswer(ctx context.Context, evaluationID pkgmodels.EvaluationID, answer *pkgmodels.Answer) error {
	return s.queueRepo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		eval, err := s.evalRepo.GetByID(ctx, tx, evaluationID)
		if err != nil {
			return err
		}
		if eval.IsTerminal() {
			return pkgmodels.ErrEvaluationAlreadyCompleted
		}

		now := time.Now()
		eval.Status = pkgmodels.EvaluationStatusCompleted
		eval.CompletedAt = &now
		eval.Answer = answer
		if err := eval.Validate(); err != nil {
			return err
		}
		if err := s.evalRepo.Update(ctx, tx, eval); err != nil {
			return fmt.Errorf("failed to update evaluation: %w", err)
		}

		return s.markQueueTerminal(ctx, tx, evaluationID, pkgmodels.QueueStatusCompleted)
	})
}

// Release abandons a claim. If markAsFailed, the evaluation transitions to
// failed with reason stored in Answer.Error; otherwise the evaluation row
// is deleted outright. Either way the owning queue entry is marked failed.
// Completed evaluations cannot be released (spec §4.1).
func (s *Service) Release(ctx context.Context, evaluationID pkgmodels.EvaluationID, markAsFailed bool, reason string) error {
	return s.queueRepo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		eval, err := s.evalRepo.GetByID(ctx, tx, evaluationID)
		if err != nil {
			return err
		}
		if eval.Status == pkgmodels.EvaluationStatusCompleted {
			return pkgmodels.ErrEvaluationAlreadyCompleted
		}

		if markAsFailed {
			now := time.Now()
			eval.Status = pkgmodels.EvaluationStatusFailed
			eval.CompletedAt = &now
			eval.Answer = &pkgmodels.Answer{Error: reason, Timestamp: now}
			if err := s.evalRepo.Update(ctx, tx, eval); err != nil {
				return fmt.Errorf("failed to mark evaluation failed: %w", err)
			}
		} else if err := s.evalRepo.Delete(ctx, tx, evaluationID); err != nil {
			return fmt.Errorf("failed to delete evaluation: %w", err)
		}

		return s.markQueueTerminal(ctx, tx, evaluationID, pkgmodels.QueueStatusFailed)
	})
}

// markQueueTerminal is mark_completed/mark_failed: idempotent, a no-op if
// the entry is already terminal (spec §4.1).
func (s *Service) markQueueTerminal(ctx context.Context, tx bun.Tx, evaluationID pkgmodels.EvaluationID, status pkgmodels.ExecutionQueueStatus) error {
	entry, err := s.queueRepo.GetByEvaluationID(ctx, tx, evaluationID)
	if err != nil {
		if errors.Is(err, pkgmodels.ErrQueueEntryNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load owning queue entry: %w", err)
	}
	if entry.Status.IsTerminal() {
		return nil
	}

	now := time.Now()
	entry.Status = status
	entry.CompletedAt = &now
	return s.queueRepo.Update(ctx, tx, entry)
}

// LatestResults resolves the latest completed evaluation per prompt for an
// assistant plan (spec §6 POST /evaluations/results).
func (s *Service) LatestResults(ctx context.Context, assistantName, planName string, promptIDs []pkgmodels.PromptID) (map[pkgmodels.PromptID]*pkgmodels.PromptEvaluation, error) {
	_, plan, err := s.assistantRepo.GetByNames(ctx, s.evalsDB, assistantName, planName)
	if err != nil {
		return nil, err
	}
	return s.evalRepo.LatestCompletedByPrompt(ctx, s.evalsDB, promptIDs, plan.ID)
}

// EstimateWaitSeconds is the freshness service's linear queue-depth estimate
// (spec §4.3): base + pending_count * perItem, overridden by a fixed
// estimate when the caller's own item is already in_progress.
func EstimateWaitSeconds(cfg config.QueueConfig, pendingCount int, hasInProgress bool) int {
	if hasInProgress {
		return cfg.InProgressEstimateSeconds
	}
	return cfg.WaitBaseSeconds + pendingCount*cfg.WaitPerItemSeconds
}
