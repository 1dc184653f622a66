// Package reports implements the report generator, selection analyzer, and
// freshness analyzer (spec §4.3): per-prompt selection choices, a
// /compare diff against the group's last report, and atomic report
// generation through the charge engine.
package reports

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/billing"
	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// SelectionAnalyzer computes, for a group and user, which evaluation options
// are available for each prompt and which one the system would pick by
// default, grounded on the evaluation repository's per-prompt history.
//
// groupRepo is backed by the prompts store; evalRepo/reportRepo/consumption
// are backed by the evals store (spec §4 data model), so the analyzer holds
// one read handle per logical store.
type SelectionAnalyzer struct {
	groupRepo   repository.PromptGroupRepository
	evalRepo    repository.EvaluationRepository
	reportRepo  repository.ReportRepository
	consumption repository.ConsumptionRepository
	pricing     billing.PricingStrategy
	promptsDB   bun.IDB
	evalsDB     bun.IDB
}

func NewSelectionAnalyzer(
	groupRepo repository.PromptGroupRepository,
	evalRepo repository.EvaluationRepository,
	reportRepo repository.ReportRepository,
	consumption repository.ConsumptionRepository,
	pricing billing.PricingStrategy,
	promptsDB bun.IDB,
	evalsDB bun.IDB,
) *SelectionAnalyzer {
	return &SelectionAnalyzer{
		groupRepo:   groupRepo,
		evalRepo:    evalRepo,
		reportRepo:  reportRepo,
		consumption: consumption,
		pricing:     pricing,
		promptsDB:   promptsDB,
		evalsDB:     evalsDB,
	}
}

// Analyze computes PromptSelectionInfo for every prompt currently bound to
// groupID, per spec §4.3's "available_options" rule: evaluations newer than
// the prompt's selection in the last report, plus whichever evaluation was
// selected in that last report (so the user may re-pick it for free).
func (a *SelectionAnalyzer) Analyze(ctx context.Context, groupID pkgmodels.GroupID, userID pkgmodels.UserID) ([]pkgmodels.PromptSelectionInfo, error) {
	promptIDs, err := a.groupRepo.PromptIDsInGroup(ctx, a.promptsDB, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group prompts: %w", err)
	}

	lastReport, err := a.reportRepo.LatestForGroup(ctx, a.evalsDB, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up last report: %w", err)
	}

	var lastItems []*pkgmodels.GroupReportItem
	if lastReport != nil {
		lastItems, err = a.reportRepo.ItemsForReport(ctx, a.evalsDB, lastReport.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load last report items: %w", err)
		}
	}
	lastByPrompt := make(map[pkgmodels.PromptID]*pkgmodels.GroupReportItem, len(lastItems))
	for _, item := range lastItems {
		lastByPrompt[item.PromptID] = item
	}

	infos := make([]pkgmodels.PromptSelectionInfo, 0, len(promptIDs))
	for _, promptID := range promptIDs {
		info, err := a.analyzePrompt(ctx, userID, promptID, lastByPrompt[promptID])
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (a *SelectionAnalyzer) analyzePrompt(ctx context.Context, userID pkgmodels.UserID, promptID pkgmodels.PromptID, lastItem *pkgmodels.GroupReportItem) (pkgmodels.PromptSelectionInfo, error) {
	completed, err := a.evalRepo.CompletedForPrompt(ctx, a.evalsDB, promptID)
	if err != nil {
		return pkgmodels.PromptSelectionInfo{}, fmt.Errorf("failed to load completed evaluations for prompt %d: %w", promptID, err)
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CompletedAt.After(*completed[j].CompletedAt)
	})

	inProgress, err := a.evalRepo.HasInProgressForPrompt(ctx, a.evalsDB, promptID)
	if err != nil {
		return pkgmodels.PromptSelectionInfo{}, fmt.Errorf("failed to check in-progress evaluations for prompt %d: %w", promptID, err)
	}

	wasAwaiting := lastItem == nil || lastItem.EvaluationID == nil
	var lastSelectedThreshold *pkgmodels.PromptEvaluation

	evalByID := make(map[pkgmodels.EvaluationID]*pkgmodels.PromptEvaluation, len(completed))
	for _, e := range completed {
		evalByID[e.ID] = e
		if lastItem != nil && lastItem.EvaluationID != nil && e.ID == *lastItem.EvaluationID {
			lastSelectedThreshold = e
		}
	}

	ids := make([]pkgmodels.EvaluationID, 0, len(completed))
	for _, e := range completed {
		ids = append(ids, e.ID)
	}
	consumedSet, err := a.consumption.ConsumedEvaluationIDs(ctx, a.evalsDB, userID, ids)
	if err != nil {
		return pkgmodels.PromptSelectionInfo{}, fmt.Errorf("failed to check consumption for prompt %d: %w", promptID, err)
	}

	unitPrice := a.pricing.UnitPrice(userID)
	options := make([]pkgmodels.SelectionOption, 0, len(completed))
	var defaultSelection *pkgmodels.EvaluationID
	for _, e := range completed {
		available := lastReportEmpty(lastItem) ||
			(lastItem != nil && lastItem.EvaluationID != nil && e.ID == *lastItem.EvaluationID) ||
			(lastSelectedThreshold != nil && e.CompletedAt != nil && lastSelectedThreshold.CompletedAt != nil && e.CompletedAt.After(*lastSelectedThreshold.CompletedAt))
		if !available {
			continue
		}
		options = append(options, pkgmodels.SelectionOption{
			EvaluationID: e.ID,
			CompletedAt:  *e.CompletedAt,
			IsFresh:      !consumedSet[e.ID],
			UnitPrice:    unitPrice,
		})
		if defaultSelection == nil {
			id := e.ID
			defaultSelection = &id
		}
	}

	return pkgmodels.PromptSelectionInfo{
		PromptID:                promptID,
		AvailableOptions:        options,
		DefaultSelection:        defaultSelection,
		WasAwaitingInLastReport: wasAwaiting,
		HasInProgressEvaluation: inProgress,
	}, nil
}

// lastReportEmpty reports whether there is no usable cutoff from the prior
// report — either no prior report covered this prompt at all, or it did but
// nothing was selected (the prompt was still awaiting evaluation at the
// time) — in which case every completed evaluation is available (spec §4.3,
// matching original_source's selection_analyzer.py: cutoff = None in both
// cases).
func lastReportEmpty(lastItem *pkgmodels.GroupReportItem) bool {
	return lastItem == nil || lastItem.EvaluationID == nil
}
