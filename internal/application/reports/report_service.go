package reports

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/billing"
	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// ReportService generates GroupReport snapshots (spec §4.3 "Report
// generation"), grounded on the charge engine for the cost side and the
// report repository's transaction for atomicity.
type ReportService struct {
	selections  *SelectionAnalyzer
	groupRepo   repository.PromptGroupRepository
	reportRepo  repository.ReportRepository
	consumption repository.ConsumptionRepository
	charges     *billing.ChargeService
	promptsDB   bun.IDB
}

func NewReportService(
	selections *SelectionAnalyzer,
	groupRepo repository.PromptGroupRepository,
	reportRepo repository.ReportRepository,
	consumption repository.ConsumptionRepository,
	charges *billing.ChargeService,
	promptsDB bun.IDB,
) *ReportService {
	return &ReportService{
		selections:  selections,
		groupRepo:   groupRepo,
		reportRepo:  reportRepo,
		consumption: consumption,
		charges:     charges,
		promptsDB:   promptsDB,
	}
}

// Generate implements spec §4.3's report generation steps 1-6.
func (s *ReportService) Generate(ctx context.Context, groupID pkgmodels.GroupID, userID pkgmodels.UserID, rawSelections []pkgmodels.SelectionInput, useDefaultsForUnspecified bool, title string) (*pkgmodels.GroupReport, []*pkgmodels.GroupReportItem, error) {
	group, err := s.groupRepo.GetByID(ctx, s.promptsDB, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load group: %w", err)
	}

	promptInfo, err := s.selections.Analyze(ctx, groupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(promptInfo) == 0 {
		report := &pkgmodels.GroupReport{GroupID: groupID, UserID: userID, Title: title}
		if err := s.reportRepo.Create(ctx, s.reportRepoDB(), report); err != nil {
			return nil, nil, fmt.Errorf("failed to create empty report: %w", err)
		}
		return report, nil, nil
	}

	resolved, err := ValidateSelections(rawSelections, promptInfo, useDefaultsForUnspecified)
	if err != nil {
		return nil, nil, err
	}

	consumedIDs := make([]pkgmodels.EvaluationID, 0, len(resolved))
	for _, sel := range resolved {
		if sel.EvaluationID != nil {
			consumedIDs = append(consumedIDs, *sel.EvaluationID)
		}
	}
	alreadyConsumed, err := s.consumption.ConsumedEvaluationIDs(ctx, s.reportRepoDB(), userID, consumedIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check consumption: %w", err)
	}

	freshIDs := make([]pkgmodels.EvaluationID, 0)
	for _, id := range consumedIDs {
		if !alreadyConsumed[id] {
			freshIDs = append(freshIDs, id)
		}
	}

	chargeResult, err := s.charges.Charge(ctx, userID, freshIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to charge for report: %w", err)
	}
	charged := make(map[pkgmodels.EvaluationID]bool, len(chargeResult.ChargedEvaluationIDs))
	for _, id := range chargeResult.ChargedEvaluationIDs {
		charged[id] = true
	}
	var amountPerFresh float64
	if len(chargeResult.ChargedEvaluationIDs) > 0 {
		amountPerFresh = chargeResult.TotalCharged / float64(len(chargeResult.ChargedEvaluationIDs))
	}

	report := &pkgmodels.GroupReport{
		GroupID:             groupID,
		UserID:              userID,
		Title:               title,
		TotalPrompts:        len(promptInfo),
		TotalCost:           chargeResult.TotalCharged,
		BrandSnapshot:       group.Brand,
		CompetitorsSnapshot: group.Competitors,
	}

	items := make([]*pkgmodels.GroupReportItem, 0, len(resolved))
	for _, sel := range resolved {
		if sel.EvaluationID == nil {
			report.PromptsAwaiting++
			items = append(items, &pkgmodels.GroupReportItem{PromptID: sel.PromptID, Status: pkgmodels.ReportItemAwaiting})
			continue
		}
		report.PromptsWithData++
		report.TotalEvaluationsLoaded++
		isFresh := charged[*sel.EvaluationID]
		item := &pkgmodels.GroupReportItem{
			PromptID:     sel.PromptID,
			EvaluationID: sel.EvaluationID,
			Status:       pkgmodels.ReportItemIncluded,
			IsFresh:      isFresh,
		}
		if isFresh {
			amount := amountPerFresh
			item.AmountCharged = &amount
		}
		if eval, err := s.selections.evalRepo.GetByID(ctx, s.reportRepoDB(), *sel.EvaluationID); err == nil {
			summary := DetectMentions(eval.Answer, group.Brand, group.Competitors)
			item.Mentions = &summary
		}
		items = append(items, item)
	}

	err = s.reportRepo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.reportRepo.Create(ctx, tx, report); err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		for _, item := range items {
			item.ReportID = report.ID
		}
		if err := s.reportRepo.CreateItems(ctx, tx, items); err != nil {
			return fmt.Errorf("failed to create report items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return report, items, nil
}

// reportRepoDB is the evals-store handle: reports live there regardless of
// which store (prompts) triggered generation.
func (s *ReportService) reportRepoDB() bun.IDB {
	return s.selections.evalsDB
}
