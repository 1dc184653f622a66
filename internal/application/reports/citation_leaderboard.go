package reports

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// CitationLeaderboardBuilder aggregates how often each cited domain appears
// across a report's included items (supplemented feature, SPEC_FULL §6).
type CitationLeaderboardBuilder struct {
	reportRepo repository.ReportRepository
	evalRepo   repository.EvaluationRepository
	evalsDB    bun.IDB
}

func NewCitationLeaderboardBuilder(reportRepo repository.ReportRepository, evalRepo repository.EvaluationRepository, evalsDB bun.IDB) *CitationLeaderboardBuilder {
	return &CitationLeaderboardBuilder{reportRepo: reportRepo, evalRepo: evalRepo, evalsDB: evalsDB}
}

// Build counts citation domains across every included, non-awaiting item of
// a report and returns them ranked by count descending.
func (b *CitationLeaderboardBuilder) Build(ctx context.Context, reportID pkgmodels.ReportID) ([]pkgmodels.CitationLeaderboardEntry, error) {
	items, err := b.reportRepo.ItemsForReport(ctx, b.evalsDB, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report items: %w", err)
	}

	counts := make(map[string]int)
	for _, item := range items {
		if item.Status != pkgmodels.ReportItemIncluded || item.EvaluationID == nil {
			continue
		}
		eval, err := b.evalRepo.GetByID(ctx, b.evalsDB, *item.EvaluationID)
		if err != nil {
			continue
		}
		if eval.Answer == nil {
			continue
		}
		seen := make(map[string]bool)
		for _, citation := range eval.Answer.Citations {
			if citation.Domain == "" || seen[citation.Domain] {
				continue
			}
			seen[citation.Domain] = true
			counts[citation.Domain]++
		}
	}

	entries := make([]pkgmodels.CitationLeaderboardEntry, 0, len(counts))
	for domain, count := range counts {
		entries = append(entries, pkgmodels.CitationLeaderboardEntry{Domain: domain, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Domain < entries[j].Domain
	})
	return entries, nil
}
