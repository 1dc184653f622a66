package reports

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// FreshnessAnalyzer produces the /reports/groups/{id}/compare response: the
// selection analysis plus a diff of brand/competitor metadata against the
// group's last report snapshot (spec §4.3).
type FreshnessAnalyzer struct {
	selections *SelectionAnalyzer
	groupRepo  repository.PromptGroupRepository
	reportRepo repository.ReportRepository
	promptsDB  bun.IDB
	evalsDB    bun.IDB
}

func NewFreshnessAnalyzer(selections *SelectionAnalyzer, groupRepo repository.PromptGroupRepository, reportRepo repository.ReportRepository, promptsDB, evalsDB bun.IDB) *FreshnessAnalyzer {
	return &FreshnessAnalyzer{
		selections: selections,
		groupRepo:  groupRepo,
		reportRepo: reportRepo,
		promptsDB:  promptsDB,
		evalsDB:    evalsDB,
	}
}

func (f *FreshnessAnalyzer) Compare(ctx context.Context, groupID pkgmodels.GroupID, userID pkgmodels.UserID) (*pkgmodels.FreshnessComparison, error) {
	selections, err := f.selections.Analyze(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	group, err := f.groupRepo.GetByID(ctx, f.promptsDB, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	lastReport, err := f.reportRepo.LatestForGroup(ctx, f.evalsDB, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up last report: %w", err)
	}

	var changes []pkgmodels.BrandChange
	if lastReport != nil {
		changes, err = diffBrand(lastReport.BrandSnapshot, group.Brand, lastReport.CompetitorsSnapshot, group.Competitors)
		if err != nil {
			return nil, fmt.Errorf("failed to diff brand metadata: %w", err)
		}
	}

	defaultFreshCount := 0
	for _, info := range selections {
		if info.DefaultSelection == nil {
			continue
		}
		for _, opt := range info.AvailableOptions {
			if opt.EvaluationID == *info.DefaultSelection && opt.IsFresh {
				defaultFreshCount++
				break
			}
		}
	}

	comparison := &pkgmodels.FreshnessComparison{
		PromptSelections: selections,
		BrandChanges:     changes,
		CanGenerate:      defaultFreshCount > 0,
	}
	if !comparison.CanGenerate {
		comparison.GenerationDisabledReason = "no_new_data"
	}
	return comparison, nil
}

// leafPathsQuery and getPathCode are compiled once; brand metadata is
// arbitrary free-form JSON (spec §3), so diffing it field-by-field means
// walking to every leaf rather than assuming a flat shape.
var (
	leafPathsQuery *gojq.Query
	getPathCode    *gojq.Code
)

func init() {
	var err error
	leafPathsQuery, err = gojq.Parse("[leaf_paths]")
	if err != nil {
		panic(fmt.Errorf("invalid leaf_paths query: %w", err))
	}
	getPathQuery, err := gojq.Parse("getpath($p)")
	if err != nil {
		panic(fmt.Errorf("invalid getpath query: %w", err))
	}
	getPathCode, err = gojq.Compile(getPathQuery, gojq.WithVariables([]string{"$p"}))
	if err != nil {
		panic(fmt.Errorf("invalid getpath compile: %w", err))
	}
}

// diffBrand compares the group's current brand/competitor metadata against
// the snapshot frozen at the last report's generation time (spec §4.3).
// Brand/competitors alone never gate generation; this is purely informational.
// Brand JSON may nest arbitrarily (e.g. social handles under "social"), so
// the diff walks every leaf path via gojq rather than comparing only
// top-level keys.
func diffBrand(oldBrand, newBrand map[string]any, oldCompetitors, newCompetitors []string) ([]pkgmodels.BrandChange, error) {
	oldPaths, err := leafPaths(oldBrand)
	if err != nil {
		return nil, fmt.Errorf("failed to walk old brand metadata: %w", err)
	}
	newPaths, err := leafPaths(newBrand)
	if err != nil {
		return nil, fmt.Errorf("failed to walk new brand metadata: %w", err)
	}

	seen := make(map[string][]any)
	order := make([]string, 0, len(oldPaths)+len(newPaths))
	for _, p := range oldPaths {
		key := pathKey(p)
		if _, ok := seen[key]; !ok {
			order = append(order, key)
		}
		seen[key] = p
	}
	for _, p := range newPaths {
		key := pathKey(p)
		if _, ok := seen[key]; !ok {
			order = append(order, key)
		}
		seen[key] = p
	}

	var changes []pkgmodels.BrandChange
	for _, key := range order {
		path := seen[key]
		ov, oldHas, err := getPath(oldBrand, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read brand.%s: %w", key, err)
		}
		nv, newHas, err := getPath(newBrand, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read brand.%s: %w", key, err)
		}
		if !oldHas {
			changes = append(changes, pkgmodels.BrandChange{Field: "brand." + key, NewValue: nv})
			continue
		}
		if !newHas {
			changes = append(changes, pkgmodels.BrandChange{Field: "brand." + key, OldValue: ov})
			continue
		}
		if !reflect.DeepEqual(ov, nv) {
			changes = append(changes, pkgmodels.BrandChange{Field: "brand." + key, OldValue: ov, NewValue: nv})
		}
	}

	if !stringSlicesEqual(oldCompetitors, newCompetitors) {
		changes = append(changes, pkgmodels.BrandChange{Field: "competitors", OldValue: oldCompetitors, NewValue: newCompetitors})
	}
	return changes, nil
}

// leafPaths returns every scalar field's path within doc, e.g.
// [["name"] ["social" "twitter"]], using jq's leaf_paths builtin so nested
// brand metadata diffs leaf-by-leaf instead of subtree-by-subtree.
func leafPaths(doc map[string]any) ([][]any, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	iter := leafPathsQuery.Run(doc)
	v, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, isErr := v.(error); isErr {
		return nil, err
	}
	paths, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected leaf_paths result type %T", v)
	}
	out := make([][]any, 0, len(paths))
	for _, p := range paths {
		seg, ok := p.([]any)
		if !ok {
			continue
		}
		out = append(out, seg)
	}
	return out, nil
}

// getPath fetches the value at path within doc via jq's getpath builtin,
// reporting whether the path resolved to anything.
func getPath(doc map[string]any, path []any) (any, bool, error) {
	iter := getPathCode.Run(doc, path)
	v, ok := iter.Next()
	if !ok {
		return nil, false, nil
	}
	if err, isErr := v.(error); isErr {
		return nil, false, err
	}
	return v, v != nil, nil
}

func pathKey(path []any) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = fmt.Sprintf("%v", seg)
	}
	return strings.Join(parts, ".")
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, s := range a {
		set[s]++
	}
	for _, s := range b {
		set[s]--
	}
	for _, v := range set {
		if v != 0 {
			return false
		}
	}
	return true
}
