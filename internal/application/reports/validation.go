package reports

import (
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// ValidateSelections implements spec §4.3's validate(selections, prompt_info,
// use_defaults_for_unspecified): every selected prompt must belong to the
// group with no duplicates, every non-null evaluation id must be one of that
// prompt's available options, and prompts left unspecified are either
// defaulted or left awaiting depending on the flag.
func ValidateSelections(selections []pkgmodels.SelectionInput, promptInfo []pkgmodels.PromptSelectionInfo, useDefaultsForUnspecified bool) ([]pkgmodels.SelectionInput, error) {
	infoByPrompt := make(map[pkgmodels.PromptID]pkgmodels.PromptSelectionInfo, len(promptInfo))
	for _, info := range promptInfo {
		infoByPrompt[info.PromptID] = info
	}

	seen := make(map[pkgmodels.PromptID]bool, len(selections))
	resolved := make(map[pkgmodels.PromptID]*pkgmodels.EvaluationID, len(promptInfo))

	for _, sel := range selections {
		info, ok := infoByPrompt[sel.PromptID]
		if !ok {
			return nil, pkgmodels.ErrSelectionOutsideGroup
		}
		if seen[sel.PromptID] {
			return nil, pkgmodels.ErrDuplicateSelection
		}
		seen[sel.PromptID] = true

		if sel.EvaluationID != nil {
			if !isAvailableOption(info, *sel.EvaluationID) {
				return nil, pkgmodels.ErrInvalidSelection
			}
		}
		resolved[sel.PromptID] = sel.EvaluationID
	}

	out := make([]pkgmodels.SelectionInput, 0, len(promptInfo))
	for _, info := range promptInfo {
		evalID, specified := resolved[info.PromptID]
		if !specified {
			if useDefaultsForUnspecified {
				evalID = info.DefaultSelection
			} else {
				evalID = nil
			}
		}
		out = append(out, pkgmodels.SelectionInput{PromptID: info.PromptID, EvaluationID: evalID})
	}
	return out, nil
}

func isAvailableOption(info pkgmodels.PromptSelectionInfo, evalID pkgmodels.EvaluationID) bool {
	for _, opt := range info.AvailableOptions {
		if opt.EvaluationID == evalID {
			return true
		}
	}
	return false
}
