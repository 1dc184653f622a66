package reports

import (
	"strings"
	"unicode"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// DetectMentions scans an answer's response text for whole-word occurrences
// of the group's brand name and competitor names (supplemented feature,
// SPEC_FULL §6 "domain-mention detection"). Go's regexp lacks lookbehind, so
// matches are found by index and boundary-checked against neighbouring runes
// instead of a word-boundary regex.
func DetectMentions(answer *pkgmodels.Answer, brand map[string]any, competitors []string) pkgmodels.MentionSummary {
	var summary pkgmodels.MentionSummary
	if answer == nil {
		return summary
	}
	text := answer.Response

	if name, ok := brand["name"].(string); ok && name != "" {
		summary.BrandMentioned = containsWord(text, name)
	}

	for _, competitor := range competitors {
		if competitor == "" {
			continue
		}
		if containsWord(text, competitor) {
			summary.CompetitorsMentioned = append(summary.CompetitorsMentioned, competitor)
		}
	}
	return summary
}

// containsWord reports whether needle appears in haystack as a standalone
// word, case-insensitively: the character before and after each match must
// not be a letter or digit (or absent at a string boundary).
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	lowerHaystack := strings.ToLower(haystack)
	lowerNeedle := strings.ToLower(needle)

	start := 0
	for {
		idx := strings.Index(lowerHaystack[start:], lowerNeedle)
		if idx == -1 {
			return false
		}
		absIdx := start + idx
		before := rune(0)
		if absIdx > 0 {
			before = rune(lowerHaystack[absIdx-1])
		}
		afterIdx := absIdx + len(lowerNeedle)
		after := rune(0)
		if afterIdx < len(lowerHaystack) {
			after = rune(lowerHaystack[afterIdx])
		}
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		start = absIdx + 1
		if start >= len(lowerHaystack) {
			return false
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
