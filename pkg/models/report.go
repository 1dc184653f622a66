package models

import "time"

// GroupReportItemStatus captures per-prompt selection outcome in a report
// snapshot (spec §3, §4.3).
type GroupReportItemStatus string

const (
	ReportItemIncluded GroupReportItemStatus = "included"
	ReportItemAwaiting GroupReportItemStatus = "awaiting"
	ReportItemSkipped  GroupReportItemStatus = "skipped"
)

// GroupReport is a snapshot of which evaluation represents each prompt in a
// group at a point in time, plus the cost paid to assemble it (spec §3).
type GroupReport struct {
	ID                    ReportID  `json:"id"`
	GroupID               GroupID   `json:"group_id"`
	UserID                UserID    `json:"user_id"`
	Title                 string    `json:"title,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	TotalPrompts          int       `json:"total_prompts"`
	PromptsWithData       int       `json:"prompts_with_data"`
	PromptsAwaiting       int       `json:"prompts_awaiting"`
	TotalEvaluationsLoaded int      `json:"total_evaluations_loaded"`
	TotalCost             float64   `json:"total_cost"`

	// BrandSnapshot/CompetitorsSnapshot freeze the group's brand metadata at
	// generation time, the baseline the next /compare diffs against (spec §4.3).
	BrandSnapshot       map[string]any `json:"brand_snapshot,omitempty"`
	CompetitorsSnapshot []string       `json:"competitors_snapshot,omitempty"`
}

// GroupReportItem is one row of a report snapshot, one per prompt in the group.
type GroupReportItem struct {
	ID            int64                 `json:"id"`
	ReportID      ReportID              `json:"report_id"`
	PromptID      PromptID              `json:"prompt_id"`
	EvaluationID  *EvaluationID         `json:"evaluation_id,omitempty"`
	Status        GroupReportItemStatus `json:"status"`
	IsFresh       bool                  `json:"is_fresh"`
	AmountCharged *float64              `json:"amount_charged,omitempty"`

	// Mentions is nil for non-included items (no answer text to scan).
	Mentions *MentionSummary `json:"mentions,omitempty"`
}

// SelectionInput is one user-supplied (prompt, evaluation) choice for report
// generation (spec §4.3).
type SelectionInput struct {
	PromptID     PromptID      `json:"prompt_id"`
	EvaluationID *EvaluationID `json:"evaluation_id"`
}

// SelectionOption is one evaluation available for selection for a prompt.
type SelectionOption struct {
	EvaluationID EvaluationID `json:"evaluation_id"`
	CompletedAt  time.Time    `json:"completed_at"`
	IsFresh      bool         `json:"is_fresh"`
	UnitPrice    float64      `json:"unit_price"`
}

// PromptSelectionInfo is the per-prompt selection analysis result used to
// drive the report /compare endpoint (spec §4.3).
type PromptSelectionInfo struct {
	PromptID                PromptID          `json:"prompt_id"`
	AvailableOptions        []SelectionOption `json:"available_options"`
	DefaultSelection        *EvaluationID     `json:"default_selection,omitempty"`
	WasAwaitingInLastReport bool              `json:"was_awaiting_in_last_report"`
	HasInProgressEvaluation bool              `json:"has_in_progress_evaluation"`
}

// BrandChange is one field-level diff between a group's current brand/
// competitor metadata and its last-report-time snapshot (spec §4.3).
type BrandChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
}

// FreshnessComparison is the response of the /reports/groups/{id}/compare
// endpoint (spec §4.3).
type FreshnessComparison struct {
	PromptSelections        []PromptSelectionInfo `json:"prompt_selections"`
	BrandChanges            []BrandChange          `json:"brand_changes"`
	CanGenerate             bool                   `json:"can_generate"`
	GenerationDisabledReason string                `json:"generation_disabled_reason,omitempty"`
}

// CitationLeaderboardEntry aggregates how often a cited domain appears
// across a report's included items (supplemented feature, SPEC_FULL §6).
type CitationLeaderboardEntry struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// MentionSummary records brand/competitor name occurrences detected in an
// evaluation's answer response text; citations are not scanned
// (supplemented feature, SPEC_FULL §6).
type MentionSummary struct {
	BrandMentioned      bool     `json:"brand_mentioned"`
	CompetitorsMentioned []string `json:"competitors_mentioned,omitempty"`
}
