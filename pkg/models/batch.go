package models

import "time"

// BatchStatus is the terminal classification of an external scraper batch
// (spec §3, §4.4).
type BatchStatus string

const (
	BatchStatusPending   BatchStatus = "pending"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusPartial   BatchStatus = "partial"
	BatchStatusFailed    BatchStatus = "failed"
)

// ParsedResult is one webhook item successfully correlated back to a prompt
// (spec §4.4).
type ParsedResult struct {
	PromptID   PromptID   `json:"prompt_id"`
	AnswerText string     `json:"answer_text"`
	Citations  []Citation `json:"citations"`
	Model      string     `json:"model,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// BrightDataBatch is the persisted record of an outbound scraper batch
// (spec §3). The registry keeps an in-memory twin (BatchInfo) for the
// reverse prompt_text -> prompt_id lookup during webhook processing.
type BrightDataBatch struct {
	BatchID     string      `json:"batch_id"`
	UserID      UserID      `json:"user_id"`
	PromptIDs   []PromptID  `json:"prompt_ids"`
	Status      BatchStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// BatchInfo is the in-memory registry entry correlating a batch id to the
// prompt ids/texts that make it up, plus accumulated results (spec §4.4).
type BatchInfo struct {
	BatchID         string
	UserID          UserID
	PromptIDToText  map[PromptID]string
	TextToPromptID  map[string]PromptID
	Results         []ParsedResult
	Errors          []string
	Status          BatchStatus
	CreatedAt       time.Time
}
