package models

import "time"

// Prompt is a stored user-facing question plus its semantic embedding
// (spec §3, prompt store).
type Prompt struct {
	ID        PromptID  `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"` // 384-dim, cosine-indexed; never serialized over the wire
	TopicID   *int64    `json:"topic_id,omitempty"`
	UserID    *UserID   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate validates the prompt structure.
func (p *Prompt) Validate() error {
	if p.Text == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if len(p.Embedding) != 0 && len(p.Embedding) != 384 {
		return &ValidationError{Field: "embedding", Message: "embedding must be 384-dimensional"}
	}
	return nil
}

// Topic is prompt-store reference data (out of core scope; modeled as a
// collaborator per spec §1).
type Topic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Country is prompt-store reference data.
type Country struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Language is prompt-store reference data.
type Language struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// BusinessDomain is prompt-store reference data.
type BusinessDomain struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CountryLanguage orders languages within a country for prompt generation.
type CountryLanguage struct {
	CountryID  int64 `json:"country_id"`
	LanguageID int64 `json:"language_id"`
	Order      int   `json:"order"`
}

// IngestResult is returned by the prompt ingest pipeline (spec §4.5):
// created/reused counts, the resolved prompt ids in input order, and an
// opaque request id correlating the batch.
type IngestResult struct {
	CreatedCount int        `json:"created_count"`
	ReusedCount  int        `json:"reused_count"`
	PromptIDs    []PromptID `json:"prompt_ids"`
	RequestID    string     `json:"request_id"`
}

// PromptGroup is a user-owned set of prompts plus tracked brand/competitor
// metadata (spec §3). Brand and Competitors are free-form JSON so the
// report generator can diff them across report snapshots (spec §4.3).
type PromptGroup struct {
	ID          GroupID        `json:"id"`
	UserID      UserID         `json:"user_id"`
	Title       string         `json:"title"`
	TopicID     *int64         `json:"topic_id,omitempty"`
	Brand       map[string]any `json:"brand,omitempty"`
	Competitors []string       `json:"competitors,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Validate validates the prompt group structure.
func (g *PromptGroup) Validate() error {
	if g.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	if g.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return nil
}

// PromptGroupBinding links a prompt to a group; unique on (GroupID, PromptID).
type PromptGroupBinding struct {
	GroupID  GroupID   `json:"group_id"`
	PromptID PromptID  `json:"prompt_id"`
	AddedAt  time.Time `json:"added_at"`
}

// AIAssistant identifies an AI product under evaluation (e.g. "chatgpt").
type AIAssistant struct {
	ID   AssistantID `json:"id"`
	Name string      `json:"name"`
}

// AIAssistantPlan identifies a specific plan/tier of an assistant
// (e.g. "plus"); unique on (AssistantID, Name).
type AIAssistantPlan struct {
	ID          PlanID      `json:"id"`
	AssistantID AssistantID `json:"assistant_id"`
	Name        string      `json:"name"`
}
