package models

import (
	"time"

	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// AnswerModel is the JSONB-encoded payload a worker submits for a claimed
// evaluation.
type AnswerModel struct {
	Response  string            `json:"response"`
	Citations []pkgmodels.Citation `json:"citations"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
}

// PromptEvaluationModel represents one attempt by one assistant-plan to
// answer one prompt.
type PromptEvaluationModel struct {
	bun.BaseModel `bun:"table:prompt_evaluations,alias:pe"`

	ID              int64        `bun:"id,pk,autoincrement" json:"id"`
	PromptID        int64        `bun:"prompt_id,notnull" json:"prompt_id"`
	AssistantPlanID int64        `bun:"assistant_plan_id,notnull" json:"assistant_plan_id"`
	Status          string       `bun:"status,notnull,default:'in_progress'" json:"status"`
	CreatedAt       time.Time    `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	ClaimedAt       *time.Time   `bun:"claimed_at" json:"claimed_at,omitempty"`
	CompletedAt     *time.Time   `bun:"completed_at" json:"completed_at,omitempty"`
	Answer          *AnswerModel `bun:"answer,type:jsonb" json:"answer,omitempty"`
}

func (PromptEvaluationModel) TableName() string { return "prompt_evaluations" }

func (e *PromptEvaluationModel) BeforeInsert(ctx interface{}) error {
	e.CreatedAt = time.Now()
	if e.Status == "" {
		e.Status = string(pkgmodels.EvaluationStatusInProgress)
	}
	return nil
}

func ToEvaluationDomain(e *PromptEvaluationModel) *pkgmodels.PromptEvaluation {
	if e == nil {
		return nil
	}
	var answer *pkgmodels.Answer
	if e.Answer != nil {
		answer = &pkgmodels.Answer{
			Response:  e.Answer.Response,
			Citations: e.Answer.Citations,
			Timestamp: e.Answer.Timestamp,
			Error:     e.Answer.Error,
		}
	}
	return &pkgmodels.PromptEvaluation{
		ID:              pkgmodels.EvaluationID(e.ID),
		PromptID:        pkgmodels.PromptID(e.PromptID),
		AssistantPlanID: pkgmodels.PlanID(e.AssistantPlanID),
		Status:          pkgmodels.EvaluationStatus(e.Status),
		CreatedAt:       e.CreatedAt,
		ClaimedAt:       e.ClaimedAt,
		CompletedAt:     e.CompletedAt,
		Answer:          answer,
	}
}

func FromEvaluationDomain(e *pkgmodels.PromptEvaluation) *PromptEvaluationModel {
	if e == nil {
		return nil
	}
	var answer *AnswerModel
	if e.Answer != nil {
		answer = &AnswerModel{
			Response:  e.Answer.Response,
			Citations: e.Answer.Citations,
			Timestamp: e.Answer.Timestamp,
			Error:     e.Answer.Error,
		}
	}
	return &PromptEvaluationModel{
		ID:              int64(e.ID),
		PromptID:        int64(e.PromptID),
		AssistantPlanID: int64(e.AssistantPlanID),
		Status:          string(e.Status),
		CreatedAt:       e.CreatedAt,
		ClaimedAt:       e.ClaimedAt,
		CompletedAt:     e.CompletedAt,
		Answer:          answer,
	}
}
