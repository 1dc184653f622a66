package models

import (
	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// AIAssistantModel is static reference data identifying an AI product
// under evaluation (e.g. "chatgpt"), seeded by migration.
type AIAssistantModel struct {
	bun.BaseModel `bun:"table:ai_assistants,alias:aa"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

func (AIAssistantModel) TableName() string { return "ai_assistants" }

func ToAssistantDomain(a *AIAssistantModel) *pkgmodels.AIAssistant {
	if a == nil {
		return nil
	}
	return &pkgmodels.AIAssistant{ID: pkgmodels.AssistantID(a.ID), Name: a.Name}
}

// AIAssistantPlanModel is a specific plan/tier of an assistant, unique on
// (assistant_id, name).
type AIAssistantPlanModel struct {
	bun.BaseModel `bun:"table:ai_assistant_plans,alias:aap"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	AssistantID int64  `bun:"assistant_id,notnull" json:"assistant_id"`
	Name        string `bun:"name,notnull" json:"name"`
	IsDefault   bool   `bun:"is_default,notnull,default:false" json:"is_default"`
}

func (AIAssistantPlanModel) TableName() string { return "ai_assistant_plans" }

func ToAssistantPlanDomain(p *AIAssistantPlanModel) *pkgmodels.AIAssistantPlan {
	if p == nil {
		return nil
	}
	return &pkgmodels.AIAssistantPlan{
		ID:          pkgmodels.PlanID(p.ID),
		AssistantID: pkgmodels.AssistantID(p.AssistantID),
		Name:        p.Name,
	}
}
