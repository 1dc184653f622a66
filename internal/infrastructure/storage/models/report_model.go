package models

import (
	"time"

	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// GroupReportModel is a snapshot of which evaluation represents each prompt
// in a group at a point in time, plus the cost paid to assemble it.
type GroupReportModel struct {
	bun.BaseModel `bun:"table:group_reports,alias:gr"`

	ID                     int64     `bun:"id,pk,autoincrement" json:"id"`
	GroupID                int64     `bun:"group_id,notnull" json:"group_id"`
	UserID                 string    `bun:"user_id,notnull" json:"user_id"`
	Title                  string    `bun:"title" json:"title,omitempty"`
	CreatedAt              time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	TotalPrompts           int       `bun:"total_prompts,notnull,default:0" json:"total_prompts"`
	PromptsWithData        int       `bun:"prompts_with_data,notnull,default:0" json:"prompts_with_data"`
	PromptsAwaiting        int       `bun:"prompts_awaiting,notnull,default:0" json:"prompts_awaiting"`
	TotalEvaluationsLoaded int       `bun:"total_evaluations_loaded,notnull,default:0" json:"total_evaluations_loaded"`
	TotalCost              float64   `bun:"total_cost,notnull,default:0" json:"total_cost"`
	BrandSnapshot          map[string]any `bun:"brand_snapshot,type:jsonb" json:"brand_snapshot,omitempty"`
	CompetitorsSnapshot    []string       `bun:"competitors_snapshot,type:jsonb" json:"competitors_snapshot,omitempty"`
}

func (GroupReportModel) TableName() string { return "group_reports" }

func (r *GroupReportModel) BeforeInsert(ctx interface{}) error {
	r.CreatedAt = time.Now()
	return nil
}

func ToGroupReportDomain(r *GroupReportModel) *pkgmodels.GroupReport {
	if r == nil {
		return nil
	}
	return &pkgmodels.GroupReport{
		ID:                     pkgmodels.ReportID(r.ID),
		GroupID:                pkgmodels.GroupID(r.GroupID),
		UserID:                 pkgmodels.UserID(r.UserID),
		Title:                  r.Title,
		CreatedAt:              r.CreatedAt,
		TotalPrompts:           r.TotalPrompts,
		PromptsWithData:        r.PromptsWithData,
		PromptsAwaiting:        r.PromptsAwaiting,
		TotalEvaluationsLoaded: r.TotalEvaluationsLoaded,
		TotalCost:              r.TotalCost,
		BrandSnapshot:          r.BrandSnapshot,
		CompetitorsSnapshot:    r.CompetitorsSnapshot,
	}
}

func FromGroupReportDomain(r *pkgmodels.GroupReport) *GroupReportModel {
	if r == nil {
		return nil
	}
	return &GroupReportModel{
		ID:                     int64(r.ID),
		GroupID:                int64(r.GroupID),
		UserID:                 string(r.UserID),
		Title:                  r.Title,
		CreatedAt:              r.CreatedAt,
		TotalPrompts:           r.TotalPrompts,
		PromptsWithData:        r.PromptsWithData,
		PromptsAwaiting:        r.PromptsAwaiting,
		TotalEvaluationsLoaded: r.TotalEvaluationsLoaded,
		TotalCost:              r.TotalCost,
		BrandSnapshot:          r.BrandSnapshot,
		CompetitorsSnapshot:    r.CompetitorsSnapshot,
	}
}

// GroupReportItemModel is one row of a report snapshot, one per prompt in
// the group.
type GroupReportItemModel struct {
	bun.BaseModel `bun:"table:group_report_items,alias:gri"`

	ID            int64    `bun:"id,pk,autoincrement" json:"id"`
	ReportID      int64    `bun:"report_id,notnull" json:"report_id"`
	PromptID      int64    `bun:"prompt_id,notnull" json:"prompt_id"`
	EvaluationID  *int64   `bun:"evaluation_id" json:"evaluation_id,omitempty"`
	Status        string   `bun:"status,notnull" json:"status"`
	IsFresh       bool     `bun:"is_fresh,notnull,default:false" json:"is_fresh"`
	AmountCharged *float64 `bun:"amount_charged" json:"amount_charged,omitempty"`
}

func (GroupReportItemModel) TableName() string { return "group_report_items" }

func ToGroupReportItemDomain(i *GroupReportItemModel) *pkgmodels.GroupReportItem {
	if i == nil {
		return nil
	}
	var evalID *pkgmodels.EvaluationID
	if i.EvaluationID != nil {
		id := pkgmodels.EvaluationID(*i.EvaluationID)
		evalID = &id
	}
	return &pkgmodels.GroupReportItem{
		ID:            i.ID,
		ReportID:      pkgmodels.ReportID(i.ReportID),
		PromptID:      pkgmodels.PromptID(i.PromptID),
		EvaluationID:  evalID,
		Status:        pkgmodels.GroupReportItemStatus(i.Status),
		IsFresh:       i.IsFresh,
		AmountCharged: i.AmountCharged,
	}
}

func FromGroupReportItemDomain(i *pkgmodels.GroupReportItem) *GroupReportItemModel {
	if i == nil {
		return nil
	}
	var evalID *int64
	if i.EvaluationID != nil {
		id := int64(*i.EvaluationID)
		evalID = &id
	}
	return &GroupReportItemModel{
		ID:            i.ID,
		ReportID:      int64(i.ReportID),
		PromptID:      int64(i.PromptID),
		EvaluationID:  evalID,
		Status:        string(i.Status),
		IsFresh:       i.IsFresh,
		AmountCharged: i.AmountCharged,
	}
}
