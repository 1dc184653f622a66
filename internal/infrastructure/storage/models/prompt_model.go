package models

import (
	"time"

	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// PromptModel represents a stored prompt and its semantic embedding.
type PromptModel struct {
	bun.BaseModel `bun:"table:prompts,alias:p"`

	ID        int64        `bun:"id,pk,autoincrement" json:"id"`
	Text      string       `bun:"text,notnull" json:"text"`
	Embedding Float32Array `bun:"embedding,type:float8[]" json:"-"`
	TopicID   *int64       `bun:"topic_id" json:"topic_id,omitempty"`
	UserID    *string      `bun:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time    `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (PromptModel) TableName() string { return "prompts" }

func (p *PromptModel) BeforeInsert(ctx interface{}) error {
	p.CreatedAt = time.Now()
	return nil
}

func ToPromptDomain(p *PromptModel) *pkgmodels.Prompt {
	if p == nil {
		return nil
	}
	var userID *pkgmodels.UserID
	if p.UserID != nil {
		u := pkgmodels.UserID(*p.UserID)
		userID = &u
	}
	return &pkgmodels.Prompt{
		ID:        pkgmodels.PromptID(p.ID),
		Text:      p.Text,
		Embedding: []float32(p.Embedding),
		TopicID:   p.TopicID,
		UserID:    userID,
		CreatedAt: p.CreatedAt,
	}
}

func FromPromptDomain(p *pkgmodels.Prompt) *PromptModel {
	if p == nil {
		return nil
	}
	var userID *string
	if p.UserID != nil {
		s := string(*p.UserID)
		userID = &s
	}
	return &PromptModel{
		ID:        int64(p.ID),
		Text:      p.Text,
		Embedding: Float32Array(p.Embedding),
		TopicID:   p.TopicID,
		UserID:    userID,
		CreatedAt: p.CreatedAt,
	}
}

// PromptGroupModel represents a user-owned group of tracked prompts.
type PromptGroupModel struct {
	bun.BaseModel `bun:"table:prompt_groups,alias:pg"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID      string    `bun:"user_id,notnull" json:"user_id"`
	Title       string    `bun:"title,notnull" json:"title"`
	TopicID     *int64    `bun:"topic_id" json:"topic_id,omitempty"`
	Brand       JSONBMap  `bun:"brand,type:jsonb,default:'{}'" json:"brand,omitempty"`
	Competitors StringArray `bun:"competitors,type:text[]" json:"competitors,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (PromptGroupModel) TableName() string { return "prompt_groups" }

func (g *PromptGroupModel) BeforeInsert(ctx interface{}) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Brand == nil {
		g.Brand = make(JSONBMap)
	}
	return nil
}

func (g *PromptGroupModel) BeforeUpdate(ctx interface{}) error {
	g.UpdatedAt = time.Now()
	return nil
}

func ToPromptGroupDomain(g *PromptGroupModel) *pkgmodels.PromptGroup {
	if g == nil {
		return nil
	}
	return &pkgmodels.PromptGroup{
		ID:          pkgmodels.GroupID(g.ID),
		UserID:      pkgmodels.UserID(g.UserID),
		Title:       g.Title,
		TopicID:     g.TopicID,
		Brand:       map[string]any(g.Brand),
		Competitors: []string(g.Competitors),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func FromPromptGroupDomain(g *pkgmodels.PromptGroup) *PromptGroupModel {
	if g == nil {
		return nil
	}
	return &PromptGroupModel{
		ID:          int64(g.ID),
		UserID:      string(g.UserID),
		Title:       g.Title,
		TopicID:     g.TopicID,
		Brand:       JSONBMap(g.Brand),
		Competitors: StringArray(g.Competitors),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// PromptGroupBindingModel links a prompt to a group.
type PromptGroupBindingModel struct {
	bun.BaseModel `bun:"table:prompt_group_bindings,alias:pgb"`

	GroupID  int64     `bun:"group_id,pk" json:"group_id"`
	PromptID int64     `bun:"prompt_id,pk" json:"prompt_id"`
	AddedAt  time.Time `bun:"added_at,notnull,default:current_timestamp" json:"added_at"`
}

func (PromptGroupBindingModel) TableName() string { return "prompt_group_bindings" }

func (b *PromptGroupBindingModel) BeforeInsert(ctx interface{}) error {
	b.AddedAt = time.Now()
	return nil
}
