package models

import (
	"time"

	"github.com/uptrace/bun"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// CreditGrantModel is a unit of balance with optional expiry, consumed
// FIFO-by-expiry by the charge engine.
type CreditGrantModel struct {
	bun.BaseModel `bun:"table:credit_grants,alias:cg"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID          string     `bun:"user_id,notnull" json:"user_id"`
	Source          string     `bun:"source,notnull" json:"source"`
	OriginalAmount  float64    `bun:"original_amount,notnull" json:"original_amount"`
	RemainingAmount float64    `bun:"remaining_amount,notnull" json:"remaining_amount"`
	ExpiresAt       *time.Time `bun:"expires_at" json:"expires_at,omitempty"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (CreditGrantModel) TableName() string { return "credit_grants" }

func (g *CreditGrantModel) BeforeInsert(ctx interface{}) error {
	g.CreatedAt = time.Now()
	return nil
}

func ToCreditGrantDomain(g *CreditGrantModel) *pkgmodels.CreditGrant {
	if g == nil {
		return nil
	}
	return &pkgmodels.CreditGrant{
		ID:              g.ID,
		UserID:          pkgmodels.UserID(g.UserID),
		Source:          pkgmodels.CreditSource(g.Source),
		OriginalAmount:  g.OriginalAmount,
		RemainingAmount: g.RemainingAmount,
		ExpiresAt:       g.ExpiresAt,
		CreatedAt:       g.CreatedAt,
	}
}

func FromCreditGrantDomain(g *pkgmodels.CreditGrant) *CreditGrantModel {
	if g == nil {
		return nil
	}
	return &CreditGrantModel{
		ID:              g.ID,
		UserID:          string(g.UserID),
		Source:          string(g.Source),
		OriginalAmount:  g.OriginalAmount,
		RemainingAmount: g.RemainingAmount,
		ExpiresAt:       g.ExpiresAt,
		CreatedAt:       g.CreatedAt,
	}
}

// BalanceTransactionModel is an append-only audit log entry recording the
// post-operation balance.
type BalanceTransactionModel struct {
	bun.BaseModel `bun:"table:balance_transactions,alias:bt"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        string    `bun:"user_id,notnull" json:"user_id"`
	Type          string    `bun:"type,notnull" json:"type"`
	Amount        float64   `bun:"amount,notnull" json:"amount"`
	BalanceAfter  float64   `bun:"balance_after,notnull" json:"balance_after"`
	Reason        string    `bun:"reason" json:"reason,omitempty"`
	ReferenceType string    `bun:"reference_type" json:"reference_type,omitempty"`
	ReferenceID   string    `bun:"reference_id" json:"reference_id,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

func (BalanceTransactionModel) TableName() string { return "balance_transactions" }

func (t *BalanceTransactionModel) BeforeInsert(ctx interface{}) error {
	t.CreatedAt = time.Now()
	return nil
}

func ToBalanceTransactionDomain(t *BalanceTransactionModel) *pkgmodels.BalanceTransaction {
	if t == nil {
		return nil
	}
	return &pkgmodels.BalanceTransaction{
		ID:            t.ID,
		UserID:        pkgmodels.UserID(t.UserID),
		Type:          pkgmodels.BalanceTransactionType(t.Type),
		Amount:        t.Amount,
		BalanceAfter:  t.BalanceAfter,
		Reason:        t.Reason,
		ReferenceType: t.ReferenceType,
		ReferenceID:   t.ReferenceID,
		CreatedAt:     t.CreatedAt,
	}
}

func FromBalanceTransactionDomain(t *pkgmodels.BalanceTransaction) *BalanceTransactionModel {
	if t == nil {
		return nil
	}
	return &BalanceTransactionModel{
		ID:            t.ID,
		UserID:        string(t.UserID),
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceAfter:  t.BalanceAfter,
		Reason:        t.Reason,
		ReferenceType: t.ReferenceType,
		ReferenceID:   t.ReferenceID,
		CreatedAt:     t.CreatedAt,
	}
}

// ConsumedEvaluationModel is the charge engine's idempotency primitive:
// unique on (user_id, evaluation_id).
type ConsumedEvaluationModel struct {
	bun.BaseModel `bun:"table:consumed_evaluations,alias:ce"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        string    `bun:"user_id,notnull" json:"user_id"`
	EvaluationID  int64     `bun:"evaluation_id,notnull" json:"evaluation_id"`
	AmountCharged float64   `bun:"amount_charged,notnull" json:"amount_charged"`
	ConsumedAt    time.Time `bun:"consumed_at,notnull,default:current_timestamp" json:"consumed_at"`
}

func (ConsumedEvaluationModel) TableName() string { return "consumed_evaluations" }

func (c *ConsumedEvaluationModel) BeforeInsert(ctx interface{}) error {
	c.ConsumedAt = time.Now()
	return nil
}

func ToConsumedEvaluationDomain(c *ConsumedEvaluationModel) *pkgmodels.ConsumedEvaluation {
	if c == nil {
		return nil
	}
	return &pkgmodels.ConsumedEvaluation{
		ID:            c.ID,
		UserID:        pkgmodels.UserID(c.UserID),
		EvaluationID:  pkgmodels.EvaluationID(c.EvaluationID),
		AmountCharged: c.AmountCharged,
		ConsumedAt:    c.ConsumedAt,
	}
}

func FromConsumedEvaluationDomain(c *pkgmodels.ConsumedEvaluation) *ConsumedEvaluationModel {
	if c == nil {
		return nil
	}
	return &ConsumedEvaluationModel{
		ID:            c.ID,
		UserID:        string(c.UserID),
		EvaluationID:  int64(c.EvaluationID),
		AmountCharged: c.AmountCharged,
		ConsumedAt:    c.ConsumedAt,
	}
}
