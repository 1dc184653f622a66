package models

import "time"

// CreditSource restricts the provenance of a credit grant (spec §3).
type CreditSource string

const (
	CreditSourceSignupBonus CreditSource = "signup_bonus"
	CreditSourcePayment     CreditSource = "payment"
	CreditSourcePromoCode   CreditSource = "promo_code"
	CreditSourceReferral    CreditSource = "referral"
	CreditSourceAdminGrant  CreditSource = "admin_grant"
)

// CreditGrant is a unit of balance with optional expiry, consumed
// FIFO-by-expiry (spec §3, §4.2). Invariant: 0 <= RemainingAmount <= OriginalAmount.
type CreditGrant struct {
	ID              int64        `json:"id"`
	UserID          UserID       `json:"user_id"`
	Source          CreditSource `json:"source"`
	OriginalAmount  float64      `json:"original_amount"`
	RemainingAmount float64      `json:"remaining_amount"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// IsExpired reports whether the grant can no longer be drawn against as of t.
func (g *CreditGrant) IsExpired(t time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(t)
}

// IsUsable reports whether the grant still has funds and has not expired.
func (g *CreditGrant) IsUsable(t time.Time) bool {
	return g.RemainingAmount > 0 && !g.IsExpired(t)
}

// Validate validates invariants on the grant.
func (g *CreditGrant) Validate() error {
	if g.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	if g.RemainingAmount < 0 || g.RemainingAmount > g.OriginalAmount {
		return &ValidationError{Field: "remaining_amount", Message: "must be between 0 and original_amount"}
	}
	return nil
}

// BalanceTransactionType distinguishes a debit from a credit.
type BalanceTransactionType string

const (
	BalanceTransactionDebit  BalanceTransactionType = "debit"
	BalanceTransactionCredit BalanceTransactionType = "credit"
)

// BalanceTransaction is an append-only audit log entry recording the
// post-operation balance (spec §3, §4.2).
type BalanceTransaction struct {
	ID            int64                  `json:"id"`
	UserID        UserID                 `json:"user_id"`
	Type          BalanceTransactionType `json:"type"`
	Amount        float64                `json:"amount"`
	BalanceAfter  float64                `json:"balance_after"`
	Reason        string                 `json:"reason"`
	ReferenceType string                 `json:"reference_type,omitempty"`
	ReferenceID   string                 `json:"reference_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Validate validates the transaction structure.
func (t *BalanceTransaction) Validate() error {
	if t.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	if t.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return nil
}

// ConsumedEvaluation is the charge engine's idempotency primitive: unique on
// (UserID, EvaluationID) (spec §3).
type ConsumedEvaluation struct {
	ID            int64        `json:"id"`
	UserID        UserID       `json:"user_id"`
	EvaluationID  EvaluationID `json:"evaluation_id"`
	AmountCharged float64      `json:"amount_charged"`
	ConsumedAt    time.Time    `json:"consumed_at"`
}

// BalanceInfo summarizes a user's available balance at a point in time.
type BalanceInfo struct {
	UserID            UserID  `json:"user_id"`
	AvailableBalance  float64 `json:"available_balance"`
	ActiveGrantsCount int     `json:"active_grants_count"`
}

// ChargeResult is returned by ChargeService.Charge (spec §4.2).
type ChargeResult struct {
	ChargedEvaluationIDs []EvaluationID `json:"charged_evaluation_ids"`
	SkippedEvaluationIDs []EvaluationID `json:"skipped_evaluation_ids"`
	TotalCharged         float64        `json:"total_charged"`
	RemainingBalance     float64        `json:"remaining_balance"`
}

// ChargePreview is returned by ChargeService.Preview (spec §4.2); performs no writes.
type ChargePreview struct {
	FreshCount          int     `json:"fresh_count"`
	AlreadyConsumed     int     `json:"already_consumed_count"`
	EstimatedCost       float64 `json:"estimated_cost"`
	UserBalance         float64 `json:"user_balance"`
	AffordableCount     int     `json:"affordable_count"`
	NeedsTopUp          bool    `json:"needs_top_up"`
}
