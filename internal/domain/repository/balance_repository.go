package repository

import (
	"context"
	"time"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// BalanceRepository persists CreditGrant and BalanceTransaction rows
// (spec §3, §4.2).
type BalanceRepository interface {
	// CreateGrant inserts a new credit grant.
	CreateGrant(ctx context.Context, db bun.IDB, grant *models.CreditGrant) error

	// UsableGrantsForUpdate returns every non-expired grant with remaining
	// balance for a user, locked FOR UPDATE, ordered
	// expires_at ASC NULLS LAST, created_at ASC (spec §4.2 FIFO-by-expiry).
	UsableGrantsForUpdate(ctx context.Context, tx bun.Tx, userID models.UserID, asOf time.Time) ([]*models.CreditGrant, error)

	// UpdateGrantRemaining persists a grant's remaining_amount.
	UpdateGrantRemaining(ctx context.Context, db bun.IDB, grantID int64, remaining float64) error

	// AvailableBalance sums remaining_amount over usable grants for a user.
	AvailableBalance(ctx context.Context, db bun.IDB, userID models.UserID, asOf time.Time) (float64, error)

	// CountSignupBonusGrants returns the number of signup_bonus grants
	// across all users, locked so concurrent signups serialise against the
	// cap (spec §4.2).
	CountSignupBonusGrants(ctx context.Context, tx bun.Tx) (int, error)

	// CreateTransaction appends an immutable BalanceTransaction row.
	CreateTransaction(ctx context.Context, db bun.IDB, txn *models.BalanceTransaction) error

	// ListTransactions returns a user's transactions, newest first.
	ListTransactions(ctx context.Context, db bun.IDB, userID models.UserID, limit, offset int) ([]*models.BalanceTransaction, error)

	// RunInTx executes fn within a transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
}

// ConsumptionRepository tracks ConsumedEvaluation rows, the charge engine's
// (user_id, evaluation_id) idempotency primitive (spec §3, §4.2).
type ConsumptionRepository interface {
	// ConsumedEvaluationIDs returns the subset of evaluationIDs already
	// consumed by userID.
	ConsumedEvaluationIDs(ctx context.Context, db bun.IDB, userID models.UserID, evaluationIDs []models.EvaluationID) (map[models.EvaluationID]bool, error)

	// IsConsumed reports whether a single (userID, evaluationID) pair is consumed.
	IsConsumed(ctx context.Context, db bun.IDB, userID models.UserID, evaluationID models.EvaluationID) (bool, error)

	// Record inserts a ConsumedEvaluation row. Implementations must surface a
	// unique-violation on (user_id, evaluation_id) as
	// models.ErrDuplicateConsumption so callers can treat it as a race loss
	// rather than a hard failure (spec §4.2 step 7).
	Record(ctx context.Context, db bun.IDB, consumed *models.ConsumedEvaluation) error
}
