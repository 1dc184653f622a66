package billing

import (
	"context"
	"sort"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// fakeBalanceRepo is an in-memory stand-in for repository.BalanceRepository.
// RunInTx hands callers a zero-value bun.Tx: nothing here issues SQL through
// it, every mutation goes through the fake's own methods directly.
type fakeBalanceRepo struct {
	grants       map[int64]*pkgmodels.CreditGrant
	transactions []*pkgmodels.BalanceTransaction
	nextGrantID  int64
	nextTxnID    int64
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{grants: make(map[int64]*pkgmodels.CreditGrant)}
}

func (r *fakeBalanceRepo) CreateGrant(ctx context.Context, db bun.IDB, grant *pkgmodels.CreditGrant) error {
	r.nextGrantID++
	grant.ID = r.nextGrantID
	grant.CreatedAt = time.Now()
	cp := *grant
	r.grants[grant.ID] = &cp
	return nil
}

func (r *fakeBalanceRepo) UsableGrantsForUpdate(ctx context.Context, tx bun.Tx, userID pkgmodels.UserID, asOf time.Time) ([]*pkgmodels.CreditGrant, error) {
	var out []*pkgmodels.CreditGrant
	for _, g := range r.grants {
		if g.UserID == userID && g.IsUsable(asOf) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		gi, gj := out[i], out[j]
		switch {
		case gi.ExpiresAt == nil && gj.ExpiresAt == nil:
			return gi.ID < gj.ID
		case gi.ExpiresAt == nil:
			return false
		case gj.ExpiresAt == nil:
			return true
		default:
			return gi.ExpiresAt.Before(*gj.ExpiresAt)
		}
	})
	return out, nil
}

func (r *fakeBalanceRepo) UpdateGrantRemaining(ctx context.Context, db bun.IDB, grantID int64, remaining float64) error {
	g, ok := r.grants[grantID]
	if !ok {
		return pkgmodels.ErrPromptNotFound
	}
	g.RemainingAmount = remaining
	return nil
}

func (r *fakeBalanceRepo) AvailableBalance(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, asOf time.Time) (float64, error) {
	total := 0.0
	for _, g := range r.grants {
		if g.UserID == userID && g.IsUsable(asOf) {
			total += g.RemainingAmount
		}
	}
	return total, nil
}

func (r *fakeBalanceRepo) CountSignupBonusGrants(ctx context.Context, tx bun.Tx) (int, error) {
	count := 0
	for _, g := range r.grants {
		if g.Source == pkgmodels.CreditSourceSignupBonus {
			count++
		}
	}
	return count, nil
}

func (r *fakeBalanceRepo) CreateTransaction(ctx context.Context, db bun.IDB, txn *pkgmodels.BalanceTransaction) error {
	r.nextTxnID++
	txn.ID = r.nextTxnID
	txn.CreatedAt = time.Now()
	cp := *txn
	r.transactions = append(r.transactions, &cp)
	return nil
}

func (r *fakeBalanceRepo) ListTransactions(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, limit, offset int) ([]*pkgmodels.BalanceTransaction, error) {
	var out []*pkgmodels.BalanceTransaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].UserID == userID {
			out = append(out, r.transactions[i])
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBalanceRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

// fakeConsumptionRepo is an in-memory stand-in for repository.ConsumptionRepository.
type fakeConsumptionRepo struct {
	consumed map[pkgmodels.UserID]map[pkgmodels.EvaluationID]*pkgmodels.ConsumedEvaluation
}

func newFakeConsumptionRepo() *fakeConsumptionRepo {
	return &fakeConsumptionRepo{consumed: make(map[pkgmodels.UserID]map[pkgmodels.EvaluationID]*pkgmodels.ConsumedEvaluation)}
}

func (r *fakeConsumptionRepo) ConsumedEvaluationIDs(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, evaluationIDs []pkgmodels.EvaluationID) (map[pkgmodels.EvaluationID]bool, error) {
	out := make(map[pkgmodels.EvaluationID]bool)
	byUser := r.consumed[userID]
	for _, id := range evaluationIDs {
		if byUser != nil && byUser[id] != nil {
			out[id] = true
		}
	}
	return out, nil
}

func (r *fakeConsumptionRepo) IsConsumed(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, evaluationID pkgmodels.EvaluationID) (bool, error) {
	byUser := r.consumed[userID]
	return byUser != nil && byUser[evaluationID] != nil, nil
}

func (r *fakeConsumptionRepo) Record(ctx context.Context, db bun.IDB, consumed *pkgmodels.ConsumedEvaluation) error {
	byUser, ok := r.consumed[consumed.UserID]
	if !ok {
		byUser = make(map[pkgmodels.EvaluationID]*pkgmodels.ConsumedEvaluation)
		r.consumed[consumed.UserID] = byUser
	}
	if byUser[consumed.EvaluationID] != nil {
		return &pkgmodels.DuplicateConsumptionError{UserID: string(consumed.UserID), EvaluationID: int64(consumed.EvaluationID)}
	}
	consumed.ConsumedAt = time.Now()
	cp := *consumed
	byUser[consumed.EvaluationID] = &cp
	return nil
}

var (
	_ repository.BalanceRepository     = (*fakeBalanceRepo)(nil)
	_ repository.ConsumptionRepository = (*fakeConsumptionRepo)(nil)
)
