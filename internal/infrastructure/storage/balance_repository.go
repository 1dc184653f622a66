package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage/models"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var _ repository.BalanceRepository = (*BalanceRepositoryImpl)(nil)
var _ repository.ConsumptionRepository = (*ConsumptionRepositoryImpl)(nil)

type BalanceRepositoryImpl struct {
	db *bun.DB
}

func NewBalanceRepository(db *bun.DB) *BalanceRepositoryImpl {
	return &BalanceRepositoryImpl{db: db}
}

func (r *BalanceRepositoryImpl) CreateGrant(ctx context.Context, db bun.IDB, grant *pkgmodels.CreditGrant) error {
	grantModel := models.FromCreditGrantDomain(grant)

	_, err := db.NewInsert().Model(grantModel).Returning("id, created_at").Exec(ctx)
	if err != nil {
		return err
	}

	grant.ID = grantModel.ID
	grant.CreatedAt = grantModel.CreatedAt
	return nil
}

func (r *BalanceRepositoryImpl) UsableGrantsForUpdate(ctx context.Context, tx bun.Tx, userID pkgmodels.UserID, asOf time.Time) ([]*pkgmodels.CreditGrant, error) {
	var grantModels []*models.CreditGrantModel
	err := tx.NewSelect().
		Model(&grantModels).
		Where("user_id = ?", string(userID)).
		Where("remaining_amount > 0").
		Where("(expires_at IS NULL OR expires_at > ?)", asOf).
		Order("expires_at ASC NULLS LAST", "created_at ASC").
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	grants := make([]*pkgmodels.CreditGrant, len(grantModels))
	for i, g := range grantModels {
		grants[i] = models.ToCreditGrantDomain(g)
	}
	return grants, nil
}

func (r *BalanceRepositoryImpl) UpdateGrantRemaining(ctx context.Context, db bun.IDB, grantID int64, remaining float64) error {
	_, err := db.NewUpdate().
		Model((*models.CreditGrantModel)(nil)).
		Set("remaining_amount = ?", remaining).
		Where("id = ?", grantID).
		Exec(ctx)
	return err
}

func (r *BalanceRepositoryImpl) AvailableBalance(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, asOf time.Time) (float64, error) {
	var total sql.NullFloat64
	err := db.NewSelect().
		Model((*models.CreditGrantModel)(nil)).
		ColumnExpr("COALESCE(SUM(remaining_amount), 0)").
		Where("user_id = ?", string(userID)).
		Where("remaining_amount > 0").
		Where("(expires_at IS NULL OR expires_at > ?)", asOf).
		Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (r *BalanceRepositoryImpl) CountSignupBonusGrants(ctx context.Context, tx bun.Tx) (int, error) {
	count, err := tx.NewSelect().
		Model((*models.CreditGrantModel)(nil)).
		Where("source = ?", string(pkgmodels.CreditSourceSignupBonus)).
		For("UPDATE").
		Count(ctx)
	return count, err
}

func (r *BalanceRepositoryImpl) CreateTransaction(ctx context.Context, db bun.IDB, txn *pkgmodels.BalanceTransaction) error {
	txModel := models.FromBalanceTransactionDomain(txn)

	_, err := db.NewInsert().Model(txModel).Returning("id, created_at").Exec(ctx)
	if err != nil {
		return err
	}

	txn.ID = txModel.ID
	txn.CreatedAt = txModel.CreatedAt
	return nil
}

func (r *BalanceRepositoryImpl) ListTransactions(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, limit, offset int) ([]*pkgmodels.BalanceTransaction, error) {
	var txModels []*models.BalanceTransactionModel
	err := db.NewSelect().
		Model(&txModels).
		Where("user_id = ?", string(userID)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.BalanceTransaction, len(txModels))
	for i, t := range txModels {
		out[i] = models.ToBalanceTransactionDomain(t)
	}
	return out, nil
}

func (r *BalanceRepositoryImpl) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, fn)
}

type ConsumptionRepositoryImpl struct {
	db bun.IDB
}

func NewConsumptionRepository(db bun.IDB) *ConsumptionRepositoryImpl {
	return &ConsumptionRepositoryImpl{db: db}
}

func (r *ConsumptionRepositoryImpl) ConsumedEvaluationIDs(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, evaluationIDs []pkgmodels.EvaluationID) (map[pkgmodels.EvaluationID]bool, error) {
	if len(evaluationIDs) == 0 {
		return map[pkgmodels.EvaluationID]bool{}, nil
	}

	ids := make([]int64, len(evaluationIDs))
	for i, id := range evaluationIDs {
		ids[i] = int64(id)
	}

	var rows []*models.ConsumedEvaluationModel
	err := db.NewSelect().
		Model(&rows).
		Where("user_id = ?", string(userID)).
		Where("evaluation_id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	consumed := make(map[pkgmodels.EvaluationID]bool, len(rows))
	for _, row := range rows {
		consumed[pkgmodels.EvaluationID(row.EvaluationID)] = true
	}
	return consumed, nil
}

func (r *ConsumptionRepositoryImpl) IsConsumed(ctx context.Context, db bun.IDB, userID pkgmodels.UserID, evaluationID pkgmodels.EvaluationID) (bool, error) {
	count, err := db.NewSelect().
		Model((*models.ConsumedEvaluationModel)(nil)).
		Where("user_id = ? AND evaluation_id = ?", string(userID), int64(evaluationID)).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ConsumptionRepositoryImpl) Record(ctx context.Context, db bun.IDB, consumed *pkgmodels.ConsumedEvaluation) error {
	consumedModel := models.FromConsumedEvaluationDomain(consumed)

	_, err := db.NewInsert().Model(consumedModel).Returning("id, consumed_at").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return pkgmodels.ErrDuplicateConsumption
		}
		return err
	}

	consumed.ID = consumedModel.ID
	consumed.ConsumedAt = consumedModel.ConsumedAt
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505), surfaced by pgdriver as a wrapped pgconn error.
func isUniqueViolation(err error) bool {
	var pgErr interface{ Field(byte) string }
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
