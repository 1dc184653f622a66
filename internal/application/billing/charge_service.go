package billing

import (
	"context"
	"fmt"
	"math"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// ChargeService orchestrates the charge/preview contract over BalanceService
// and ConsumptionRepository, grounded on
// original_source/backend/src/billing/services/charge_service.go.
type ChargeService struct {
	balances    *BalanceService
	consumption repository.ConsumptionRepository
	balanceRepo repository.BalanceRepository
	db          bun.IDB
	pricing     PricingStrategy
}

func NewChargeService(balances *BalanceService, consumption repository.ConsumptionRepository, balanceRepo repository.BalanceRepository, db bun.IDB, pricing PricingStrategy) *ChargeService {
	return &ChargeService{
		balances:    balances,
		consumption: consumption,
		balanceRepo: balanceRepo,
		db:          db,
		pricing:     pricing,
	}
}

// Charge implements spec §4.2's charge(user_id, eval_ids[]) contract:
// partitions out already-consumed ids, affords as many of the remainder as
// the balance supports (partial charge, never an error), and atomically
// debits + records consumption for exactly those ids.
func (s *ChargeService) Charge(ctx context.Context, userID pkgmodels.UserID, evalIDs []pkgmodels.EvaluationID) (*pkgmodels.ChargeResult, error) {
	if len(evalIDs) == 0 {
		balance, err := s.balances.AvailableBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &pkgmodels.ChargeResult{RemainingBalance: balance}, nil
	}

	consumedSet, err := s.consumption.ConsumedEvaluationIDs(ctx, s.db, userID, evalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up consumed evaluations: %w", err)
	}

	candidates := make([]pkgmodels.EvaluationID, 0, len(evalIDs))
	skipped := make([]pkgmodels.EvaluationID, 0)
	for _, id := range evalIDs {
		if consumedSet[id] {
			skipped = append(skipped, id)
			continue
		}
		candidates = append(candidates, id)
	}

	unitPrice := s.pricing.UnitPrice(userID)
	balance, err := s.balances.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	affordable := len(candidates)
	if unitPrice > 0 {
		affordable = int(math.Floor(balance / unitPrice))
		if affordable > len(candidates) {
			affordable = len(candidates)
		}
		if affordable < 0 {
			affordable = 0
		}
	}

	toCharge := candidates[:affordable]
	cannotAfford := candidates[affordable:]
	skipped = append(skipped, cannotAfford...)

	if len(toCharge) == 0 {
		return &pkgmodels.ChargeResult{
			ChargedEvaluationIDs: []pkgmodels.EvaluationID{},
			SkippedEvaluationIDs: skipped,
			TotalCharged:         0,
			RemainingBalance:     balance,
		}, nil
	}

	total := unitPrice * float64(len(toCharge))
	charged := make([]pkgmodels.EvaluationID, 0, len(toCharge))

	err = s.balanceRepo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.balances.debitInTx(ctx, tx, userID, total, "evaluation_charge", "evaluation", ""); err != nil {
			return fmt.Errorf("failed to debit balance: %w", err)
		}

		for _, evalID := range toCharge {
			consumed := &pkgmodels.ConsumedEvaluation{
				UserID:        userID,
				EvaluationID:  evalID,
				AmountCharged: unitPrice,
			}
			if err := s.consumption.Record(ctx, tx, consumed); err != nil {
				return fmt.Errorf("failed to record consumption of evaluation %d: %w", evalID, err)
			}
			charged = append(charged, evalID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	remaining, err := s.balances.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &pkgmodels.ChargeResult{
		ChargedEvaluationIDs: charged,
		SkippedEvaluationIDs: skipped,
		TotalCharged:         total,
		RemainingBalance:     remaining,
	}, nil
}

// Preview performs the same partitioning as Charge but writes nothing
// (spec §4.2 preview contract).
func (s *ChargeService) Preview(ctx context.Context, userID pkgmodels.UserID, evalIDs []pkgmodels.EvaluationID) (*pkgmodels.ChargePreview, error) {
	consumedSet, err := s.consumption.ConsumedEvaluationIDs(ctx, s.db, userID, evalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up consumed evaluations: %w", err)
	}

	freshCount := 0
	alreadyConsumed := 0
	for _, id := range evalIDs {
		if consumedSet[id] {
			alreadyConsumed++
		} else {
			freshCount++
		}
	}

	unitPrice := s.pricing.UnitPrice(userID)
	balance, err := s.balances.AvailableBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	affordable := freshCount
	if unitPrice > 0 {
		affordable = int(math.Floor(balance / unitPrice))
		if affordable > freshCount {
			affordable = freshCount
		}
		if affordable < 0 {
			affordable = 0
		}
	}

	return &pkgmodels.ChargePreview{
		FreshCount:      freshCount,
		AlreadyConsumed: alreadyConsumed,
		EstimatedCost:   unitPrice * float64(freshCount),
		UserBalance:     balance,
		AffordableCount: affordable,
		NeedsTopUp:      affordable < freshCount,
	}, nil
}
