// Package billing implements the charge engine (spec §4.2): balance
// invariants, FIFO-by-expiry debit/credit, pluggable pricing, and the
// charge/preview contract used by report generation.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// BalanceService implements FIFO-by-expiry debit/credit over CreditGrant
// rows, grounded on the teacher's transactional repository style
// (storage/balance_repository.go UsableGrantsForUpdate/CreateTransaction).
type BalanceService struct {
	repo repository.BalanceRepository
	db   bun.IDB
}

func NewBalanceService(repo repository.BalanceRepository, db bun.IDB) *BalanceService {
	return &BalanceService{repo: repo, db: db}
}

// AvailableBalance sums remaining_amount over usable grants (spec §4.2).
func (s *BalanceService) AvailableBalance(ctx context.Context, userID pkgmodels.UserID) (float64, error) {
	return s.repo.AvailableBalance(ctx, s.db, userID, time.Now())
}

// Credit creates a new grant of the given source and amount, recording a
// BalanceTransaction with the post-credit balance.
func (s *BalanceService) Credit(ctx context.Context, userID pkgmodels.UserID, amount float64, source pkgmodels.CreditSource, expiresAt *time.Time, reason string) (*pkgmodels.CreditGrant, error) {
	var grant *pkgmodels.CreditGrant
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		grant = &pkgmodels.CreditGrant{
			UserID:          userID,
			Source:          source,
			OriginalAmount:  amount,
			RemainingAmount: amount,
			ExpiresAt:       expiresAt,
		}
		if err := grant.Validate(); err != nil {
			return err
		}
		if err := s.repo.CreateGrant(ctx, tx, grant); err != nil {
			return fmt.Errorf("failed to create credit grant: %w", err)
		}

		balanceAfter, err := s.repo.AvailableBalance(ctx, tx, userID, time.Now())
		if err != nil {
			return err
		}
		return s.repo.CreateTransaction(ctx, tx, &pkgmodels.BalanceTransaction{
			UserID:       userID,
			Type:         pkgmodels.BalanceTransactionCredit,
			Amount:       amount,
			BalanceAfter: balanceAfter,
			Reason:       reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// Debit consumes grants FIFO-by-expiry under FOR UPDATE (spec §4.2). Raises
// InsufficientBalanceError when the locked view shows less than required;
// ChargeService never hits this path because it pre-computes affordability.
func (s *BalanceService) Debit(ctx context.Context, userID pkgmodels.UserID, amount float64, reason, referenceType, referenceID string) error {
	if amount <= 0 {
		return nil
	}
	return s.repo.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.debitInTx(ctx, tx, userID, amount, reason, referenceType, referenceID)
	})
}

// debitInTx runs the debit logic against an already-open transaction, so
// callers (e.g. ChargeService) can combine it with other writes atomically.
func (s *BalanceService) debitInTx(ctx context.Context, tx bun.Tx, userID pkgmodels.UserID, amount float64, reason, referenceType, referenceID string) error {
	now := time.Now()
	grants, err := s.repo.UsableGrantsForUpdate(ctx, tx, userID, now)
	if err != nil {
		return fmt.Errorf("failed to lock grants: %w", err)
	}

	available := 0.0
	for _, g := range grants {
		available += g.RemainingAmount
	}
	if available < amount {
		return &pkgmodels.InsufficientBalanceError{UserID: string(userID), Required: amount, Available: available}
	}

	remainingToDebit := amount
	for _, g := range grants {
		if remainingToDebit <= 0 {
			break
		}
		take := g.RemainingAmount
		if take > remainingToDebit {
			take = remainingToDebit
		}
		g.RemainingAmount -= take
		remainingToDebit -= take
		if err := s.repo.UpdateGrantRemaining(ctx, tx, g.ID, g.RemainingAmount); err != nil {
			return fmt.Errorf("failed to update grant %d: %w", g.ID, err)
		}
	}

	balanceAfter := available - amount
	return s.repo.CreateTransaction(ctx, tx, &pkgmodels.BalanceTransaction{
		UserID:        userID,
		Type:          pkgmodels.BalanceTransactionDebit,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		Reason:        reason,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
	})
}

func (s *BalanceService) ListTransactions(ctx context.Context, userID pkgmodels.UserID, limit, offset int) ([]*pkgmodels.BalanceTransaction, error) {
	return s.repo.ListTransactions(ctx, s.db, userID, limit, offset)
}
