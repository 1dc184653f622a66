package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

func TestBalanceService_CreditThenDebit_FIFOByExpiry(t *testing.T) {
	repo := newFakeBalanceRepo()
	svc := NewBalanceService(repo, nil)
	ctx := t.Context()
	userID := pkgmodels.UserID("u-1")

	soon := time.Now().Add(time.Hour)
	later := time.Now().Add(24 * time.Hour)

	_, err := svc.Credit(ctx, userID, 5, pkgmodels.CreditSourceSignupBonus, &later, "signup bonus")
	require.NoError(t, err)
	_, err = svc.Credit(ctx, userID, 3, pkgmodels.CreditSourcePromoCode, &soon, "promo")
	require.NoError(t, err)

	balance, err := svc.AvailableBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, balance)

	// Debit 4: should draw entirely from the sooner-expiring grant (promo, 3)
	// then the rest from the later one, since promo expires first.
	require.NoError(t, svc.Debit(ctx, userID, 4, "evaluation_charge", "evaluation", ""))

	balance, err = svc.AvailableBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, balance)

	var promoRemaining, signupRemaining float64
	for _, g := range repo.grants {
		if g.Source == pkgmodels.CreditSourcePromoCode {
			promoRemaining = g.RemainingAmount
		} else {
			signupRemaining = g.RemainingAmount
		}
	}
	assert.Equal(t, 0.0, promoRemaining)
	assert.Equal(t, 4.0, signupRemaining)
}

func TestBalanceService_Debit_InsufficientBalance(t *testing.T) {
	repo := newFakeBalanceRepo()
	svc := NewBalanceService(repo, nil)
	ctx := t.Context()
	userID := pkgmodels.UserID("u-1")

	_, err := svc.Credit(ctx, userID, 2, pkgmodels.CreditSourceSignupBonus, nil, "signup bonus")
	require.NoError(t, err)

	err = svc.Debit(ctx, userID, 5, "evaluation_charge", "evaluation", "")
	var insufficientErr *pkgmodels.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 5.0, insufficientErr.Required)
	assert.Equal(t, 2.0, insufficientErr.Available)
}

func TestBalanceService_AvailableBalance_IgnoresExpiredGrants(t *testing.T) {
	repo := newFakeBalanceRepo()
	svc := NewBalanceService(repo, nil)
	ctx := t.Context()
	userID := pkgmodels.UserID("u-1")

	expired := time.Now().Add(-time.Hour)
	_, err := svc.Credit(ctx, userID, 100, pkgmodels.CreditSourcePromoCode, &expired, "expired promo")
	require.NoError(t, err)

	balance, err := svc.AvailableBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestBalanceService_Debit_ZeroAmountIsNoOp(t *testing.T) {
	repo := newFakeBalanceRepo()
	svc := NewBalanceService(repo, nil)
	require.NoError(t, svc.Debit(t.Context(), pkgmodels.UserID("u-1"), 0, "", "", ""))
	assert.Empty(t, repo.transactions)
}

func TestBalanceService_ListTransactions(t *testing.T) {
	repo := newFakeBalanceRepo()
	svc := NewBalanceService(repo, nil)
	ctx := t.Context()
	userID := pkgmodels.UserID("u-1")

	_, err := svc.Credit(ctx, userID, 10, pkgmodels.CreditSourcePayment, nil, "top up")
	require.NoError(t, err)
	require.NoError(t, svc.Debit(ctx, userID, 3, "evaluation_charge", "evaluation", "42"))

	txns, err := svc.ListTransactions(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, pkgmodels.BalanceTransactionDebit, txns[0].Type)
	assert.Equal(t, pkgmodels.BalanceTransactionCredit, txns[1].Type)
}
