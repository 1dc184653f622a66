package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/billing"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// BillingHandler exposes the charge engine's balance/transactions/charge
// surface (spec §6).
type BillingHandler struct {
	balances *billing.BalanceService
	charges  *billing.ChargeService
}

func NewBillingHandler(balances *billing.BalanceService, charges *billing.ChargeService) *BillingHandler {
	return &BillingHandler{balances: balances, charges: charges}
}

type chargeRequest struct {
	EvaluationIDs []pkgmodels.EvaluationID `json:"evaluation_ids" binding:"required"`
}

// Charge handles POST /billing/charge (spec §6).
func (h *BillingHandler) Charge(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	var req chargeRequest
	if bindJSON(c, &req) != nil {
		return
	}

	result, err := h.charges.Charge(c.Request.Context(), pkgmodels.UserID(userID), req.EvaluationIDs)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}

// Balance handles GET /billing/balance (spec §6).
func (h *BillingHandler) Balance(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	amount, err := h.balances.AvailableBalance(c.Request.Context(), pkgmodels.UserID(userID))
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, pkgmodels.BalanceInfo{
		UserID:           pkgmodels.UserID(userID),
		AvailableBalance: amount,
	})
}

// Transactions handles GET /billing/transactions (spec §6).
func (h *BillingHandler) Transactions(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	limit := getQueryInt(c, "limit", 50)
	offset := getQueryInt(c, "offset", 0)

	txns, err := h.balances.ListTransactions(c.Request.Context(), pkgmodels.UserID(userID), limit, offset)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondList(c, http.StatusOK, txns, len(txns), limit, offset)
}
