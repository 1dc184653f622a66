package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/batchcorrelator"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// WebhookHandler receives the external scraper's asynchronous batch results
// (spec §4.4, §6 POST /brightdata/webhook/{batch_id}).
type WebhookHandler struct {
	service *batchcorrelator.Service
}

func NewWebhookHandler(service *batchcorrelator.Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

type webhookIntakeRequest struct {
	Items []batchcorrelator.WebhookItem `json:"items" binding:"required"`
}

// Intake handles POST /brightdata/webhook/{batch_id}: correlates each item
// back to its prompt id and returns processed/failed counts (spec §6).
func (h *WebhookHandler) Intake(c *gin.Context) {
	batchID, ok := getParam(c, "batch_id")
	if !ok {
		return
	}

	var req webhookIntakeRequest
	if bindJSON(c, &req) != nil {
		return
	}

	result, err := h.service.Intake(c.Request.Context(), batchID, req.Items)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{
		"processed": result.Processed,
		"failed":    result.Failed,
		"status":    result.Status,
	})
}

type triggerBatchRequest struct {
	PromptIDs      []pkgmodels.PromptID `json:"prompt_ids" binding:"required"`
	Country        string               `json:"country"`
	WebSearch      bool                 `json:"web_search"`
	RequireSources bool                 `json:"require_sources"`
}

// Trigger handles POST /brightdata/batches: the user-facing counterpart of
// the webhook, dispatching a new outbound scraper batch (spec §4.4).
func (h *WebhookHandler) Trigger(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	var req triggerBatchRequest
	if bindJSON(c, &req) != nil {
		return
	}

	batchID := uuid.New().String()
	if err := h.service.TriggerBatch(c.Request.Context(), batchID, req.PromptIDs, pkgmodels.UserID(userID), req.Country, req.WebSearch, req.RequireSources); err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusAccepted, gin.H{"batch_id": batchID})
}
