package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/queue"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// ExecutionHandler exposes the end-user-facing execution queue surface
// (spec §6): request-fresh, queue status, and cancellation.
type ExecutionHandler struct {
	queue *queue.Service
}

func NewExecutionHandler(queueService *queue.Service) *ExecutionHandler {
	return &ExecutionHandler{queue: queueService}
}

type requestFreshRequest struct {
	PromptIDs []pkgmodels.PromptID `json:"prompt_ids" binding:"required"`
}

// RequestFresh handles POST /execution/request-fresh (spec §6).
func (h *ExecutionHandler) RequestFresh(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	var req requestFreshRequest
	if bindJSON(c, &req) != nil {
		return
	}

	result, err := h.queue.Enqueue(c.Request.Context(), req.PromptIDs, pkgmodels.UserID(userID), "")
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}

// Status handles GET /execution/queue/status: pending/in-progress entries
// plus anything completed in the last 24h (spec §6).
func (h *ExecutionHandler) Status(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	status, err := h.queue.Status(c.Request.Context(), pkgmodels.UserID(userID))
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, status)
}

// CancelByPromptID handles DELETE /execution/queue/{prompt_id} (spec §6).
func (h *ExecutionHandler) CancelByPromptID(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	raw, ok := getParam(c, "prompt_id")
	if !ok {
		return
	}
	promptIDInt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondAPIError(c, ErrInvalidID)
		return
	}

	count, err := h.queue.CancelPending(c.Request.Context(), []pkgmodels.PromptID{pkgmodels.PromptID(promptIDInt)}, pkgmodels.UserID(userID))
	if err != nil {
		respondAPIError(c, err)
		return
	}
	if count == 0 {
		respondAPIError(c, pkgmodels.ErrQueueEntryNotFound)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"cancelled_count": count})
}

type cancelRequest struct {
	PromptIDs []pkgmodels.PromptID `json:"prompt_ids" binding:"required"`
}

// Cancel handles POST /execution/queue/cancel, the bulk counterpart of
// CancelByPromptID (spec §6).
func (h *ExecutionHandler) Cancel(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	var req cancelRequest
	if bindJSON(c, &req) != nil {
		return
	}

	count, err := h.queue.CancelPending(c.Request.Context(), req.PromptIDs, pkgmodels.UserID(userID))
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"cancelled_count": count})
}
