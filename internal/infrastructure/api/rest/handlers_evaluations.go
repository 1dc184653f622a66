package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/queue"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// EvaluationsHandler exposes the worker-facing poll/submit/release/results
// contract (spec §6). These endpoints are authenticated via worker Basic
// auth, not end-user JWT (spec §5 "External Interfaces").
type EvaluationsHandler struct {
	queue *queue.Service
}

func NewEvaluationsHandler(queueService *queue.Service) *EvaluationsHandler {
	return &EvaluationsHandler{queue: queueService}
}

type pollRequest struct {
	AssistantName string `json:"assistant_name" binding:"required"`
	PlanName      string `json:"plan_name" binding:"required"`
}

// Poll handles POST /evaluations/poll. Returns a null payload (still 200)
// when the queue is empty (spec §6).
func (h *EvaluationsHandler) Poll(c *gin.Context) {
	var req pollRequest
	if bindJSON(c, &req) != nil {
		return
	}

	result, err := h.queue.PollNext(c.Request.Context(), req.AssistantName, req.PlanName)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	if result == nil {
		respondJSON(c, http.StatusOK, nil)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{
		"queue_entry": result.Entry,
		"prompt":      result.Prompt,
	})
}

type submitRequest struct {
	EvaluationID pkgmodels.EvaluationID `json:"evaluation_id" binding:"required"`
	Answer       *pkgmodels.Answer      `json:"answer" binding:"required"`
}

// Submit handles POST /evaluations/submit. 404 if missing, 409 if already
// completed (spec §6).
func (h *EvaluationsHandler) Submit(c *gin.Context) {
	var req submitRequest
	if bindJSON(c, &req) != nil {
		return
	}

	if err := h.queue.SubmitAnswer(c.Request.Context(), req.EvaluationID, req.Answer); err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": "submitted"})
}

type releaseRequest struct {
	EvaluationID pkgmodels.EvaluationID `json:"evaluation_id" binding:"required"`
	MarkAsFailed bool                   `json:"mark_as_failed"`
	Reason       string                 `json:"reason"`
}

// Release handles POST /evaluations/release (spec §6).
func (h *EvaluationsHandler) Release(c *gin.Context) {
	var req releaseRequest
	if bindJSON(c, &req) != nil {
		return
	}

	if err := h.queue.Release(c.Request.Context(), req.EvaluationID, req.MarkAsFailed, req.Reason); err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": "released"})
}

type resultsRequest struct {
	AssistantName string                 `json:"assistant_name" binding:"required"`
	PlanName      string                 `json:"plan_name" binding:"required"`
	PromptIDs     []pkgmodels.PromptID   `json:"prompt_ids" binding:"required"`
}

// Results handles POST /evaluations/results: the latest completed
// evaluation per prompt for an assistant plan (spec §6).
func (h *EvaluationsHandler) Results(c *gin.Context) {
	var req resultsRequest
	if bindJSON(c, &req) != nil {
		return
	}

	results, err := h.queue.LatestResults(c.Request.Context(), req.AssistantName, req.PlanName, req.PromptIDs)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, results)
}
