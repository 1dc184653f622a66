package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/promptingest"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// IngestHandler exposes priority/batch prompt ingest (spec §4.5): embed,
// dedup, and enqueue a batch of prompt texts in one call.
type IngestHandler struct {
	service *promptingest.Service
}

func NewIngestHandler(service *promptingest.Service) *IngestHandler {
	return &IngestHandler{service: service}
}

type ingestRequest struct {
	Texts   []string            `json:"texts" binding:"required"`
	TopicID *int64              `json:"topic_id"`
	GroupID *pkgmodels.GroupID  `json:"group_id"`
}

// Ingest handles POST /prompts/ingest.
func (h *IngestHandler) Ingest(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	var req ingestRequest
	if bindJSON(c, &req) != nil {
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), req.Texts, pkgmodels.UserID(userID), req.TopicID, req.GroupID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}
