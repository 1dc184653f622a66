package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// GroupsHandler provides the minimal prompt-group CRUD the report endpoints
// need a subject to operate on (spec §3 PromptGroup; not itself a named
// spec.md operation, but report generation/compare require an existing group).
type GroupsHandler struct {
	groupRepo repository.PromptGroupRepository
	promptsDB bun.IDB
}

func NewGroupsHandler(groupRepo repository.PromptGroupRepository, promptsDB bun.IDB) *GroupsHandler {
	return &GroupsHandler{groupRepo: groupRepo, promptsDB: promptsDB}
}

type createGroupRequest struct {
	Title       string         `json:"title" binding:"required"`
	Brand       map[string]any `json:"brand"`
	Competitors []string       `json:"competitors"`
}

// Create handles POST /reports/groups.
func (h *GroupsHandler) Create(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	var req createGroupRequest
	if bindJSON(c, &req) != nil {
		return
	}

	group := &pkgmodels.PromptGroup{
		UserID:      pkgmodels.UserID(userID),
		Title:       req.Title,
		Brand:       req.Brand,
		Competitors: req.Competitors,
	}
	if err := h.groupRepo.Create(c.Request.Context(), h.promptsDB, group); err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, group)
}

// List handles GET /reports/groups.
func (h *GroupsHandler) List(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}

	groups, err := h.groupRepo.ListByUser(c.Request.Context(), h.promptsDB, pkgmodels.UserID(userID))
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, groups)
}

// Get handles GET /reports/groups/{id}.
func (h *GroupsHandler) Get(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.groupRepo.GetByID(c.Request.Context(), h.promptsDB, groupID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, group)
}

type addPromptRequest struct {
	PromptID pkgmodels.PromptID `json:"prompt_id" binding:"required"`
}

// AddPrompt handles POST /reports/groups/{id}/prompts.
func (h *GroupsHandler) AddPrompt(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req addPromptRequest
	if bindJSON(c, &req) != nil {
		return
	}

	if err := h.groupRepo.AddPrompt(c.Request.Context(), h.promptsDB, groupID, req.PromptID); err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": "added"})
}
