package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/application/reports"
	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

// ReportsHandler exposes the selection/freshness compare and report
// generation surface (spec §6, §4.3), plus the leaderboard/export
// supplemented features (SPEC_FULL §6).
type ReportsHandler struct {
	freshness   *reports.FreshnessAnalyzer
	service     *reports.ReportService
	leaderboard *reports.CitationLeaderboardBuilder
	reportRepo  repository.ReportRepository
	evalsDB     bun.IDB
}

func NewReportsHandler(freshness *reports.FreshnessAnalyzer, service *reports.ReportService, leaderboard *reports.CitationLeaderboardBuilder, reportRepo repository.ReportRepository, evalsDB bun.IDB) *ReportsHandler {
	return &ReportsHandler{freshness: freshness, service: service, leaderboard: leaderboard, reportRepo: reportRepo, evalsDB: evalsDB}
}

func parseReportID(c *gin.Context) (pkgmodels.ReportID, bool) {
	raw, ok := getParam(c, "reportId")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondAPIError(c, ErrInvalidID)
		return 0, false
	}
	return pkgmodels.ReportID(id), true
}

func parseGroupID(c *gin.Context) (pkgmodels.GroupID, bool) {
	raw, ok := getParam(c, "id")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondAPIError(c, ErrInvalidID)
		return 0, false
	}
	return pkgmodels.GroupID(id), true
}

// Compare handles GET /reports/groups/{id}/compare (spec §6).
func (h *ReportsHandler) Compare(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	comparison, err := h.freshness.Compare(c.Request.Context(), groupID, pkgmodels.UserID(userID))
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, comparison)
}

type generateReportRequest struct {
	Selections                []pkgmodels.SelectionInput `json:"selections"`
	UseDefaultsForUnspecified bool                        `json:"use_defaults_for_unspecified"`
	Title                     string                      `json:"title"`
}

// Generate handles POST /reports/groups/{id}/generate. 402 on hard
// insufficient-balance refusal (spec §6) — though Charge itself never
// errors on affordability, a direct InsufficientBalanceError can still
// surface from the underlying debit primitive on a race.
func (h *ReportsHandler) Generate(c *gin.Context) {
	userID, ok := GetUserID(c)
	if !ok {
		respondAPIError(c, ErrUnauthorized)
		return
	}
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	var req generateReportRequest
	if bindJSON(c, &req) != nil {
		return
	}

	report, items, err := h.service.Generate(c.Request.Context(), groupID, pkgmodels.UserID(userID), req.Selections, req.UseDefaultsForUnspecified, req.Title)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{
		"report": report,
		"items":  items,
	})
}

// Leaderboard handles GET /reports/{reportId}/citation-leaderboard
// (supplemented feature, SPEC_FULL §6).
func (h *ReportsHandler) Leaderboard(c *gin.Context) {
	reportID, ok := parseReportID(c)
	if !ok {
		return
	}
	entries, err := h.leaderboard.Build(c.Request.Context(), reportID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"entries": entries})
}

// Export handles GET /reports/{reportId}/export?format=json|csv
// (supplemented feature, SPEC_FULL §6). Defaults to JSON.
func (h *ReportsHandler) Export(c *gin.Context) {
	reportID, ok := parseReportID(c)
	if !ok {
		return
	}

	report, err := h.reportRepo.GetByID(c.Request.Context(), h.evalsDB, reportID)
	if err != nil {
		respondAPIError(c, err)
		return
	}
	items, err := h.reportRepo.ItemsForReport(c.Request.Context(), h.evalsDB, reportID)
	if err != nil {
		respondAPIError(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		out, err := reports.ExportCSV(items)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/csv", out)
	default:
		out, err := reports.ExportJSON(report, items)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", out)
	}
}
