package repository

import (
	"context"

	"github.com/rosklyar/prompts-volume-sub000/pkg/models"
	"github.com/uptrace/bun"
)

// ReportRepository persists GroupReport snapshots and their line items
// (spec §3, §4.3).
type ReportRepository interface {
	Create(ctx context.Context, db bun.IDB, report *models.GroupReport) error
	GetByID(ctx context.Context, db bun.IDB, id models.ReportID) (*models.GroupReport, error)

	// LatestForGroup returns the most recently created report for a group,
	// or nil if none exists yet (spec §4.3 "last report" baseline).
	LatestForGroup(ctx context.Context, db bun.IDB, groupID models.GroupID) (*models.GroupReport, error)

	ListForGroup(ctx context.Context, db bun.IDB, groupID models.GroupID) ([]*models.GroupReport, error)

	CreateItems(ctx context.Context, db bun.IDB, items []*models.GroupReportItem) error
	ItemsForReport(ctx context.Context, db bun.IDB, reportID models.ReportID) ([]*models.GroupReportItem, error)

	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
}
