package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/rosklyar/prompts-volume-sub000/internal/domain/repository"
	"github.com/rosklyar/prompts-volume-sub000/internal/infrastructure/storage/models"
	pkgmodels "github.com/rosklyar/prompts-volume-sub000/pkg/models"
)

var _ repository.ReportRepository = (*ReportRepository)(nil)

// ReportRepository implements repository.ReportRepository using Bun ORM.
type ReportRepository struct {
	db *bun.DB
}

func NewReportRepository(db *bun.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, db bun.IDB, report *pkgmodels.GroupReport) error {
	reportModel := models.FromGroupReportDomain(report)

	_, err := db.NewInsert().Model(reportModel).Returning("id, created_at").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create group report: %w", err)
	}

	report.ID = pkgmodels.ReportID(reportModel.ID)
	report.CreatedAt = reportModel.CreatedAt
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, db bun.IDB, id pkgmodels.ReportID) (*pkgmodels.GroupReport, error) {
	reportModel := new(models.GroupReportModel)
	err := db.NewSelect().Model(reportModel).Where("id = ?", int64(id)).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgmodels.ErrReportNotFound
		}
		return nil, err
	}
	return models.ToGroupReportDomain(reportModel), nil
}

func (r *ReportRepository) LatestForGroup(ctx context.Context, db bun.IDB, groupID pkgmodels.GroupID) (*pkgmodels.GroupReport, error) {
	reportModel := new(models.GroupReportModel)
	err := db.NewSelect().
		Model(reportModel).
		Where("group_id = ?", int64(groupID)).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return models.ToGroupReportDomain(reportModel), nil
}

func (r *ReportRepository) ListForGroup(ctx context.Context, db bun.IDB, groupID pkgmodels.GroupID) ([]*pkgmodels.GroupReport, error) {
	var rows []*models.GroupReportModel
	err := db.NewSelect().
		Model(&rows).
		Where("group_id = ?", int64(groupID)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.GroupReport, len(rows))
	for i, row := range rows {
		out[i] = models.ToGroupReportDomain(row)
	}
	return out, nil
}

func (r *ReportRepository) CreateItems(ctx context.Context, db bun.IDB, items []*pkgmodels.GroupReportItem) error {
	if len(items) == 0 {
		return nil
	}

	itemModels := make([]*models.GroupReportItemModel, len(items))
	for i, item := range items {
		itemModels[i] = models.FromGroupReportItemDomain(item)
	}

	_, err := db.NewInsert().Model(&itemModels).Returning("id").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create group report items: %w", err)
	}

	for i, itemModel := range itemModels {
		items[i].ID = itemModel.ID
	}
	return nil
}

func (r *ReportRepository) ItemsForReport(ctx context.Context, db bun.IDB, reportID pkgmodels.ReportID) ([]*pkgmodels.GroupReportItem, error) {
	var rows []*models.GroupReportItemModel
	err := db.NewSelect().
		Model(&rows).
		Where("report_id = ?", int64(reportID)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*pkgmodels.GroupReportItem, len(rows))
	for i, row := range rows {
		out[i] = models.ToGroupReportItemDomain(row)
	}
	return out, nil
}

func (r *ReportRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, fn)
}
