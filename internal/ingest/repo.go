package ingest

import (
	"context"

	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"gorm.io/gorm"
)

const appendBatchSize = 500

// Repository exposes the raw-table persistence used by the reconciler.
type Repository interface {
	ListSaleDealsByMonth(ctx context.Context, collectedMonth string) ([]models.RawSaleDeal, error)
	AppendSaleDeals(ctx context.Context, rows []models.RawSaleDeal) error
	ListLeaseDealsByMonth(ctx context.Context, collectedMonth string) ([]models.RawLeaseDeal, error)
	AppendLeaseDeals(ctx context.Context, rows []models.RawLeaseDeal) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a raw-table repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListSaleDealsByMonth(ctx context.Context, collectedMonth string) ([]models.RawSaleDeal, error) {
	var rows []models.RawSaleDeal
	err := r.db.WithContext(ctx).
		Where("collected_month = ?", collectedMonth).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) AppendSaleDeals(ctx context.Context, rows []models.RawSaleDeal) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, appendBatchSize).Error
}

func (r *repositoryImpl) ListLeaseDealsByMonth(ctx context.Context, collectedMonth string) ([]models.RawLeaseDeal, error) {
	var rows []models.RawLeaseDeal
	err := r.db.WithContext(ctx).
		Where("collected_month = ?", collectedMonth).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) AppendLeaseDeals(ctx context.Context, rows []models.RawLeaseDeal) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, appendBatchSize).Error
}
