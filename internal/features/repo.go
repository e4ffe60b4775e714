package features

import (
	"context"

	"gorm.io/gorm"

	"github.com/hyunsoolee/aptpulse/pkg/db/models"
)

const writeBatchSize = 500

// Repository exposes the raw reads and feature-table replace writes the
// builders run against. Feature tables are fully rebuilt from raw data
// on every run, so a replace is delete-all plus insert in one
// transaction.
type Repository interface {
	ListRawSaleDeals(ctx context.Context) ([]models.RawSaleDeal, error)
	ListRawLeaseDeals(ctx context.Context) ([]models.RawLeaseDeal, error)
	ReplaceSaleFeatures(ctx context.Context, rows []models.SaleFeature) error
	ReplaceJeonseFeatures(ctx context.Context, rows []models.JeonseFeature) error
	ReplaceMonthlyRentFeatures(ctx context.Context, rows []models.MonthlyRentFeature) error
	ListSaleFeatures(ctx context.Context) ([]models.SaleFeature, error)
	ListJeonseFeatures(ctx context.Context) ([]models.JeonseFeature, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a feature-store repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ListRawSaleDeals(ctx context.Context) ([]models.RawSaleDeal, error) {
	var rows []models.RawSaleDeal
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListRawLeaseDeals(ctx context.Context) ([]models.RawLeaseDeal, error) {
	var rows []models.RawLeaseDeal
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ReplaceSaleFeatures(ctx context.Context, rows []models.SaleFeature) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SaleFeature{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, writeBatchSize).Error
	})
}

func (r *repositoryImpl) ReplaceJeonseFeatures(ctx context.Context, rows []models.JeonseFeature) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.JeonseFeature{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, writeBatchSize).Error
	})
}

func (r *repositoryImpl) ReplaceMonthlyRentFeatures(ctx context.Context, rows []models.MonthlyRentFeature) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.MonthlyRentFeature{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, writeBatchSize).Error
	})
}

func (r *repositoryImpl) ListSaleFeatures(ctx context.Context) ([]models.SaleFeature, error) {
	var rows []models.SaleFeature
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListJeonseFeatures(ctx context.Context) ([]models.JeonseFeature, error) {
	var rows []models.JeonseFeature
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
