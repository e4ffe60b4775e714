package gapinvest

import (
	"context"

	"gorm.io/gorm"

	"github.com/hyunsoolee/aptpulse/pkg/db/models"
)

const writeBatchSize = 500

// Repository replace-writes the analytics table. Like the feature
// tables, the summary is fully rebuilt on every run.
type Repository interface {
	ReplaceSummaries(ctx context.Context, rows []models.GapInvestmentSummary) error
	ListSummaries(ctx context.Context) ([]models.GapInvestmentSummary, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) ReplaceSummaries(ctx context.Context, rows []models.GapInvestmentSummary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.GapInvestmentSummary{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, writeBatchSize).Error
	})
}

func (r *repositoryImpl) ListSummaries(ctx context.Context) ([]models.GapInvestmentSummary, error) {
	var rows []models.GapInvestmentSummary
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
