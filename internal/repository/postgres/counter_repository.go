package postgres

import (
	"context"
	"fmt"

	"shopsense/business/experiment"
	"shopsense/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CounterRepository struct {
	DB *gorm.DB
}

var _ experiment.CounterRepository = (*CounterRepository)(nil)

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{DB: db}
}

// Increment bumps one counter atomically database-side: the upsert adds
// the delta in SQL, so concurrent callers never race a read-modify-write.
func (r *CounterRepository) Increment(ctx context.Context, experimentID, variant, kind string, value float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row := domain.VariantCounters{
		ExperimentID: experimentID,
		Variant:      variant,
	}

	switch kind {
	case "impressions":
		row.Impressions = int64(value)
	case "clicks":
		row.Clicks = int64(value)
	case "conversions":
		row.Conversions = int64(value)
	case "revenue":
		row.Revenue = value
	default:
		return fmt.Errorf("unknown counter kind %q", kind)
	}

	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "experiment_id"}, {Name: "variant"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			kind: gorm.Expr(fmt.Sprintf("experiment_counters.%s + excluded.%s", kind, kind)),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", kind, err)
	}

	return nil
}

func (r *CounterRepository) GetAll(ctx context.Context, experimentID string) ([]domain.VariantCounters, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.VariantCounters
	err := r.DB.WithContext(ctx).
		Where("experiment_id = ?", experimentID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load counters: %w", err)
	}

	return rows, nil
}
