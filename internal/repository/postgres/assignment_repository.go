package postgres

import (
	"context"
	"errors"
	"fmt"

	"shopsense/business/experiment"
	"shopsense/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

var _ experiment.AssignmentRepository = (*AssignmentRepository)(nil)

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Get(ctx context.Context, experimentID, userID string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("context error: %w", err)
	}

	var row domain.Assignment
	err := r.DB.WithContext(ctx).
		First(&row, "experiment_id = ? AND user_id = ?", experimentID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query assignment: %w", err)
	}

	return row.Variant, true, nil
}

// Save inserts the first resolution; a concurrent winner keeps its row.
func (r *AssignmentRepository) Save(ctx context.Context, assignment domain.Assignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "experiment_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&assignment).Error; err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	return nil
}
