package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopsense/business/experiment"
	"shopsense/domain"

	"gorm.io/gorm"
)

type ExperimentRepository struct {
	DB *gorm.DB
}

var _ experiment.ExperimentRepository = (*ExperimentRepository)(nil)

func NewExperimentRepository(db *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{DB: db}
}

func (r *ExperimentRepository) GetByID(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var record domain.ExperimentRecord
	err := r.DB.WithContext(ctx).First(&record, "experiment_id = ?", experimentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query experiment: %w", err)
	}

	return recordToExperiment(record)
}

func (r *ExperimentRepository) Create(ctx context.Context, exp domain.Experiment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	record, err := experimentToRecord(exp)
	if err != nil {
		return err
	}

	if err := r.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}

	return nil
}

func (r *ExperimentRepository) UpdateState(ctx context.Context, experimentID, state string, startedAt, endedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updates := map[string]interface{}{"state": state}
	if startedAt != nil {
		updates["started_at"] = *startedAt
	}
	if endedAt != nil {
		updates["ended_at"] = *endedAt
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.ExperimentRecord{}).
		Where("experiment_id = ?", experimentID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update experiment state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func recordToExperiment(record domain.ExperimentRecord) (*domain.Experiment, error) {
	exp := &domain.Experiment{
		ExperimentID: record.ExperimentID,
		Name:         record.Name,
		Description:  record.Description,
		State:        record.State,
		StartedAt:    record.StartedAt,
		EndedAt:      record.EndedAt,
		CreatedAt:    record.CreatedAt,
	}

	if len(record.VariantsRaw) > 0 {
		if err := json.Unmarshal(record.VariantsRaw, &exp.Variants); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
		}
	}
	if len(record.SplitRaw) > 0 {
		if err := json.Unmarshal(record.SplitRaw, &exp.TrafficSplit); err != nil {
			return nil, fmt.Errorf("failed to unmarshal traffic split: %w", err)
		}
	}

	return exp, nil
}

func experimentToRecord(exp domain.Experiment) (domain.ExperimentRecord, error) {
	variantsRaw, err := json.Marshal(exp.Variants)
	if err != nil {
		return domain.ExperimentRecord{}, fmt.Errorf("failed to marshal variants: %w", err)
	}

	splitRaw, err := json.Marshal(exp.TrafficSplit)
	if err != nil {
		return domain.ExperimentRecord{}, fmt.Errorf("failed to marshal traffic split: %w", err)
	}

	return domain.ExperimentRecord{
		ExperimentID: exp.ExperimentID,
		Name:         exp.Name,
		Description:  exp.Description,
		VariantsRaw:  variantsRaw,
		SplitRaw:     splitRaw,
		State:        exp.State,
		StartedAt:    exp.StartedAt,
		EndedAt:      exp.EndedAt,
		CreatedAt:    exp.CreatedAt,
	}, nil
}
