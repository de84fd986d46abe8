package postgres

import (
	"context"
	"fmt"
	"time"

	"shopsense/business/recommend"
	"shopsense/domain"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	DB *gorm.DB
}

var _ recommend.InteractionRepository = (*InteractionRepository)(nil)

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) Create(ctx context.Context, event *domain.InteractionEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to save interaction event: %w", err)
	}

	return nil
}

func (r *InteractionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.InteractionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = 50
	}

	var events []domain.InteractionEvent
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	return events, nil
}

func (r *InteractionRepository) CoInteractedCounts(ctx context.Context, productIDs []string, excludeUserID string, since time.Time) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(productIDs) == 0 {
		return map[string]float64{}, nil
	}

	peers := r.DB.Table("interaction_events").
		Select("DISTINCT user_id").
		Where("product_id IN ?", productIDs).
		Where("user_id <> ?", excludeUserID).
		Where("created_at >= ?", since)

	var rows []struct {
		ProductID string `gorm:"column:product_id"`
		Cnt       int64  `gorm:"column:cnt"`
	}
	err := r.DB.WithContext(ctx).Table("interaction_events").
		Select("product_id, COUNT(*) AS cnt").
		Where("user_id IN (?)", peers).
		Where("created_at >= ?", since).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query co-interactions: %w", err)
	}

	counts := make(map[string]float64, len(rows))
	for _, row := range rows {
		counts[row.ProductID] = float64(row.Cnt)
	}

	return counts, nil
}

func (r *InteractionRepository) CategoryShare(ctx context.Context, device, location string, since time.Time) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Table("interaction_events AS ie").
		Select("p.category AS category, COUNT(*) AS cnt").
		Joins("JOIN products p ON p.product_id = ie.product_id").
		Where("ie.created_at >= ?", since)

	if device != "" {
		q = q.Where("ie.metadata ->> 'device' = ?", device)
	}
	if location != "" {
		q = q.Where("ie.metadata ->> 'location' = ?", location)
	}

	var rows []struct {
		Category string `gorm:"column:category"`
		Cnt      int64  `gorm:"column:cnt"`
	}
	if err := q.Group("p.category").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query category share: %w", err)
	}

	total := int64(0)
	for _, row := range rows {
		total += row.Cnt
	}
	if total == 0 {
		return map[string]float64{}, nil
	}

	shares := make(map[string]float64, len(rows))
	for _, row := range rows {
		shares[row.Category] = float64(row.Cnt) / float64(total)
	}

	return shares, nil
}

func (r *InteractionRepository) CategoryShareByHour(ctx context.Context, hour int, since time.Time) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []struct {
		Category string `gorm:"column:category"`
		Cnt      int64  `gorm:"column:cnt"`
	}
	err := r.DB.WithContext(ctx).Table("interaction_events AS ie").
		Select("p.category AS category, COUNT(*) AS cnt").
		Joins("JOIN products p ON p.product_id = ie.product_id").
		Where("ie.created_at >= ?", since).
		Where("EXTRACT(HOUR FROM ie.created_at) = ?", hour).
		Group("p.category").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly category share: %w", err)
	}

	total := int64(0)
	for _, row := range rows {
		total += row.Cnt
	}
	if total == 0 {
		return map[string]float64{}, nil
	}

	shares := make(map[string]float64, len(rows))
	for _, row := range rows {
		shares[row.Category] = float64(row.Cnt) / float64(total)
	}

	return shares, nil
}
