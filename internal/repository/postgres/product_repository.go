package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsense/business/recommend"
	"shopsense/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	DB *gorm.DB
}

var _ recommend.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{DB: db}
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var products []domain.Product
	if err := r.DB.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	decodeFeatures(products)
	return products, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	var products []domain.Product
	if err := r.DB.WithContext(ctx).Where("product_id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by ids: %w", err)
	}

	decodeFeatures(products)
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var product domain.Product
	err := r.DB.WithContext(ctx).First(&product, "product_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if len(product.FeaturesRaw) > 0 {
		_ = json.Unmarshal(product.FeaturesRaw, &product.Features)
	}

	return &product, nil
}

// Upsert inserts or refreshes one catalog row keyed by product_id.
func (r *ProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(product.FeaturesRaw) == 0 && len(product.Features) > 0 {
		raw, err := json.Marshal(product.Features)
		if err != nil {
			return fmt.Errorf("failed to marshal features: %w", err)
		}
		product.FeaturesRaw = raw
	}

	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		UpdateAll: true,
	}).Create(product).Error; err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

func decodeFeatures(products []domain.Product) {
	for i := range products {
		if len(products[i].FeaturesRaw) > 0 {
			_ = json.Unmarshal(products[i].FeaturesRaw, &products[i].Features)
		}
	}
}
