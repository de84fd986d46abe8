package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.products (
//     product_id      TEXT PRIMARY KEY,
//     name            TEXT,
//     category        TEXT,
//     price           NUMERIC,
//     image_url       TEXT,
//     url             TEXT,
//     in_stock        BOOLEAN DEFAULT TRUE,
//     features        JSONB,
//     impressions     BIGINT DEFAULT 0,
//     clicks          BIGINT DEFAULT 0,
//     purchases       BIGINT DEFAULT 0,
//     created_at      TIMESTAMPTZ DEFAULT NOW()
// );

type Product struct {
	ProductID string  `gorm:"column:product_id;primaryKey" json:"product_id"`
	Name      string  `gorm:"column:name;type:text" json:"name"`
	Category  string  `gorm:"column:category;type:text" json:"category"`
	Price     float64 `gorm:"column:price;type:numeric" json:"price"`
	ImageURL  string  `gorm:"column:image_url;type:text" json:"image_url"`
	URL       string  `gorm:"column:url;type:text" json:"url"`
	InStock   bool    `gorm:"column:in_stock;default:true" json:"in_stock"`

	// Fixed-length embedding used for content similarity. Stored as jsonb,
	// decoded by the repository into Features.
	FeaturesRaw datatypes.JSON `gorm:"column:features;type:jsonb" json:"-"`
	Features    []float64      `gorm:"-" json:"features,omitempty"`

	Impressions int64 `gorm:"column:impressions;default:0" json:"impressions"`
	Clicks      int64 `gorm:"column:clicks;default:0" json:"clicks"`
	Purchases   int64 `gorm:"column:purchases;default:0" json:"purchases"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}
