package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is an immutable catalog record. BasePrice is the seller's internal
// cost in the product's home currency and must never leave the pricing core
// through a customer-facing surface.
type Product struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID           uuid.UUID        `gorm:"column:seller_id;type:uuid;not null;index"`
	SKU                string           `gorm:"column:sku;not null"`
	Title              string           `gorm:"column:title;not null"`
	Category           string           `gorm:"column:category;not null;index"`
	Brand              string           `gorm:"column:brand;not null;default:''"`
	Tags               pq.StringArray   `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	Currency           string           `gorm:"column:currency;not null;default:'MWK'"`
	BasePrice          decimal.Decimal  `gorm:"column:base_price;type:numeric(14,4);not null"`
	CompareAtBasePrice *decimal.Decimal `gorm:"column:compare_at_base_price;type:numeric(14,4)"`
	StockQty           int              `gorm:"column:stock_qty;not null;default:0"`
	IsActive           bool             `gorm:"column:is_active;not null;default:true"`
	Variants           []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant carries its own base price but inherits the parent's markup
// ratio rather than re-entering the bracket table.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	SKU       string          `gorm:"column:sku;not null"`
	Title     string          `gorm:"column:title;not null"`
	BasePrice decimal.Decimal `gorm:"column:base_price;type:numeric(14,4);not null"`
	StockQty  int             `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
