package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one cart line. UnitPriceSnapshot caches the last computed
// customer price and is refreshed lazily by the aggregator; it never feeds
// back into price computation.
type CartItem struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID        `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID         uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	VariantID         *uuid.UUID       `gorm:"column:variant_id;type:uuid"`
	Quantity          int              `gorm:"column:quantity;not null"`
	UnitPriceSnapshot *decimal.Decimal `gorm:"column:unit_price_snapshot;type:numeric(14,4)"`
	SnapshotCurrency  *string          `gorm:"column:snapshot_currency"`
	SnapshotAt        *time.Time       `gorm:"column:snapshot_at"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
