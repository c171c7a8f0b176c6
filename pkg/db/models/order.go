package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/enums"
)

// Order freezes cart totals at the moment of checkout. Price changes never
// retroactively affect a placed order.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	CartID            uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	Currency          string            `gorm:"column:currency;not null"`
	SubtotalAmount    decimal.Decimal   `gorm:"column:subtotal_amount;type:numeric(14,4);not null"`
	PromotionDiscount decimal.Decimal   `gorm:"column:promotion_discount;type:numeric(14,4);not null;default:0"`
	CouponDiscount    decimal.Decimal   `gorm:"column:coupon_discount;type:numeric(14,4);not null;default:0"`
	ShippingAmount    decimal.Decimal   `gorm:"column:shipping_amount;type:numeric(14,4);not null;default:0"`
	TaxAmount         decimal.Decimal   `gorm:"column:tax_amount;type:numeric(14,4);not null;default:0"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,4);not null"`
	CouponID          *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is an immutable per-line price freeze. It is the only persisted
// structure carrying BasePrice and MarkupAmount, and it surfaces them to
// seller/admin views only.
type OrderItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID         *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	SellerID          uuid.UUID       `gorm:"column:seller_id;type:uuid;not null"`
	Title             string          `gorm:"column:title;not null"`
	Quantity          int             `gorm:"column:quantity;not null"`
	BasePrice         decimal.Decimal `gorm:"column:base_price;type:numeric(14,4);not null"`
	MarkupAmount      decimal.Decimal `gorm:"column:markup_amount;type:numeric(14,4);not null"`
	DisplayPrice      decimal.Decimal `gorm:"column:display_price;type:numeric(14,4);not null"`
	PromotionDiscount decimal.Decimal `gorm:"column:promotion_discount;type:numeric(14,4);not null;default:0"`
	CouponDiscount    decimal.Decimal `gorm:"column:coupon_discount;type:numeric(14,4);not null;default:0"`
	LineTotal         decimal.Decimal `gorm:"column:line_total;type:numeric(14,4);not null"`
	Currency          string          `gorm:"column:currency;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}
