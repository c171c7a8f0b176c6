package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/enums"
)

// Coupon is a user-redeemed code. A cart holds at most one applied coupon.
type Coupon struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string               `gorm:"column:code;not null;uniqueIndex"`
	DiscountType      enums.DiscountType   `gorm:"column:discount_type;type:text;not null"`
	DiscountValue     decimal.Decimal      `gorm:"column:discount_value;type:numeric(14,4);not null"`
	Scope             enums.PromotionScope `gorm:"column:scope;type:text;not null;default:'all'"`
	ScopeRef          *string              `gorm:"column:scope_ref"`
	MinOrderAmount    *decimal.Decimal     `gorm:"column:min_order_amount;type:numeric(14,4)"`
	MaxDiscountAmount *decimal.Decimal     `gorm:"column:max_discount_amount;type:numeric(14,4)"`
	UsageLimit        *int                 `gorm:"column:usage_limit"`
	UsageLimitPerUser int                  `gorm:"column:usage_limit_per_user;not null;default:1"`
	UsedCount         int                  `gorm:"column:used_count;not null;default:0"`
	RequiresAuth      bool                 `gorm:"column:requires_auth;not null;default:false"`
	StartsAt          time.Time            `gorm:"column:starts_at;not null"`
	ExpiresAt         time.Time            `gorm:"column:expires_at;not null"`
	IsActive          bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponUsage records a redemption. Written atomically with order creation.
type CouponUsage struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID       uuid.UUID       `gorm:"column:coupon_id;type:uuid;not null;index"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(14,4);not null"`
	Currency       string          `gorm:"column:currency;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
