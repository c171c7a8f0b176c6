package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/enums"
)

// Promotion is a time-boxed discount scoped to a catalog subset. Several may
// match one product; exactly one wins per item.
type Promotion struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string               `gorm:"column:name;not null"`
	Type          enums.PromotionType  `gorm:"column:type;type:text;not null;default:'system'"`
	SellerID      *uuid.UUID           `gorm:"column:seller_id;type:uuid"`
	DiscountType  enums.DiscountType   `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal      `gorm:"column:discount_value;type:numeric(14,4);not null"`
	Scope         enums.PromotionScope `gorm:"column:scope;type:text;not null;default:'all'"`
	ScopeRef      *string              `gorm:"column:scope_ref"`
	StartDate     time.Time            `gorm:"column:start_date;not null"`
	EndDate       time.Time            `gorm:"column:end_date;not null"`
	Priority      int                  `gorm:"column:priority;not null;default:0"`
	IsActive      bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
