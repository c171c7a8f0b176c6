package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seller owns a catalog of products and at most one active markup schedule.
type Seller struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	ScheduleCurrency string          `gorm:"column:schedule_currency;not null;default:'MWK'"`
	TemplateID       *uuid.UUID      `gorm:"column:template_id;type:uuid"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	Brackets         []MarkupBracket `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// MarkupBracket maps a base-price range to a flat markup amount. Ranges are
// non-overlapping by convention; overlap is rejected at write time only.
type MarkupBracket struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID     uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	MinPrice     decimal.Decimal `gorm:"column:min_price;type:numeric(14,4);not null"`
	MaxPrice     decimal.Decimal `gorm:"column:max_price;type:numeric(14,4);not null"`
	MarkupAmount decimal.Decimal `gorm:"column:markup_amount;type:numeric(14,4);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// MarkupTemplate is a reusable bracket set assignable to sellers.
type MarkupTemplate struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string            `gorm:"column:name;not null;uniqueIndex"`
	Currency  string            `gorm:"column:currency;not null;default:'MWK'"`
	Brackets  []TemplateBracket `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TemplateBracket mirrors MarkupBracket inside a template.
type TemplateBracket struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TemplateID   uuid.UUID       `gorm:"column:template_id;type:uuid;not null;index"`
	MinPrice     decimal.Decimal `gorm:"column:min_price;type:numeric(14,4);not null"`
	MaxPrice     decimal.Decimal `gorm:"column:max_price;type:numeric(14,4);not null"`
	MarkupAmount decimal.Decimal `gorm:"column:markup_amount;type:numeric(14,4);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
