package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/enums"
)

// Currency is a storefront-visible currency with its display rules.
type Currency struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string               `gorm:"column:code;not null;uniqueIndex"`
	Name           string               `gorm:"column:name;not null"`
	Symbol         string               `gorm:"column:symbol;not null"`
	SymbolPosition enums.SymbolPosition `gorm:"column:symbol_position;type:text;not null;default:'before'"`
	DecimalPlaces  int32                `gorm:"column:decimal_places;not null;default:2"`
	IsDefault      bool                 `gorm:"column:is_default;not null;default:false"`
	IsActive       bool                 `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ExchangeRate is a directed conversion edge between two currencies. The
// inverse edge is not guaranteed to exist.
type ExchangeRate struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromCurrency string          `gorm:"column:from_currency;not null;index:idx_rates_pair,unique"`
	ToCurrency   string          `gorm:"column:to_currency;not null;index:idx_rates_pair,unique"`
	Rate         decimal.Decimal `gorm:"column:rate;type:numeric(20,8);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
