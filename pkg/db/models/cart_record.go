package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zikomart/pricing-engine/pkg/enums"
)

// CartRecord is a cart bound either to a user or to an anonymous token with
// an expiry.
type CartRecord struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            *uuid.UUID       `gorm:"column:user_id;type:uuid;index"`
	AnonToken         *string          `gorm:"column:anon_token;index"`
	ExpiresAt         *time.Time       `gorm:"column:expires_at"`
	Currency          string           `gorm:"column:currency;not null;default:'MWK'"`
	Status            enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	AppliedCouponCode *string          `gorm:"column:applied_coupon_code"`
	Items             []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
