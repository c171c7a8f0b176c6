package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
)

// Repository persists coupons and their redemptions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByCode loads a coupon by its case-insensitive code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var row models.Coupon
	err := r.db.WithContext(ctx).
		First(&row, "UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CountUsageByUser returns how many times the user has redeemed the coupon.
func (r *Repository) CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).
		Error
	return count, err
}

// IncrementUsage bumps used_count with the limit check folded into the
// UPDATE, so two concurrent checkouts of a nearly exhausted coupon cannot
// both pass. The loser gets a coupon-not-usable error.
func (r *Repository) IncrementUsage(ctx context.Context, couponID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "increment coupon usage")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeCouponNotUsable, "coupon is no longer available")
	}
	return nil
}

// RecordUsage inserts the redemption tuple.
func (r *Repository) RecordUsage(ctx context.Context, usage *models.CouponUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}
