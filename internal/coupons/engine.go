package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type couponStore interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error)
}

// Line is the coupon engine's view of one priced cart line. Product is nil
// for unavailable lines, which never participate in distribution.
type Line struct {
	LineID    uuid.UUID
	Product   *models.Product
	UnitPrice types.Money
	Quantity  int
	LineTotal types.Money
}

// Distribution is a coupon discount split across eligible lines. The per-line
// amounts always sum exactly to Total.
type Distribution struct {
	Total  types.Money
	ByLine map[uuid.UUID]types.Money
}

// Engine validates coupon codes against a cart and distributes the discount.
type Engine interface {
	Validate(ctx context.Context, code string, lines []Line, userID *uuid.UUID) (*models.Coupon, error)
	Distribute(coupon *models.Coupon, lines []Line) (Distribution, error)
}

type engine struct {
	repo  couponStore
	nowFn func() time.Time
}

// NewEngine builds a coupon engine.
func NewEngine(repo couponStore) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &engine{repo: repo, nowFn: time.Now}, nil
}

// Validate checks existence and window first, then usage eligibility, then
// the minimum order amount on the raw pre-discount cart value. Each failure
// class carries its own code so the storefront can phrase the rejection.
func (e *engine) Validate(ctx context.Context, code string, lines []Line, userID *uuid.UUID) (*models.Coupon, error) {
	coupon, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	now := e.nowFn()
	if !coupon.IsActive || now.Before(coupon.StartsAt) || now.After(coupon.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon is not valid")
	}

	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeCouponNotUsable, "coupon usage limit reached")
	}
	if coupon.RequiresAuth && userID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeCouponNotUsable, "coupon requires a signed-in user")
	}
	if userID != nil && coupon.UsageLimitPerUser > 0 {
		used, err := e.repo.CountUsageByUser(ctx, coupon.ID, *userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon usage")
		}
		if used >= int64(coupon.UsageLimitPerUser) {
			return nil, pkgerrors.New(pkgerrors.CodeCouponNotUsable, "coupon already used")
		}
	}

	if coupon.MinOrderAmount != nil {
		raw := decimal.Zero
		for _, line := range lines {
			raw = raw.Add(line.UnitPrice.Amount.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		if raw.LessThan(*coupon.MinOrderAmount) {
			return nil, pkgerrors.New(pkgerrors.CodeMinimumNotMet, "order does not meet the coupon minimum").
				WithDetails(map[string]string{"minimum": coupon.MinOrderAmount.String()})
		}
	}
	return coupon, nil
}

// Distribute computes the discount once on the eligible subtotal and splits
// it proportionally across eligible lines. Per-line rounding leaves a
// remainder of at most a few minor units; it is assigned to the last eligible
// line so the split reconciles exactly with the total.
func (e *engine) Distribute(coupon *models.Coupon, lines []Line) (Distribution, error) {
	if coupon == nil {
		return Distribution{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon required")
	}

	byLine := map[uuid.UUID]types.Money{}
	var eligible []Line
	subtotal := decimal.Zero
	currency := ""
	for _, line := range lines {
		if !matchesScope(coupon, line.Product) {
			continue
		}
		if currency == "" {
			currency = line.LineTotal.Currency
		} else if currency != line.LineTotal.Currency {
			return Distribution{}, fmt.Errorf("%w: %s vs %s", types.ErrCurrencyMismatch, currency, line.LineTotal.Currency)
		}
		eligible = append(eligible, line)
		subtotal = subtotal.Add(line.LineTotal.Amount)
	}
	if len(eligible) == 0 || !subtotal.IsPositive() {
		return Distribution{Total: types.Zero(currencyOrDefault(currency, lines)), ByLine: byLine}, nil
	}

	total := discountTotal(coupon, subtotal).Round(2)

	distributed := decimal.Zero
	for i, line := range eligible {
		var share decimal.Decimal
		if i == len(eligible)-1 {
			share = total.Sub(distributed)
		} else {
			share = total.Mul(line.LineTotal.Amount).Div(subtotal).Round(2)
			distributed = distributed.Add(share)
		}
		byLine[line.LineID] = types.NewMoney(share, currency)
	}
	return Distribution{Total: types.NewMoney(total, currency), ByLine: byLine}, nil
}

// discountTotal applies the coupon value to the eligible subtotal, clamped by
// the optional max discount and by the subtotal itself.
func discountTotal(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var total decimal.Decimal
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		total = subtotal.Mul(coupon.DiscountValue).Div(decimal.NewFromInt(100))
	case enums.DiscountTypeFixed:
		total = coupon.DiscountValue
	default:
		return decimal.Zero
	}
	if coupon.MaxDiscountAmount != nil && total.GreaterThan(*coupon.MaxDiscountAmount) {
		total = *coupon.MaxDiscountAmount
	}
	if total.GreaterThan(subtotal) {
		total = subtotal
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func matchesScope(coupon *models.Coupon, product *models.Product) bool {
	if product == nil {
		return false
	}
	switch coupon.Scope {
	case enums.PromotionScopeAll:
		return true
	case enums.PromotionScopeCategory:
		return coupon.ScopeRef != nil && *coupon.ScopeRef == product.Category
	case enums.PromotionScopeBrand:
		return coupon.ScopeRef != nil && *coupon.ScopeRef == product.Brand
	case enums.PromotionScopeTag:
		if coupon.ScopeRef == nil {
			return false
		}
		for _, tag := range product.Tags {
			if tag == *coupon.ScopeRef {
				return true
			}
		}
		return false
	}
	return false
}

func currencyOrDefault(currency string, lines []Line) string {
	if currency != "" {
		return currency
	}
	for _, line := range lines {
		if line.LineTotal.Currency != "" {
			return line.LineTotal.Currency
		}
	}
	return ""
}
