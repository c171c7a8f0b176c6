package promotions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/cache"
	"github.com/zikomart/pricing-engine/pkg/config"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/logger"
	"github.com/zikomart/pricing-engine/pkg/metrics"
	zmredis "github.com/zikomart/pricing-engine/pkg/redis"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type promotionStore interface {
	ListActive(ctx context.Context) ([]models.Promotion, error)
}

// Discount is the winning promotion applied to one unit of a product.
type Discount struct {
	PromotionID     uuid.UUID       `json:"promotion_id"`
	Name            string          `json:"name"`
	Amount          types.Money     `json:"amount"`
	DiscountedPrice types.Money     `json:"discounted_price"`
	Percentage      decimal.Decimal `json:"percentage"`
}

// Engine selects the best active promotion for a product at its display
// price. It is quantity-agnostic; callers scale the per-unit amount.
type Engine interface {
	BestDiscount(ctx context.Context, product *models.Product, displayPrice types.Money) (*Discount, error)
}

type engine struct {
	repo    promotionStore
	cache   cache.Cache
	metrics *metrics.PricingMetrics
	logg    *logger.Logger
	ttl     time.Duration
	nowFn   func() time.Time
}

// NewEngine builds a promotion engine with a TTL-cached active set.
func NewEngine(repo promotionStore, store cache.Cache, recorder *metrics.PricingMetrics, logg *logger.Logger, cfg config.PricingConfig) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &engine{
		repo:    repo,
		cache:   store,
		metrics: recorder,
		logg:    logg,
		ttl:     cfg.PromoCacheTTL,
		nowFn:   time.Now,
	}, nil
}

// BestDiscount returns the promotion yielding the largest absolute per-unit
// discount, or nil when none applies. Ties break by priority descending,
// then promotion ID, so the outcome never depends on iteration order. A
// zero-amount discount never wins.
func (e *engine) BestDiscount(ctx context.Context, product *models.Product, displayPrice types.Money) (*Discount, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	if !displayPrice.Amount.IsPositive() {
		return nil, nil
	}

	active, err := e.activeSet(ctx)
	if err != nil {
		return nil, err
	}
	now := e.nowFn()

	var best *models.Promotion
	var bestAmount decimal.Decimal
	for i := range active {
		promo := &active[i]
		if !e.matches(promo, product, now) {
			continue
		}
		amount := discountAmount(promo, displayPrice.Amount)
		if !amount.IsPositive() {
			continue
		}
		if best == nil || amount.GreaterThan(bestAmount) || (amount.Equal(bestAmount) && wins(promo, best)) {
			best = promo
			bestAmount = amount
		}
	}
	if best == nil {
		return nil, nil
	}

	discounted := types.NewMoney(displayPrice.Amount.Sub(bestAmount), displayPrice.Currency)
	percentage := bestAmount.Div(displayPrice.Amount).Mul(decimal.NewFromInt(100)).Round(2)
	return &Discount{
		PromotionID:     best.ID,
		Name:            best.Name,
		Amount:          types.NewMoney(bestAmount, displayPrice.Currency),
		DiscountedPrice: discounted,
		Percentage:      percentage,
	}, nil
}

func (e *engine) activeSet(ctx context.Context) ([]models.Promotion, error) {
	key := zmredis.PromoKey()
	var cached []models.Promotion
	hit, err := e.cache.Get(ctx, key, &cached)
	if err != nil && e.logg != nil {
		e.logg.Warn(ctx, fmt.Sprintf("promotion cache read failed: %v", err))
	}
	if hit {
		e.metrics.IncCacheHit("promotions")
		return cached, nil
	}
	e.metrics.IncCacheMiss("promotions")

	rows, err := e.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active promotions")
	}
	if err := e.cache.Put(ctx, key, rows, e.ttl); err != nil && e.logg != nil {
		e.logg.Warn(ctx, fmt.Sprintf("promotion cache write failed: %v", err))
	}
	return rows, nil
}

func (e *engine) matches(promo *models.Promotion, product *models.Product, now time.Time) bool {
	if now.Before(promo.StartDate) || now.After(promo.EndDate) {
		return false
	}
	if promo.SellerID != nil && *promo.SellerID != product.SellerID {
		return false
	}
	switch promo.Scope {
	case enums.PromotionScopeAll:
		return true
	case enums.PromotionScopeCategory:
		return promo.ScopeRef != nil && *promo.ScopeRef == product.Category
	case enums.PromotionScopeBrand:
		return promo.ScopeRef != nil && *promo.ScopeRef == product.Brand
	case enums.PromotionScopeTag:
		if promo.ScopeRef == nil {
			return false
		}
		for _, tag := range product.Tags {
			if tag == *promo.ScopeRef {
				return true
			}
		}
		return false
	}
	return false
}

// discountAmount computes the per-unit discount, clamped to the display price.
func discountAmount(promo *models.Promotion, display decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		amount = display.Mul(promo.DiscountValue).Div(decimal.NewFromInt(100))
	case enums.DiscountTypeFixed:
		amount = promo.DiscountValue
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(display) {
		return display
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// wins breaks an exact amount tie: higher priority first, then the smaller
// promotion ID.
func wins(candidate, incumbent *models.Promotion) bool {
	if candidate.Priority != incumbent.Priority {
		return candidate.Priority > incumbent.Priority
	}
	return candidate.ID.String() < incumbent.ID.String()
}
