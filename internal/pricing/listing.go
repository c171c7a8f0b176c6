package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/internal/promotions"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type promotionEngine interface {
	BestDiscount(ctx context.Context, product *models.Product, displayPrice types.Money) (*promotions.Discount, error)
}

// ListingPrice is the storefront listing view of a product: the effective
// price, the struck-through compare price when one applies, and the discount
// percentage. Coupons never participate here.
type ListingPrice struct {
	Price              types.Money      `json:"price"`
	ComparePrice       *types.Money     `json:"compare_price,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	PromotionName      *string          `json:"promotion_name,omitempty"`
	Degraded           bool             `json:"degraded"`
}

// Lister prices products for listing pages.
type Lister interface {
	ListingPrice(ctx context.Context, product *models.Product, targetCurrency string) (ListingPrice, error)
}

type lister struct {
	calculator Calculator
	promotions promotionEngine
}

// NewLister builds the listing price service.
func NewLister(calculator Calculator, engine promotionEngine) (Lister, error) {
	if calculator == nil {
		return nil, fmt.Errorf("calculator required")
	}
	if engine == nil {
		return nil, fmt.Errorf("promotion engine required")
	}
	return &lister{calculator: calculator, promotions: engine}, nil
}

// ListingPrice resolves the display price and overlays the best promotion.
// Without a promotion the compare-at was-price drives the strike-through.
func (l *lister) ListingPrice(ctx context.Context, product *models.Product, targetCurrency string) (ListingPrice, error) {
	if product == nil {
		return ListingPrice{}, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}

	price, err := l.calculator.PriceProduct(ctx, product, targetCurrency)
	if err != nil {
		return ListingPrice{}, err
	}

	discount, err := l.promotions.BestDiscount(ctx, product, price.Amount)
	if err != nil {
		return ListingPrice{}, err
	}
	if discount != nil {
		display := price.Amount
		return ListingPrice{
			Price:              discount.DiscountedPrice,
			ComparePrice:       &display,
			DiscountPercentage: &discount.Percentage,
			PromotionName:      &discount.Name,
			Degraded:           price.Degraded,
		}, nil
	}

	listing := ListingPrice{Price: price.Amount, Degraded: price.Degraded}
	if price.CompareAt != nil && price.CompareAt.Amount.IsPositive() {
		pct := price.CompareAt.Amount.Sub(price.Amount.Amount).
			Div(price.CompareAt.Amount).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		listing.ComparePrice = price.CompareAt
		listing.DiscountPercentage = &pct
	}
	return listing, nil
}
