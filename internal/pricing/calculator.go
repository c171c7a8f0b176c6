package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/internal/currency"
	"github.com/zikomart/pricing-engine/internal/markup"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type markupResolver interface {
	Resolve(ctx context.Context, sellerID uuid.UUID, basePrice decimal.Decimal) (markup.Resolution, error)
}

type currencyConverter interface {
	Convert(ctx context.Context, amount types.Money, target string) (types.Money, currency.Resolution, error)
}

// Price is the customer-facing unit price for a catalog item. CompareAt is
// present only when the was-price genuinely exceeds the current price.
// Degraded marks that a markup or rate fallback was taken somewhere below.
type Price struct {
	Amount    types.Money  `json:"amount"`
	CompareAt *types.Money `json:"compare_at,omitempty"`
	Degraded  bool         `json:"degraded"`
}

// Calculator composes the markup resolver and currency converter into unit
// prices for products and variants.
type Calculator interface {
	PriceProduct(ctx context.Context, product *models.Product, targetCurrency string) (Price, error)
	PriceVariant(ctx context.Context, product *models.Product, variant *models.ProductVariant, targetCurrency string) (Price, error)
}

type calculator struct {
	markups   markupResolver
	converter currencyConverter
}

// NewCalculator builds a price calculator over the provided resolvers.
func NewCalculator(markups markupResolver, converter currencyConverter) (Calculator, error) {
	if markups == nil {
		return nil, fmt.Errorf("markup resolver required")
	}
	if converter == nil {
		return nil, fmt.Errorf("currency converter required")
	}
	return &calculator{markups: markups, converter: converter}, nil
}

// PriceProduct prices the parent product: base plus bracket markup in the
// home currency, then converted to the target currency.
func (c *calculator) PriceProduct(ctx context.Context, product *models.Product, targetCurrency string) (Price, error) {
	if product == nil {
		return Price{}, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}

	finalHome, ratio, degraded, err := c.homePrice(ctx, product)
	if err != nil {
		return Price{}, err
	}

	converted, rateRes, err := c.converter.Convert(ctx, types.NewMoney(finalHome, product.Currency), targetCurrency)
	if err != nil {
		return Price{}, err
	}
	price := Price{Amount: converted, Degraded: degraded || rateRes.Degraded}

	if product.CompareAtBasePrice != nil {
		compareHome := product.CompareAtBasePrice.Mul(ratio)
		compareAt, compareRes, err := c.converter.Convert(ctx, types.NewMoney(compareHome, product.Currency), targetCurrency)
		if err != nil {
			return Price{}, err
		}
		if compareAt.Amount.GreaterThan(price.Amount.Amount) {
			price.CompareAt = &compareAt
			price.Degraded = price.Degraded || compareRes.Degraded
		}
	}
	return price, nil
}

// PriceVariant prices a variant by applying the parent's final/base ratio to
// the variant's own base price. The variant never re-enters the bracket
// table; its markup stays proportional to the parent's.
func (c *calculator) PriceVariant(ctx context.Context, product *models.Product, variant *models.ProductVariant, targetCurrency string) (Price, error) {
	if product == nil || variant == nil {
		return Price{}, pkgerrors.New(pkgerrors.CodeValidation, "product and variant required")
	}

	_, ratio, degraded, err := c.homePrice(ctx, product)
	if err != nil {
		return Price{}, err
	}

	variantHome := variant.BasePrice.Mul(ratio)
	converted, rateRes, err := c.converter.Convert(ctx, types.NewMoney(variantHome, product.Currency), targetCurrency)
	if err != nil {
		return Price{}, err
	}
	return Price{Amount: converted, Degraded: degraded || rateRes.Degraded}, nil
}

// homePrice returns the marked-up price in the home currency plus the
// final/base ratio reused for variants and compare-at pricing. A zero base
// cannot anchor a ratio, so it passes through at 1.
func (c *calculator) homePrice(ctx context.Context, product *models.Product) (decimal.Decimal, decimal.Decimal, bool, error) {
	resolution, err := c.markups.Resolve(ctx, product.SellerID, product.BasePrice)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, false, err
	}
	finalHome := product.BasePrice.Add(resolution.Markup)

	ratio := decimal.NewFromInt(1)
	if product.BasePrice.IsPositive() {
		ratio = finalHome.Div(product.BasePrice)
	}
	return finalHome, ratio, resolution.Degraded, nil
}
