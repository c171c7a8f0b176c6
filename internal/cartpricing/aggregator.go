package cartpricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/internal/coupons"
	"github.com/zikomart/pricing-engine/internal/currency"
	"github.com/zikomart/pricing-engine/internal/pricing"
	"github.com/zikomart/pricing-engine/internal/promotions"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/logger"
	"github.com/zikomart/pricing-engine/pkg/metrics"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type priceCalculator interface {
	PriceProduct(ctx context.Context, product *models.Product, targetCurrency string) (pricing.Price, error)
	PriceVariant(ctx context.Context, product *models.Product, variant *models.ProductVariant, targetCurrency string) (pricing.Price, error)
}

type promotionEngine interface {
	BestDiscount(ctx context.Context, product *models.Product, displayPrice types.Money) (*promotions.Discount, error)
}

type currencyConverter interface {
	Convert(ctx context.Context, amount types.Money, target string) (types.Money, currency.Resolution, error)
}

type couponEngine interface {
	Validate(ctx context.Context, code string, lines []coupons.Line, userID *uuid.UUID) (*models.Coupon, error)
	Distribute(coupon *models.Coupon, lines []coupons.Line) (coupons.Distribution, error)
}

type snapshotWriter interface {
	UpdateItemSnapshot(ctx context.Context, itemID uuid.UUID, price decimal.Decimal, currency string, at time.Time) error
}

// PricedLine is the full per-line breakdown, including the seller-facing
// base price and markup. Customer surfaces must go through CustomerView,
// never serialize this type directly.
type PricedLine struct {
	LineID            uuid.UUID
	ProductID         uuid.UUID
	VariantID         *uuid.UUID
	SellerID          uuid.UUID
	Title             string
	Quantity          int
	Unavailable       bool
	Degraded          bool
	BasePrice         types.Money
	MarkupAmount      types.Money
	UnitPrice         types.Money
	CompareAt         *types.Money
	PromotionID       *uuid.UUID
	PromotionName     *string
	PromotionDiscount types.Money
	CouponDiscount    types.Money
	LineTotal         types.Money
}

// CartTotals is the aggregate consumed by checkout to freeze an order and by
// the storefront via CustomerView.
type CartTotals struct {
	CartID            uuid.UUID
	Currency          string
	Lines             []PricedLine
	Subtotal          types.Money
	PromotionDiscount types.Money
	CouponDiscount    types.Money
	Shipping          types.Money
	Tax               types.Money
	Total             types.Money
	Coupon            *models.Coupon
	CouponRejection   string
	Degraded          bool
}

// Aggregator orchestrates per-line pricing, promotions and the single coupon
// pass over a cart.
type Aggregator interface {
	ComputeTotals(ctx context.Context, record *models.CartRecord) (*CartTotals, error)
}

type aggregator struct {
	products   productLoader
	calculator priceCalculator
	promos     promotionEngine
	couponEng  couponEngine
	converter  currencyConverter
	snapshots  snapshotWriter
	metrics    *metrics.PricingMetrics
	logg       *logger.Logger
	nowFn      func() time.Time
}

// NewAggregator builds the cart pricing aggregator. The snapshot writer is
// optional; without it the advisory line snapshots are simply not refreshed.
func NewAggregator(
	products productLoader,
	calculator priceCalculator,
	promos promotionEngine,
	couponEng couponEngine,
	converter currencyConverter,
	snapshots snapshotWriter,
	recorder *metrics.PricingMetrics,
	logg *logger.Logger,
) (Aggregator, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if calculator == nil {
		return nil, fmt.Errorf("price calculator required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promotion engine required")
	}
	if couponEng == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	if converter == nil {
		return nil, fmt.Errorf("currency converter required")
	}
	return &aggregator{
		products:   products,
		calculator: calculator,
		promos:     promos,
		couponEng:  couponEng,
		converter:  converter,
		snapshots:  snapshots,
		metrics:    recorder,
		logg:       logg,
		nowFn:      time.Now,
	}, nil
}

// ComputeTotals prices every line in the cart's currency, applies the best
// promotion per line, runs the applied coupon once across all lines and sums
// up. A missing or inactive product degrades that line to a zero-priced
// unavailable entry instead of failing the whole cart; a pinned coupon that
// no longer validates is dropped with the rejection reason surfaced.
func (a *aggregator) ComputeTotals(ctx context.Context, record *models.CartRecord) (*CartTotals, error) {
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart required")
	}
	start := a.nowFn()
	defer func() {
		a.metrics.ObserveQuoteDuration("cart", a.nowFn().Sub(start))
	}()

	currency := types.NormalizeCurrency(record.Currency)
	totals := &CartTotals{
		CartID:   record.ID,
		Currency: currency,
		Shipping: types.Zero(currency),
		Tax:      types.Zero(currency),
	}

	couponLines := make([]coupons.Line, 0, len(record.Items))
	for _, item := range record.Items {
		line, couponLine, err := a.priceLine(ctx, currency, item)
		if err != nil {
			return nil, err
		}
		totals.Lines = append(totals.Lines, line)
		couponLines = append(couponLines, couponLine)
		totals.Degraded = totals.Degraded || line.Degraded
	}

	couponByLine := map[uuid.UUID]types.Money{}
	if record.AppliedCouponCode != nil {
		coupon, err := a.couponEng.Validate(ctx, *record.AppliedCouponCode, couponLines, record.UserID)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil {
				return nil, err
			}
			// The coupon was valid when pinned; surface why it no longer is
			// and price the cart without it.
			totals.CouponRejection = typed.Message()
			totals.Degraded = true
			a.metrics.IncDegraded("coupon_rejected")
		} else {
			distribution, err := a.couponEng.Distribute(coupon, couponLines)
			if err != nil {
				return nil, err
			}
			totals.Coupon = coupon
			couponByLine = distribution.ByLine
		}
	}

	subtotal := decimal.Zero
	promoTotal := decimal.Zero
	couponTotal := decimal.Zero
	for i := range totals.Lines {
		line := &totals.Lines[i]
		if share, ok := couponByLine[line.LineID]; ok {
			line.CouponDiscount = share
		}
		lineSubtotal := line.UnitPrice.MulInt(line.Quantity)
		lineTotal := lineSubtotal.Amount.
			Sub(line.PromotionDiscount.Amount).
			Sub(line.CouponDiscount.Amount)
		line.LineTotal = types.NewMoney(lineTotal, currency).ClampZero()

		subtotal = subtotal.Add(lineSubtotal.Amount)
		promoTotal = promoTotal.Add(line.PromotionDiscount.Amount)
		couponTotal = couponTotal.Add(line.CouponDiscount.Amount)
	}

	totals.Subtotal = types.NewMoney(subtotal, currency)
	totals.PromotionDiscount = types.NewMoney(promoTotal, currency)
	totals.CouponDiscount = types.NewMoney(couponTotal, currency)
	totals.Total = types.NewMoney(
		subtotal.Sub(promoTotal).Sub(couponTotal).
			Add(totals.Shipping.Amount).
			Add(totals.Tax.Amount),
		currency,
	).ClampZero()

	a.refreshSnapshots(ctx, totals)
	return totals, nil
}

// priceLine resolves one cart item into its priced line plus the coupon
// engine's view of it.
func (a *aggregator) priceLine(ctx context.Context, currency string, item models.CartItem) (PricedLine, coupons.Line, error) {
	line := PricedLine{
		LineID:            item.ID,
		ProductID:         item.ProductID,
		VariantID:         item.VariantID,
		Quantity:          item.Quantity,
		BasePrice:         types.Zero(currency),
		MarkupAmount:      types.Zero(currency),
		UnitPrice:         types.Zero(currency),
		PromotionDiscount: types.Zero(currency),
		CouponDiscount:    types.Zero(currency),
		LineTotal:         types.Zero(currency),
	}

	product, err := a.products.FindProduct(ctx, item.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return PricedLine{}, coupons.Line{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	var variant *models.ProductVariant
	if product != nil && item.VariantID != nil {
		variant = findVariant(product, *item.VariantID)
	}
	unavailable := product == nil || !product.IsActive || (item.VariantID != nil && variant == nil)
	if unavailable {
		line.Unavailable = true
		line.Degraded = true
		a.metrics.IncDegraded("unavailable_line")
		a.warn(ctx, fmt.Sprintf("cart line %s references unavailable product %s", item.ID, item.ProductID))
		return line, coupons.Line{LineID: item.ID, Quantity: item.Quantity, UnitPrice: types.Zero(currency), LineTotal: types.Zero(currency)}, nil
	}

	line.SellerID = product.SellerID
	line.Title = product.Title
	baseHome := product.BasePrice

	var price pricing.Price
	if variant != nil {
		line.Title = fmt.Sprintf("%s (%s)", product.Title, variant.Title)
		baseHome = variant.BasePrice
		price, err = a.calculator.PriceVariant(ctx, product, variant, currency)
	} else {
		price, err = a.calculator.PriceProduct(ctx, product, currency)
	}
	if err != nil {
		return PricedLine{}, coupons.Line{}, err
	}
	line.UnitPrice = price.Amount
	line.CompareAt = price.CompareAt
	line.Degraded = price.Degraded

	// Freeze base and markup in the cart currency so every frozen amount on
	// an order line shares one denomination. The markup is whatever part of
	// the display price the base does not explain.
	line.BasePrice, line.MarkupAmount = a.splitBase(ctx, baseHome, product.Currency, price.Amount)

	discount, err := a.promos.BestDiscount(ctx, product, price.Amount)
	if err != nil {
		return PricedLine{}, coupons.Line{}, err
	}
	effectiveUnit := price.Amount
	if discount != nil {
		line.PromotionID = &discount.PromotionID
		line.PromotionName = &discount.Name
		line.PromotionDiscount = discount.Amount.MulInt(item.Quantity)
		effectiveUnit = discount.DiscountedPrice
	}

	couponLine := coupons.Line{
		LineID:    item.ID,
		Product:   product,
		UnitPrice: price.Amount,
		Quantity:  item.Quantity,
		LineTotal: effectiveUnit.MulInt(item.Quantity),
	}
	return line, couponLine, nil
}

// splitBase converts the home-currency base into the cart currency and
// derives the markup as the remainder of the display price. A conversion
// error leaves the split at zero/full rather than failing the line.
func (a *aggregator) splitBase(ctx context.Context, baseHome decimal.Decimal, homeCurrency string, unitPrice types.Money) (types.Money, types.Money) {
	converted, _, err := a.converter.Convert(ctx, types.NewMoney(baseHome, homeCurrency), unitPrice.Currency)
	if err != nil {
		a.warn(ctx, fmt.Sprintf("base conversion failed: %v", err))
		return types.Zero(unitPrice.Currency), unitPrice
	}
	markup := unitPrice.Amount.Sub(converted.Amount)
	return converted, types.NewMoney(markup, unitPrice.Currency)
}

func (a *aggregator) refreshSnapshots(ctx context.Context, totals *CartTotals) {
	if a.snapshots == nil {
		return
	}
	at := a.nowFn()
	for _, line := range totals.Lines {
		if line.Unavailable {
			continue
		}
		if err := a.snapshots.UpdateItemSnapshot(ctx, line.LineID, line.UnitPrice.Amount, line.UnitPrice.Currency, at); err != nil {
			a.warn(ctx, fmt.Sprintf("snapshot refresh failed for line %s: %v", line.LineID, err))
		}
	}
}

func (a *aggregator) warn(ctx context.Context, msg string) {
	if a.logg == nil {
		return
	}
	a.logg.Warn(ctx, msg)
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}
