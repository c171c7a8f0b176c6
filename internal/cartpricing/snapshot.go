package cartpricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/types"
)

// CustomerLine is the storefront projection of a priced line. It is a
// separate struct, not a filtered copy, so the seller-only base price and
// markup simply have nowhere to go.
type CustomerLine struct {
	LineID            uuid.UUID    `json:"line_id"`
	ProductID         uuid.UUID    `json:"product_id"`
	VariantID         *uuid.UUID   `json:"variant_id,omitempty"`
	Title             string       `json:"title"`
	Quantity          int          `json:"quantity"`
	Unavailable       bool         `json:"unavailable"`
	UnitPrice         types.Money  `json:"unit_price"`
	CompareAt         *types.Money `json:"compare_at,omitempty"`
	PromotionName     *string      `json:"promotion_name,omitempty"`
	PromotionDiscount types.Money  `json:"promotion_discount"`
	CouponDiscount    types.Money  `json:"coupon_discount"`
	LineTotal         types.Money  `json:"line_total"`
}

// CustomerSnapshot is what the storefront renders for a cart.
type CustomerSnapshot struct {
	CartID            uuid.UUID      `json:"cart_id"`
	Currency          string         `json:"currency"`
	Lines             []CustomerLine `json:"lines"`
	Subtotal          types.Money    `json:"subtotal"`
	PromotionDiscount types.Money    `json:"promotion_discount"`
	CouponDiscount    types.Money    `json:"coupon_discount"`
	Shipping          types.Money    `json:"shipping"`
	Tax               types.Money    `json:"tax"`
	Total             types.Money    `json:"total"`
	CouponCode        *string        `json:"coupon_code,omitempty"`
	CouponSavings     *types.Money   `json:"coupon_savings,omitempty"`
	CouponRejection   string         `json:"coupon_rejection,omitempty"`
	Degraded          bool           `json:"degraded"`
}

// CustomerView projects the totals down to the customer-safe snapshot.
func (t *CartTotals) CustomerView() CustomerSnapshot {
	snapshot := CustomerSnapshot{
		CartID:            t.CartID,
		Currency:          t.Currency,
		Subtotal:          t.Subtotal,
		PromotionDiscount: t.PromotionDiscount,
		CouponDiscount:    t.CouponDiscount,
		Shipping:          t.Shipping,
		Tax:               t.Tax,
		Total:             t.Total,
		CouponRejection:   t.CouponRejection,
		Degraded:          t.Degraded,
	}
	if t.Coupon != nil {
		code := t.Coupon.Code
		savings := t.CouponDiscount
		snapshot.CouponCode = &code
		snapshot.CouponSavings = &savings
	}
	for _, line := range t.Lines {
		snapshot.Lines = append(snapshot.Lines, CustomerLine{
			LineID:            line.LineID,
			ProductID:         line.ProductID,
			VariantID:         line.VariantID,
			Title:             line.Title,
			Quantity:          line.Quantity,
			Unavailable:       line.Unavailable,
			UnitPrice:         line.UnitPrice,
			CompareAt:         line.CompareAt,
			PromotionName:     line.PromotionName,
			PromotionDiscount: line.PromotionDiscount,
			CouponDiscount:    line.CouponDiscount,
			LineTotal:         line.LineTotal,
		})
	}
	return snapshot
}

// Savings is the combined promotion and coupon discount.
func (t *CartTotals) Savings() decimal.Decimal {
	return t.PromotionDiscount.Amount.Add(t.CouponDiscount.Amount)
}
