package cartpricing

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/internal/coupons"
	"github.com/zikomart/pricing-engine/internal/currency"
	"github.com/zikomart/pricing-engine/internal/pricing"
	"github.com/zikomart/pricing-engine/internal/promotions"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type stubProducts struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProducts) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

// stubCalculator prices at base times a fixed factor, standing in for the
// markup-plus-conversion pipeline.
type stubCalculator struct {
	factor decimal.Decimal
}

func (s *stubCalculator) PriceProduct(ctx context.Context, product *models.Product, target string) (pricing.Price, error) {
	return pricing.Price{Amount: types.NewMoney(product.BasePrice.Mul(s.factor).Round(2), target)}, nil
}

func (s *stubCalculator) PriceVariant(ctx context.Context, product *models.Product, variant *models.ProductVariant, target string) (pricing.Price, error) {
	return pricing.Price{Amount: types.NewMoney(variant.BasePrice.Mul(s.factor).Round(2), target)}, nil
}

type stubPromos struct {
	byProduct map[uuid.UUID]*promotions.Discount
}

func (s *stubPromos) BestDiscount(ctx context.Context, product *models.Product, displayPrice types.Money) (*promotions.Discount, error) {
	return s.byProduct[product.ID], nil
}

type identityConverter struct{}

func (identityConverter) Convert(ctx context.Context, amount types.Money, target string) (types.Money, currency.Resolution, error) {
	return types.NewMoney(amount.Amount, target), currency.Resolution{}, nil
}

type stubCouponRepo struct {
	coupon *models.Coupon
}

func (s *stubCouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if s.coupon == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.coupon, nil
}

func (s *stubCouponRepo) CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type recordingSnapshots struct {
	prices map[uuid.UUID]decimal.Decimal
}

func (r *recordingSnapshots) UpdateItemSnapshot(ctx context.Context, itemID uuid.UUID, price decimal.Decimal, currencyCode string, at time.Time) error {
	if r.prices == nil {
		r.prices = map[uuid.UUID]decimal.Decimal{}
	}
	r.prices[itemID] = price
	return nil
}

type fixture struct {
	products  *stubProducts
	promos    *stubPromos
	coupons   *stubCouponRepo
	snapshots *recordingSnapshots
	factor    decimal.Decimal
}

func newFixture() *fixture {
	return &fixture{
		products:  &stubProducts{products: map[uuid.UUID]*models.Product{}},
		promos:    &stubPromos{byProduct: map[uuid.UUID]*promotions.Discount{}},
		coupons:   &stubCouponRepo{},
		snapshots: &recordingSnapshots{},
		factor:    decimal.NewFromInt(1),
	}
}

func (f *fixture) aggregator(t *testing.T) Aggregator {
	t.Helper()

	couponEng, err := coupons.NewEngine(f.coupons)
	if err != nil {
		t.Fatalf("coupon engine: %v", err)
	}
	agg, err := NewAggregator(
		f.products,
		&stubCalculator{factor: f.factor},
		f.promos,
		couponEng,
		identityConverter{},
		f.snapshots,
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	return agg
}

func (f *fixture) addProduct(base string) *models.Product {
	product := &models.Product{
		ID:        uuid.New(),
		SellerID:  uuid.New(),
		Title:     "Product",
		Currency:  "MWK",
		BasePrice: decimal.RequireFromString(base),
		IsActive:  true,
	}
	f.products.products[product.ID] = product
	return product
}

func tenPercentCoupon() *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE10",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		Scope:         enums.PromotionScopeAll,
		StartsAt:      time.Now().Add(-time.Hour),
		ExpiresAt:     time.Now().Add(time.Hour),
		IsActive:      true,
	}
}

func cartWith(items ...models.CartItem) *models.CartRecord {
	return &models.CartRecord{
		ID:       uuid.New(),
		Currency: "MWK",
		Status:   enums.CartStatusActive,
		Items:    items,
	}
}

func item(productID uuid.UUID, qty int) models.CartItem {
	return models.CartItem{ID: uuid.New(), ProductID: productID, Quantity: qty}
}

func TestComputeTotalsCouponSplitAcrossLines(t *testing.T) {
	f := newFixture()
	a := f.addProduct("600")
	b := f.addProduct("400")
	f.coupons.coupon = tenPercentCoupon()

	record := cartWith(item(a.ID, 1), item(b.ID, 1))
	code := "SAVE10"
	record.AppliedCouponCode = &code

	totals, err := f.aggregator(t).ComputeTotals(context.Background(), record)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if totals.Subtotal.Amount.String() != "1000" {
		t.Fatalf("expected subtotal 1000, got %s", totals.Subtotal.Amount)
	}
	if totals.CouponDiscount.Amount.String() != "100" {
		t.Fatalf("expected coupon discount 100, got %s", totals.CouponDiscount.Amount)
	}
	if totals.Total.Amount.String() != "900" {
		t.Fatalf("expected total 900, got %s", totals.Total.Amount)
	}
	if totals.Lines[0].CouponDiscount.Amount.String() != "60" {
		t.Fatalf("expected 60 on the 600 line, got %s", totals.Lines[0].CouponDiscount.Amount)
	}
	if totals.Lines[1].CouponDiscount.Amount.String() != "40" {
		t.Fatalf("expected 40 on the 400 line, got %s", totals.Lines[1].CouponDiscount.Amount)
	}
	if totals.Lines[0].LineTotal.Amount.String() != "540" {
		t.Fatalf("expected line total 540, got %s", totals.Lines[0].LineTotal.Amount)
	}
}

func TestComputeTotalsPromotionPerUnit(t *testing.T) {
	f := newFixture()
	product := f.addProduct("600")
	f.promos.byProduct[product.ID] = &promotions.Discount{
		PromotionID:     uuid.New(),
		Name:            "March Madness",
		Amount:          types.NewMoney(decimal.NewFromInt(50), "MWK"),
		DiscountedPrice: types.NewMoney(decimal.NewFromInt(550), "MWK"),
	}

	totals, err := f.aggregator(t).ComputeTotals(context.Background(), cartWith(item(product.ID, 2)))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if totals.Subtotal.Amount.String() != "1200" {
		t.Fatalf("expected subtotal 1200, got %s", totals.Subtotal.Amount)
	}
	if totals.PromotionDiscount.Amount.String() != "100" {
		t.Fatalf("expected promotion discount 100, got %s", totals.PromotionDiscount.Amount)
	}
	if totals.Total.Amount.String() != "1100" {
		t.Fatalf("expected total 1100, got %s", totals.Total.Amount)
	}
	line := totals.Lines[0]
	if line.PromotionName == nil || *line.PromotionName != "March Madness" {
		t.Fatalf("expected the promotion name on the line, got %v", line.PromotionName)
	}
}

func TestComputeTotalsMarkupSplit(t *testing.T) {
	f := newFixture()
	f.factor = decimal.RequireFromString("1.5")
	product := f.addProduct("600")

	totals, err := f.aggregator(t).ComputeTotals(context.Background(), cartWith(item(product.ID, 1)))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	line := totals.Lines[0]
	if line.UnitPrice.Amount.String() != "900" {
		t.Fatalf("expected unit price 900, got %s", line.UnitPrice.Amount)
	}
	if line.BasePrice.Amount.String() != "600" {
		t.Fatalf("expected base 600, got %s", line.BasePrice.Amount)
	}
	if line.MarkupAmount.Amount.String() != "300" {
		t.Fatalf("expected markup 300, got %s", line.MarkupAmount.Amount)
	}
}

func TestComputeTotalsUnavailableLineDegrades(t *testing.T) {
	f := newFixture()
	product := f.addProduct("600")

	record := cartWith(item(product.ID, 1), item(uuid.New(), 2))
	totals, err := f.aggregator(t).ComputeTotals(context.Background(), record)
	if err != nil {
		t.Fatalf("an unavailable line must not fail the cart: %v", err)
	}
	if !totals.Degraded {
		t.Fatal("expected the totals marked degraded")
	}
	missing := totals.Lines[1]
	if !missing.Unavailable {
		t.Fatal("expected the missing product's line flagged unavailable")
	}
	if !missing.UnitPrice.Amount.IsZero() || !missing.LineTotal.Amount.IsZero() {
		t.Fatal("expected the unavailable line zero-priced")
	}
	if totals.Subtotal.Amount.String() != "600" {
		t.Fatalf("expected only the available line in the subtotal, got %s", totals.Subtotal.Amount)
	}
}

func TestComputeTotalsRejectedCouponSurfacesReason(t *testing.T) {
	f := newFixture()
	product := f.addProduct("600")
	stale := tenPercentCoupon()
	stale.IsActive = false
	f.coupons.coupon = stale

	record := cartWith(item(product.ID, 1))
	code := "SAVE10"
	record.AppliedCouponCode = &code

	totals, err := f.aggregator(t).ComputeTotals(context.Background(), record)
	if err != nil {
		t.Fatalf("a rejected coupon must not fail the cart: %v", err)
	}
	if totals.CouponRejection == "" {
		t.Fatal("expected a rejection reason")
	}
	if !totals.CouponDiscount.Amount.IsZero() {
		t.Fatalf("expected no coupon discount, got %s", totals.CouponDiscount.Amount)
	}
	if !totals.Degraded {
		t.Fatal("expected the totals marked degraded")
	}
	if totals.Total.Amount.String() != "600" {
		t.Fatalf("expected full price, got %s", totals.Total.Amount)
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	f := newFixture()
	a := f.addProduct("600")
	b := f.addProduct("400")
	f.coupons.coupon = tenPercentCoupon()

	record := cartWith(item(a.ID, 2), item(b.ID, 3))
	code := "SAVE10"
	record.AppliedCouponCode = &code

	agg := f.aggregator(t)
	first, err := agg.ComputeTotals(context.Background(), record)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := agg.ComputeTotals(context.Background(), record)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	firstJSON, _ := json.Marshal(first.CustomerView())
	secondJSON, _ := json.Marshal(second.CustomerView())
	if string(firstJSON) != string(secondJSON) {
		t.Fatalf("totals must be byte-identical across runs:\n%s\n%s", firstJSON, secondJSON)
	}
}

func TestComputeTotalsRefreshesSnapshots(t *testing.T) {
	f := newFixture()
	product := f.addProduct("600")

	available := item(product.ID, 1)
	missing := item(uuid.New(), 1)
	_, err := f.aggregator(t).ComputeTotals(context.Background(), cartWith(available, missing))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got, ok := f.snapshots.prices[available.ID]; !ok || got.String() != "600" {
		t.Fatalf("expected the available line's snapshot refreshed to 600, got %v", f.snapshots.prices)
	}
	if _, ok := f.snapshots.prices[missing.ID]; ok {
		t.Fatal("unavailable lines must not get a snapshot")
	}
}

// forbiddenLeaks walks a type and reports any field whose name or json tag
// would expose seller-internal pricing.
func forbiddenLeaks(t reflect.Type, seen map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Map {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || seen[t] {
		return nil
	}
	seen[t] = true

	var leaks []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if field.Name == "BasePrice" || field.Name == "MarkupAmount" ||
			tag == "base_price" || tag == "markup_amount" {
			leaks = append(leaks, t.Name()+"."+field.Name)
		}
		leaks = append(leaks, forbiddenLeaks(field.Type, seen)...)
	}
	return leaks
}

func TestCustomerViewNeverCarriesInternalPricing(t *testing.T) {
	leaks := forbiddenLeaks(reflect.TypeOf(CustomerSnapshot{}), map[reflect.Type]bool{})
	if len(leaks) != 0 {
		t.Fatalf("customer-facing structure leaks internal pricing fields: %v", leaks)
	}
}
