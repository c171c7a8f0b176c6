package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/internal/promotions"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type stubPromoEngine struct {
	discount *promotions.Discount
}

func (s stubPromoEngine) BestDiscount(ctx context.Context, product *models.Product, displayPrice types.Money) (*promotions.Discount, error) {
	return s.discount, nil
}

func TestListingPriceWithPromotion(t *testing.T) {
	calc := newTestCalculator(t, stubMarkups{markup: decimal.NewFromInt(50)}, identityConverter())
	discount := &promotions.Discount{
		Name:            "March Sale",
		Amount:          types.NewMoney(decimal.NewFromInt(15), "MWK"),
		DiscountedPrice: types.NewMoney(decimal.NewFromInt(135), "MWK"),
		Percentage:      decimal.NewFromInt(10),
	}
	svc, err := NewLister(calc, stubPromoEngine{discount: discount})
	if err != nil {
		t.Fatalf("new lister: %v", err)
	}

	listing, err := svc.ListingPrice(context.Background(), baseProduct("100"), "MWK")
	if err != nil {
		t.Fatalf("listing price: %v", err)
	}
	if listing.Price.Amount.String() != "135" {
		t.Fatalf("expected the discounted price, got %s", listing.Price.Amount)
	}
	if listing.ComparePrice == nil || listing.ComparePrice.Amount.String() != "150" {
		t.Fatalf("expected compare price 150, got %+v", listing.ComparePrice)
	}
	if listing.PromotionName == nil || *listing.PromotionName != "March Sale" {
		t.Fatalf("expected the promotion name, got %+v", listing.PromotionName)
	}
	if listing.DiscountPercentage == nil || listing.DiscountPercentage.String() != "10" {
		t.Fatalf("expected 10 percent, got %+v", listing.DiscountPercentage)
	}
}

func TestListingPriceWithoutPromotionUsesCompareAt(t *testing.T) {
	calc := newTestCalculator(t, stubMarkups{markup: decimal.NewFromInt(50)}, identityConverter())
	svc, err := NewLister(calc, stubPromoEngine{})
	if err != nil {
		t.Fatalf("new lister: %v", err)
	}

	product := baseProduct("100")
	compare := decimal.RequireFromString("200")
	product.CompareAtBasePrice = &compare

	listing, err := svc.ListingPrice(context.Background(), product, "MWK")
	if err != nil {
		t.Fatalf("listing price: %v", err)
	}
	if listing.Price.Amount.String() != "150" {
		t.Fatalf("expected 150, got %s", listing.Price.Amount)
	}
	// Compare-at 200*1.5=300; discount (300-150)/300 = 50%.
	if listing.ComparePrice == nil || listing.ComparePrice.Amount.String() != "300" {
		t.Fatalf("expected compare price 300, got %+v", listing.ComparePrice)
	}
	if listing.DiscountPercentage == nil || listing.DiscountPercentage.String() != "50" {
		t.Fatalf("expected 50 percent, got %+v", listing.DiscountPercentage)
	}
}

func TestListingPricePlain(t *testing.T) {
	calc := newTestCalculator(t, stubMarkups{markup: decimal.NewFromInt(50)}, identityConverter())
	svc, err := NewLister(calc, stubPromoEngine{})
	if err != nil {
		t.Fatalf("new lister: %v", err)
	}

	listing, err := svc.ListingPrice(context.Background(), baseProduct("100"), "MWK")
	if err != nil {
		t.Fatalf("listing price: %v", err)
	}
	if listing.ComparePrice != nil || listing.DiscountPercentage != nil || listing.PromotionName != nil {
		t.Fatalf("expected a plain price, got %+v", listing)
	}
}
