package currency

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/cache"
	"github.com/zikomart/pricing-engine/pkg/config"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type stubRateStore struct {
	rates      []models.ExchangeRate
	currencies map[string]*models.Currency
	listCalls  int
}

func (s *stubRateStore) FindCurrency(ctx context.Context, code string) (*models.Currency, error) {
	if meta, ok := s.currencies[code]; ok {
		return meta, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRateStore) ListRatesAmong(ctx context.Context, codes []string) ([]models.ExchangeRate, error) {
	s.listCalls++
	allowed := map[string]bool{}
	for _, code := range codes {
		allowed[code] = true
	}
	var rows []models.ExchangeRate
	for _, row := range s.rates {
		if allowed[row.FromCurrency] && allowed[row.ToCurrency] {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{DefaultCurrency: "MWK"}
}

func newTestConverter(t *testing.T, store *stubRateStore) Converter {
	t.Helper()

	conv, err := NewConverter(store, cache.NewMemory(), nil, nil, testPricingConfig())
	if err != nil {
		t.Fatalf("new converter: %v", err)
	}
	return conv
}

func TestNewConverterRequiresRepo(t *testing.T) {
	if _, err := NewConverter(nil, cache.NewMemory(), nil, nil, testPricingConfig()); err == nil {
		t.Fatal("expected error creating converter without repo")
	}
}

func TestResolveRateIdentity(t *testing.T) {
	store := &stubRateStore{}
	conv := newTestConverter(t, store)

	res, err := conv.ResolveRate(context.Background(), "usd", "USD")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Source != SourceIdentity || res.Degraded {
		t.Fatalf("expected identity, got %+v", res)
	}
	if store.listCalls != 0 {
		t.Fatalf("identity must not hit the repository, got %d calls", store.listCalls)
	}
}

func TestResolveRateCachesCleanResolutions(t *testing.T) {
	store := &stubRateStore{rates: []models.ExchangeRate{rateRow("USD", "MWK", "4000")}}
	conv := newTestConverter(t, store)

	first, err := conv.ResolveRate(context.Background(), "USD", "MWK")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := conv.ResolveRate(context.Background(), "USD", "MWK")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if store.listCalls != 1 {
		t.Fatalf("expected one repository load, got %d", store.listCalls)
	}
	if !first.Rate.Equal(second.Rate) || first.Source != second.Source {
		t.Fatalf("cached resolution differs: %+v vs %+v", first, second)
	}
}

func TestResolveRateDegradedIsNotCached(t *testing.T) {
	store := &stubRateStore{}
	conv := newTestConverter(t, store)

	res, err := conv.ResolveRate(context.Background(), "USD", "ZAR")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Degraded || res.Source != SourceFallback {
		t.Fatalf("expected degraded fallback, got %+v", res)
	}

	// A rate arriving later must take effect on the very next resolution.
	store.rates = []models.ExchangeRate{rateRow("USD", "ZAR", "17")}
	res, err = conv.ResolveRate(context.Background(), "USD", "ZAR")
	if err != nil {
		t.Fatalf("resolve after rate arrival: %v", err)
	}
	if res.Degraded || res.Source != SourceDirect {
		t.Fatalf("expected direct resolution after rate arrival, got %+v", res)
	}
	if store.listCalls != 2 {
		t.Fatalf("expected two repository loads, got %d", store.listCalls)
	}
}

func TestConvertThroughPivot(t *testing.T) {
	store := &stubRateStore{rates: []models.ExchangeRate{
		rateRow("USD", "MWK", "4000"),
		rateRow("ZAR", "MWK", "240"),
	}}
	conv := newTestConverter(t, store)

	got, res, err := conv.Convert(context.Background(), types.NewMoney(decimal.NewFromInt(100), "USD"), "ZAR")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Source != SourcePivot {
		t.Fatalf("expected pivot path, got %+v", res)
	}
	if got.Currency != "ZAR" || got.Amount.String() != "1666.67" {
		t.Fatalf("expected 1666.67 ZAR, got %s", got)
	}
}

func TestConvertRoundsToCurrencyDecimals(t *testing.T) {
	store := &stubRateStore{
		rates: []models.ExchangeRate{rateRow("USD", "MWK", "4000.5")},
		currencies: map[string]*models.Currency{
			"MWK": {Code: "MWK", Symbol: "MK", DecimalPlaces: 0},
		},
	}
	conv := newTestConverter(t, store)

	got, _, err := conv.Convert(context.Background(), types.NewMoney(decimal.RequireFromString("1.4"), "USD"), "MWK")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	// 1.4 * 4000.5 = 5600.7, rounded to the kwacha's zero decimal places.
	if got.Amount.String() != "5601" {
		t.Fatalf("expected 5601, got %s", got.Amount)
	}
}

func TestFormatSymbolPositions(t *testing.T) {
	store := &stubRateStore{
		currencies: map[string]*models.Currency{
			"MWK": {Code: "MWK", Symbol: "MK", SymbolPosition: enums.SymbolPositionBefore, DecimalPlaces: 2},
			"ZAR": {Code: "ZAR", Symbol: "R", SymbolPosition: enums.SymbolPositionAfter, DecimalPlaces: 2},
		},
	}
	conv := newTestConverter(t, store)

	before, err := conv.Format(context.Background(), types.NewMoney(decimal.RequireFromString("1666.666"), "MWK"))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if before != "MK1666.67" {
		t.Fatalf("expected MK1666.67, got %q", before)
	}

	after, err := conv.Format(context.Background(), types.NewMoney(decimal.NewFromInt(240), "ZAR"))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if after != "240.00R" {
		t.Fatalf("expected 240.00R, got %q", after)
	}
}

func TestFormatUnknownCurrencyFallsBack(t *testing.T) {
	conv := newTestConverter(t, &stubRateStore{})

	got, err := conv.Format(context.Background(), types.NewMoney(decimal.NewFromInt(5), "XXX"))
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got != "5.00 XXX" {
		t.Fatalf("expected fallback rendering, got %q", got)
	}
}
