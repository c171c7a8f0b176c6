package currency

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/db/models"
)

func rateRow(from, to, rate string) models.ExchangeRate {
	return models.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         decimal.RequireFromString(rate),
	}
}

func TestRateGraphIdentity(t *testing.T) {
	t.Parallel()

	res := NewRateGraph(nil).Resolve("usd", "USD", "MWK")
	if res.Source != SourceIdentity || res.Degraded {
		t.Fatalf("expected identity resolution, got %+v", res)
	}
	if !res.Rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected rate 1, got %s", res.Rate)
	}
}

func TestRateGraphDirect(t *testing.T) {
	t.Parallel()

	graph := NewRateGraph([]models.ExchangeRate{rateRow("USD", "MWK", "4000")})
	res := graph.Resolve("USD", "MWK", "MWK")
	if res.Source != SourceDirect || res.Degraded {
		t.Fatalf("expected direct resolution, got %+v", res)
	}
	if !res.Rate.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("expected rate 4000, got %s", res.Rate)
	}
}

func TestRateGraphInverse(t *testing.T) {
	t.Parallel()

	graph := NewRateGraph([]models.ExchangeRate{rateRow("USD", "MWK", "4000")})
	res := graph.Resolve("MWK", "USD", "MWK")
	if res.Source != SourceInverse || res.Degraded {
		t.Fatalf("expected inverse resolution, got %+v", res)
	}
	if !res.Rate.Equal(decimal.NewFromInt(1).Div(decimal.NewFromInt(4000))) {
		t.Fatalf("unexpected inverse rate %s", res.Rate)
	}
}

func TestRateGraphInverseSkipsZeroRate(t *testing.T) {
	t.Parallel()

	graph := NewRateGraph([]models.ExchangeRate{rateRow("USD", "MWK", "0")})
	res := graph.Resolve("MWK", "USD", "")
	if res.Source != SourceFallback || !res.Degraded {
		t.Fatalf("expected degraded fallback over a zero inverse, got %+v", res)
	}
}

func TestRateGraphPivot(t *testing.T) {
	t.Parallel()

	graph := NewRateGraph([]models.ExchangeRate{
		rateRow("USD", "MWK", "4000"),
		rateRow("ZAR", "MWK", "240"),
	})
	res := graph.Resolve("USD", "ZAR", "MWK")
	if res.Source != SourcePivot || res.Degraded {
		t.Fatalf("expected pivot resolution, got %+v", res)
	}
	// 100 USD through the MWK pivot lands on 1666.67 ZAR.
	got := decimal.NewFromInt(100).Mul(res.Rate).Round(2)
	if got.String() != "1666.67" {
		t.Fatalf("expected 1666.67, got %s", got)
	}
}

func TestRateGraphFallback(t *testing.T) {
	t.Parallel()

	graph := NewRateGraph([]models.ExchangeRate{rateRow("EUR", "GBP", "0.85")})
	res := graph.Resolve("USD", "ZAR", "MWK")
	if res.Source != SourceFallback || !res.Degraded {
		t.Fatalf("expected degraded fallback, got %+v", res)
	}
	if !res.Rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected identity rate on fallback, got %s", res.Rate)
	}
}

func TestRateGraphDirectWinsOverPivot(t *testing.T) {
	t.Parallel()

	graph := NewRateGraph([]models.ExchangeRate{
		rateRow("USD", "ZAR", "17"),
		rateRow("USD", "MWK", "4000"),
		rateRow("ZAR", "MWK", "240"),
	})
	res := graph.Resolve("USD", "ZAR", "MWK")
	if res.Source != SourceDirect {
		t.Fatalf("expected the direct edge to win, got %+v", res)
	}
	if !res.Rate.Equal(decimal.NewFromInt(17)) {
		t.Fatalf("expected rate 17, got %s", res.Rate)
	}
}
