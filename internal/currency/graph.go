package currency

import (
	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/types"
)

// RateSource names the path a conversion rate was resolved through.
type RateSource string

const (
	SourceIdentity RateSource = "identity"
	SourceDirect   RateSource = "direct"
	SourceInverse  RateSource = "inverse"
	SourcePivot    RateSource = "pivot"
	SourceFallback RateSource = "fallback"
)

// Resolution is the outcome of resolving a currency pair. Degraded marks the
// identity fallback taken when no path exists; callers still get a usable rate.
type Resolution struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Rate     decimal.Decimal `json:"rate"`
	Source   RateSource      `json:"source"`
	Degraded bool            `json:"degraded"`
}

// RateGraph is an immutable view over a set of directed exchange-rate edges.
// The inverse of an edge is not guaranteed to exist.
type RateGraph struct {
	edges map[string]decimal.Decimal
}

// NewRateGraph indexes the given rate rows by currency pair. Later rows win on
// duplicate pairs.
func NewRateGraph(rows []models.ExchangeRate) RateGraph {
	edges := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		from := types.NormalizeCurrency(row.FromCurrency)
		to := types.NormalizeCurrency(row.ToCurrency)
		if from == "" || to == "" {
			continue
		}
		edges[pairKey(from, to)] = row.Rate
	}
	return RateGraph{edges: edges}
}

// Direct returns the stored edge for the exact pair, if any.
func (g RateGraph) Direct(from, to string) (decimal.Decimal, bool) {
	rate, ok := g.edges[pairKey(from, to)]
	return rate, ok
}

// Resolve walks the lookup chain for the pair: identity, direct edge,
// reciprocal of the inverse edge, then a single hop through the pivot
// currency. When every path fails the identity rate is returned flagged
// degraded so the caller can still price.
func (g RateGraph) Resolve(from, to, pivot string) Resolution {
	from = types.NormalizeCurrency(from)
	to = types.NormalizeCurrency(to)
	pivot = types.NormalizeCurrency(pivot)

	if from == to {
		return Resolution{From: from, To: to, Rate: decimal.NewFromInt(1), Source: SourceIdentity}
	}
	if rate, ok := g.Direct(from, to); ok {
		return Resolution{From: from, To: to, Rate: rate, Source: SourceDirect}
	}
	if inverse, ok := g.Direct(to, from); ok && inverse.IsPositive() {
		return Resolution{From: from, To: to, Rate: decimal.NewFromInt(1).Div(inverse), Source: SourceInverse}
	}
	if pivot != "" && pivot != from && pivot != to {
		first, okFirst := g.edge(from, pivot)
		second, okSecond := g.edge(pivot, to)
		if okFirst && okSecond {
			return Resolution{From: from, To: to, Rate: first.Mul(second), Source: SourcePivot}
		}
	}
	return Resolution{From: from, To: to, Rate: decimal.NewFromInt(1), Source: SourceFallback, Degraded: true}
}

// edge resolves a single hop as a direct edge or the reciprocal of its inverse.
func (g RateGraph) edge(from, to string) (decimal.Decimal, bool) {
	if rate, ok := g.Direct(from, to); ok {
		return rate, true
	}
	if inverse, ok := g.Direct(to, from); ok && inverse.IsPositive() {
		return decimal.NewFromInt(1).Div(inverse), true
	}
	return decimal.Decimal{}, false
}

func pairKey(from, to string) string {
	return from + ":" + to
}
