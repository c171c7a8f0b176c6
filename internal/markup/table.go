package markup

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/zikomart/pricing-engine/pkg/db/models"
)

// BracketRow maps an inclusive base-price range to a flat markup amount.
type BracketRow struct {
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Markup decimal.Decimal `json:"markup"`
}

// BracketTable is an immutable, ascending-ordered view over a seller's markup
// schedule. Ranges are non-overlapping by convention; an overlapping table
// still resolves deterministically to the first match in ascending min order.
type BracketTable struct {
	Currency string       `json:"currency"`
	Rows     []BracketRow `json:"rows"`
}

// NewBracketTable sorts the rows ascending by range minimum.
func NewBracketTable(currency string, rows []BracketRow) BracketTable {
	sorted := make([]BracketRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Min.LessThan(sorted[j].Min)
	})
	return BracketTable{Currency: currency, Rows: sorted}
}

// TableFromSellerBrackets builds a table from a seller's own bracket rows.
func TableFromSellerBrackets(currency string, brackets []models.MarkupBracket) BracketTable {
	rows := make([]BracketRow, 0, len(brackets))
	for _, bracket := range brackets {
		rows = append(rows, BracketRow{Min: bracket.MinPrice, Max: bracket.MaxPrice, Markup: bracket.MarkupAmount})
	}
	return NewBracketTable(currency, rows)
}

// TableFromTemplateBrackets builds a table from an assigned template's rows.
func TableFromTemplateBrackets(currency string, brackets []models.TemplateBracket) BracketTable {
	rows := make([]BracketRow, 0, len(brackets))
	for _, bracket := range brackets {
		rows = append(rows, BracketRow{Min: bracket.MinPrice, Max: bracket.MaxPrice, Markup: bracket.MarkupAmount})
	}
	return NewBracketTable(currency, rows)
}

// Lookup returns the markup of the first row satisfying min <= base <= max.
func (t BracketTable) Lookup(base decimal.Decimal) (decimal.Decimal, bool) {
	for _, row := range t.Rows {
		if base.GreaterThanOrEqual(row.Min) && base.LessThanOrEqual(row.Max) {
			return row.Markup, true
		}
	}
	return decimal.Zero, false
}

// IsEmpty reports whether the table has no configured rows.
func (t BracketTable) IsEmpty() bool {
	return len(t.Rows) == 0
}
