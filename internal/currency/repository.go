package currency

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/types"
)

// Repository persists currencies and exchange-rate edges.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindCurrency loads currency metadata by code.
func (r *Repository) FindCurrency(ctx context.Context, code string) (*models.Currency, error) {
	var row models.Currency
	if err := r.db.WithContext(ctx).First(&row, "code = ?", types.NormalizeCurrency(code)).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListCurrencies returns every active currency ordered by code.
func (r *Repository) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	var rows []models.Currency
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&rows).
		Error
	return rows, err
}

// FindRate loads the directed edge for the exact pair.
func (r *Repository) FindRate(ctx context.Context, from, to string) (*models.ExchangeRate, error) {
	var row models.ExchangeRate
	err := r.db.WithContext(ctx).
		First(&row, "from_currency = ? AND to_currency = ?", types.NormalizeCurrency(from), types.NormalizeCurrency(to)).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListRatesAmong returns every edge whose endpoints both fall in codes. That
// covers the direct, inverse, and single-pivot paths for one pair in one query.
func (r *Repository) ListRatesAmong(ctx context.Context, codes []string) ([]models.ExchangeRate, error) {
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		if code := types.NormalizeCurrency(code); code != "" {
			normalized = append(normalized, code)
		}
	}
	var rows []models.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("from_currency IN ? AND to_currency IN ?", normalized, normalized).
		Find(&rows).
		Error
	return rows, err
}

// UpsertRate inserts or updates the edge for the pair.
func (r *Repository) UpsertRate(ctx context.Context, rate *models.ExchangeRate) (*models.ExchangeRate, error) {
	rate.FromCurrency = types.NormalizeCurrency(rate.FromCurrency)
	rate.ToCurrency = types.NormalizeCurrency(rate.ToCurrency)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_currency"}, {Name: "to_currency"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
		}).
		Create(rate).
		Error
	if err != nil {
		return nil, err
	}
	return rate, nil
}
