package markup

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/db/models"
)

func setupMarkupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sellers := `
CREATE TABLE IF NOT EXISTS sellers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  schedule_currency TEXT NOT NULL DEFAULT 'MWK',
  template_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	brackets := `
CREATE TABLE IF NOT EXISTS markup_brackets (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  min_price NUMERIC NOT NULL,
  max_price NUMERIC NOT NULL,
  markup_amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	templateBrackets := `
CREATE TABLE IF NOT EXISTS template_brackets (
  id TEXT PRIMARY KEY,
  template_id TEXT NOT NULL,
  min_price NUMERIC NOT NULL,
  max_price NUMERIC NOT NULL,
  markup_amount NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(sellers).Error)
	require.NoError(t, db.Exec(brackets).Error)
	require.NoError(t, db.Exec(templateBrackets).Error)
	return db
}

func TestRepositoryListSellerBracketsOrdersByMin(t *testing.T) {
	db := setupMarkupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := &models.Seller{ID: uuid.New(), Name: "Chikondi Traders", ScheduleCurrency: "MWK", IsActive: true}
	require.NoError(t, db.Create(seller).Error)

	for _, spec := range [][3]string{
		{"100.01", "500", "100"},
		{"0", "100", "50"},
	} {
		row := bracket(seller.ID, spec[0], spec[1], spec[2])
		require.NoError(t, db.Create(&row).Error)
	}

	rows, err := repo.ListSellerBrackets(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].MinPrice.LessThan(rows[1].MinPrice))
	assert.True(t, rows[0].MarkupAmount.Equal(decimal.NewFromInt(50)))
}

func TestRepositoryFindSellerMiss(t *testing.T) {
	db := setupMarkupTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindSeller(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListTemplateBrackets(t *testing.T) {
	db := setupMarkupTestDB(t)
	repo := NewRepository(db)
	templateID := uuid.New()

	for _, spec := range [][3]string{
		{"500.01", "2000", "250"},
		{"0", "500", "120"},
	} {
		row := models.TemplateBracket{
			ID:           uuid.New(),
			TemplateID:   templateID,
			MinPrice:     decimal.RequireFromString(spec[0]),
			MaxPrice:     decimal.RequireFromString(spec[1]),
			MarkupAmount: decimal.RequireFromString(spec[2]),
		}
		require.NoError(t, db.Create(&row).Error)
	}

	rows, err := repo.ListTemplateBrackets(context.Background(), templateID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].MarkupAmount.Equal(decimal.NewFromInt(120)))
}
