package sellers

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

func setupSellerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS sellers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  schedule_currency TEXT NOT NULL DEFAULT 'MWK',
  template_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS markup_brackets (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  min_price NUMERIC NOT NULL,
  max_price NUMERIC NOT NULL,
  markup_amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS markup_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  currency TEXT NOT NULL DEFAULT 'MWK',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS template_brackets (
  id TEXT PRIMARY KEY,
  template_id TEXT NOT NULL,
  min_price NUMERIC NOT NULL,
  max_price NUMERIC NOT NULL,
  markup_amount NUMERIC NOT NULL,
  created_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedSellerRow(t *testing.T, db *gorm.DB) *models.Seller {
	t.Helper()

	seller := &models.Seller{ID: uuid.New(), Name: "Mzuzu Traders", ScheduleCurrency: "MWK", IsActive: true}
	require.NoError(t, db.Create(seller).Error)
	return seller
}

func TestRepositoryBracketLifecycle(t *testing.T) {
	db := setupSellerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSellerRow(t, db)

	high := &models.MarkupBracket{
		ID:           uuid.New(),
		SellerID:     seller.ID,
		MinPrice:     decimal.RequireFromString("100.01"),
		MaxPrice:     decimal.RequireFromString("500"),
		MarkupAmount: decimal.RequireFromString("100"),
	}
	low := &models.MarkupBracket{
		ID:           uuid.New(),
		SellerID:     seller.ID,
		MinPrice:     decimal.Zero,
		MaxPrice:     decimal.RequireFromString("100"),
		MarkupAmount: decimal.RequireFromString("50"),
	}
	require.NoError(t, repo.CreateBracket(ctx, high))
	require.NoError(t, repo.CreateBracket(ctx, low))

	rows, err := repo.ListBrackets(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, low.ID, rows[0].ID, "brackets must come back ascending by minimum")

	low.MarkupAmount = decimal.RequireFromString("60")
	require.NoError(t, repo.UpdateBracket(ctx, low))

	require.Error(t, repo.DeleteBracket(ctx, uuid.New(), low.ID), "foreign seller cannot delete")
	require.NoError(t, repo.DeleteBracket(ctx, seller.ID, low.ID))

	rows, err = repo.ListBrackets(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRepositoryAssignTemplate(t *testing.T) {
	db := setupSellerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSellerRow(t, db)
	template := &models.MarkupTemplate{
		ID:       uuid.New(),
		Name:     "standard",
		Currency: "MWK",
		Brackets: []models.TemplateBracket{
			{ID: uuid.New(), MinPrice: decimal.Zero, MaxPrice: decimal.RequireFromString("100"), MarkupAmount: decimal.RequireFromString("40")},
		},
	}
	require.NoError(t, repo.CreateTemplate(ctx, template))

	require.NoError(t, repo.AssignTemplate(ctx, seller.ID, &template.ID))
	reloaded, err := repo.FindSeller(ctx, seller.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.TemplateID)
	assert.Equal(t, template.ID, *reloaded.TemplateID)

	loaded, err := repo.FindTemplate(ctx, template.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Brackets, 1)

	require.NoError(t, repo.AssignTemplate(ctx, seller.ID, nil))
	reloaded, err = repo.FindSeller(ctx, seller.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.TemplateID)

	require.Error(t, repo.AssignTemplate(ctx, uuid.New(), nil))
}
