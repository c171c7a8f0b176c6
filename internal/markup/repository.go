package markup

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/db/models"
)

// Repository reads seller markup schedules. Writes live in the seller
// administration package; this is the resolve-side view.
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

// FindSeller loads the seller row without associations.
func (r *Repository) FindSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// ListSellerBrackets returns the seller's own brackets ascending by range minimum.
func (r *Repository) ListSellerBrackets(ctx context.Context, sellerID uuid.UUID) ([]models.MarkupBracket, error) {
	var rows []models.MarkupBracket
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("min_price ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListTemplateBrackets returns a template's brackets ascending by range minimum.
func (r *Repository) ListTemplateBrackets(ctx context.Context, templateID uuid.UUID) ([]models.TemplateBracket, error) {
	var rows []models.TemplateBracket
	err := r.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("min_price ASC").
		Find(&rows).
		Error
	return rows, err
}
