package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
)

// Repository is the write side of seller markup schedules.
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

// FindSeller loads the seller row.
func (r *Repository) FindSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// ListBrackets returns the seller's brackets ascending by range minimum.
func (r *Repository) ListBrackets(ctx context.Context, sellerID uuid.UUID) ([]models.MarkupBracket, error) {
	var rows []models.MarkupBracket
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("min_price ASC").
		Find(&rows).
		Error
	return rows, err
}

// CreateBracket inserts a bracket row.
func (r *Repository) CreateBracket(ctx context.Context, bracket *models.MarkupBracket) error {
	return r.db.WithContext(ctx).Create(bracket).Error
}

// UpdateBracket persists changes to an existing bracket.
func (r *Repository) UpdateBracket(ctx context.Context, bracket *models.MarkupBracket) error {
	return r.db.WithContext(ctx).Save(bracket).Error
}

// DeleteBracket removes one bracket, scoped to the seller.
func (r *Repository) DeleteBracket(ctx context.Context, sellerID, bracketID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("seller_id = ? AND id = ?", sellerID, bracketID).
		Delete(&models.MarkupBracket{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "delete bracket")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "bracket not found")
	}
	return nil
}

// AssignTemplate points the seller at a markup template, or detaches it with nil.
func (r *Repository) AssignTemplate(ctx context.Context, sellerID uuid.UUID, templateID *uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ?", sellerID).
		Update("template_id", templateID)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "assign template")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
	}
	return nil
}

// FindTemplate loads a markup template with its brackets.
func (r *Repository) FindTemplate(ctx context.Context, id uuid.UUID) (*models.MarkupTemplate, error) {
	var template models.MarkupTemplate
	err := r.db.WithContext(ctx).
		Preload("Brackets").
		First(&template, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// CreateTemplate inserts a template together with its brackets.
func (r *Repository) CreateTemplate(ctx context.Context, template *models.MarkupTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}
