package sellers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/cache"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	zmredis "github.com/zikomart/pricing-engine/pkg/redis"
)

type scheduleStore interface {
	FindSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	ListBrackets(ctx context.Context, sellerID uuid.UUID) ([]models.MarkupBracket, error)
	CreateBracket(ctx context.Context, bracket *models.MarkupBracket) error
	UpdateBracket(ctx context.Context, bracket *models.MarkupBracket) error
	DeleteBracket(ctx context.Context, sellerID, bracketID uuid.UUID) error
	AssignTemplate(ctx context.Context, sellerID uuid.UUID, templateID *uuid.UUID) error
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.MarkupTemplate, error)
}

// BracketInput is one bracket write. Amounts are decimals, so range and sign
// rules are checked here rather than through struct tags.
type BracketInput struct {
	MinPrice     decimal.Decimal `json:"min_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	MarkupAmount decimal.Decimal `json:"markup_amount"`
}

// Admin mutates seller markup schedules. Every successful write invalidates
// the seller's cached bracket table, so resolvers pick the change up on the
// next lookup instead of waiting out the TTL.
type Admin interface {
	CreateBracket(ctx context.Context, sellerID uuid.UUID, input BracketInput) (*models.MarkupBracket, error)
	UpdateBracket(ctx context.Context, sellerID, bracketID uuid.UUID, input BracketInput) (*models.MarkupBracket, error)
	DeleteBracket(ctx context.Context, sellerID, bracketID uuid.UUID) error
	AssignTemplate(ctx context.Context, sellerID uuid.UUID, templateID *uuid.UUID) error
}

type admin struct {
	repo  scheduleStore
	cache cache.Cache
}

// NewAdmin builds the seller schedule write-side service.
func NewAdmin(repo scheduleStore, store cache.Cache) (Admin, error) {
	if repo == nil {
		return nil, fmt.Errorf("seller repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &admin{repo: repo, cache: store}, nil
}

func (a *admin) CreateBracket(ctx context.Context, sellerID uuid.UUID, input BracketInput) (*models.MarkupBracket, error) {
	if err := a.checkWrite(ctx, sellerID, uuid.Nil, input); err != nil {
		return nil, err
	}
	bracket := &models.MarkupBracket{
		ID:           uuid.New(),
		SellerID:     sellerID,
		MinPrice:     input.MinPrice,
		MaxPrice:     input.MaxPrice,
		MarkupAmount: input.MarkupAmount,
	}
	if err := a.repo.CreateBracket(ctx, bracket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bracket")
	}
	return bracket, a.invalidate(ctx, sellerID)
}

func (a *admin) UpdateBracket(ctx context.Context, sellerID, bracketID uuid.UUID, input BracketInput) (*models.MarkupBracket, error) {
	if err := a.checkWrite(ctx, sellerID, bracketID, input); err != nil {
		return nil, err
	}
	bracket := &models.MarkupBracket{
		ID:           bracketID,
		SellerID:     sellerID,
		MinPrice:     input.MinPrice,
		MaxPrice:     input.MaxPrice,
		MarkupAmount: input.MarkupAmount,
	}
	if err := a.repo.UpdateBracket(ctx, bracket); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bracket")
	}
	return bracket, a.invalidate(ctx, sellerID)
}

func (a *admin) DeleteBracket(ctx context.Context, sellerID, bracketID uuid.UUID) error {
	if err := a.repo.DeleteBracket(ctx, sellerID, bracketID); err != nil {
		return err
	}
	return a.invalidate(ctx, sellerID)
}

// AssignTemplate attaches a markup template to the seller. While attached,
// the template's brackets shadow the seller's own.
func (a *admin) AssignTemplate(ctx context.Context, sellerID uuid.UUID, templateID *uuid.UUID) error {
	if templateID != nil {
		if _, err := a.repo.FindTemplate(ctx, *templateID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load template")
		}
	}
	if err := a.repo.AssignTemplate(ctx, sellerID, templateID); err != nil {
		return err
	}
	return a.invalidate(ctx, sellerID)
}

// checkWrite validates the range and rejects overlap with the seller's other
// brackets. Resolution stays tolerant of bad stored data; writes do not.
func (a *admin) checkWrite(ctx context.Context, sellerID, bracketID uuid.UUID, input BracketInput) error {
	if input.MinPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum price cannot be negative")
	}
	if !input.MaxPrice.GreaterThanOrEqual(input.MinPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "maximum price must not be below the minimum")
	}
	if input.MarkupAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "markup amount cannot be negative")
	}

	if _, err := a.repo.FindSeller(ctx, sellerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}

	existing, err := a.repo.ListBrackets(ctx, sellerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brackets")
	}
	for _, other := range existing {
		if other.ID == bracketID {
			continue
		}
		if input.MinPrice.LessThanOrEqual(other.MaxPrice) && other.MinPrice.LessThanOrEqual(input.MaxPrice) {
			return pkgerrors.New(pkgerrors.CodeValidation, "bracket range overlaps an existing bracket").
				WithDetails(map[string]string{
					"conflicting_bracket": other.ID.String(),
					"min":                 other.MinPrice.String(),
					"max":                 other.MaxPrice.String(),
				})
		}
	}
	return nil
}

func (a *admin) invalidate(ctx context.Context, sellerID uuid.UUID) error {
	if err := a.cache.Invalidate(ctx, zmredis.BracketKey(sellerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate bracket cache")
	}
	return nil
}
