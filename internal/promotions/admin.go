package promotions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/cache"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	zmredis "github.com/zikomart/pricing-engine/pkg/redis"
	"github.com/zikomart/pricing-engine/pkg/validate"
)

type promotionWriter interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpsertPromotionInput captures a promotion write from admin tooling.
type UpsertPromotionInput struct {
	Name          string          `json:"name" validate:"required"`
	Type          string          `json:"type" validate:"required,oneof=seller system"`
	SellerID      *uuid.UUID      `json:"seller_id"`
	DiscountType  string          `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Scope         string          `json:"scope" validate:"required,oneof=all category tag brand"`
	ScopeRef      *string         `json:"scope_ref"`
	StartDate     time.Time       `json:"start_date" validate:"required"`
	EndDate       time.Time       `json:"end_date" validate:"required"`
	Priority      int             `json:"priority"`
	IsActive      bool            `json:"is_active"`
}

// Admin mutates promotions and keeps the engine's cached active set fresh.
type Admin interface {
	Create(ctx context.Context, input UpsertPromotionInput) (*models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertPromotionInput) (*models.Promotion, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type admin struct {
	repo  promotionWriter
	cache cache.Cache
}

// NewAdmin builds the promotion write-side service.
func NewAdmin(repo promotionWriter, store cache.Cache) (Admin, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &admin{repo: repo, cache: store}, nil
}

func (a *admin) Create(ctx context.Context, input UpsertPromotionInput) (*models.Promotion, error) {
	promo, err := a.buildRow(input)
	if err != nil {
		return nil, err
	}
	created, err := a.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return created, a.invalidate(ctx)
}

func (a *admin) Update(ctx context.Context, id uuid.UUID, input UpsertPromotionInput) (*models.Promotion, error) {
	existing, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	promo, err := a.buildRow(input)
	if err != nil {
		return nil, err
	}
	promo.ID = existing.ID
	promo.CreatedAt = existing.CreatedAt
	updated, err := a.repo.Update(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}
	return updated, a.invalidate(ctx)
}

func (a *admin) Delete(ctx context.Context, id uuid.UUID) error {
	if err := a.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	return a.invalidate(ctx)
}

func (a *admin) buildRow(input UpsertPromotionInput) (*models.Promotion, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must follow start date")
	}
	scope := enums.PromotionScope(input.Scope)
	if scope != enums.PromotionScopeAll && (input.ScopeRef == nil || *input.ScopeRef == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scope reference required for scoped promotions")
	}
	promoType := enums.PromotionType(input.Type)
	if promoType == enums.PromotionTypeSeller && input.SellerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller promotions require a seller")
	}
	return &models.Promotion{
		Name:          input.Name,
		Type:          promoType,
		SellerID:      input.SellerID,
		DiscountType:  enums.DiscountType(input.DiscountType),
		DiscountValue: input.DiscountValue,
		Scope:         scope,
		ScopeRef:      input.ScopeRef,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Priority:      input.Priority,
		IsActive:      input.IsActive,
	}, nil
}

func (a *admin) invalidate(ctx context.Context) error {
	if err := a.cache.Invalidate(ctx, zmredis.PromoKey()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate promotion cache")
	}
	return nil
}
