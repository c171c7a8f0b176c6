package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/internal/coupons"
	"github.com/zikomart/pricing-engine/pkg/config"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/types"
	"github.com/zikomart/pricing-engine/pkg/validate"
)

type cartStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartRecord, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	FindActiveByToken(ctx context.Context, token string) (*models.CartRecord, error)
	Create(ctx context.Context, record *models.CartRecord) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
	SetCoupon(ctx context.Context, cartID uuid.UUID, code *string) error
	FindItem(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
}

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, lines []coupons.Line, userID *uuid.UUID) (*models.Coupon, error)
}

// Identity names the cart owner: a signed-in user or an anonymous token.
// Exactly one side must be set.
type Identity struct {
	UserID    *uuid.UUID
	AnonToken *string
}

// AddItemInput is the payload for adding a line to a cart.
type AddItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

// Service owns cart lifecycle and line mutations. Prices are never computed
// here; lines carry at most an advisory snapshot refreshed by the aggregator.
type Service interface {
	GetOrCreate(ctx context.Context, identity Identity) (*models.CartRecord, error)
	Get(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*models.CartRecord, error)
	UpdateQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartRecord, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
	ApplyCoupon(ctx context.Context, cartID uuid.UUID, code string) (*models.CartRecord, error)
	RemoveCoupon(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	repo      cartStore
	products  productLoader
	couponEng couponValidator
	cfg       config.PricingConfig
	nowFn     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo cartStore, products productLoader, couponEng couponValidator, cfg config.PricingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if couponEng == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	return &service{
		repo:      repo,
		products:  products,
		couponEng: couponEng,
		cfg:       cfg,
		nowFn:     time.Now,
	}, nil
}

// GetOrCreate resolves the owner's active cart, creating one when none exists.
// Anonymous carts expire after the configured token TTL; an expired cart is
// abandoned and replaced rather than resurrected.
func (s *service) GetOrCreate(ctx context.Context, identity Identity) (*models.CartRecord, error) {
	if (identity.UserID == nil) == (identity.AnonToken == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of user id or anonymous token is required")
	}

	var record *models.CartRecord
	var err error
	if identity.UserID != nil {
		record, err = s.repo.FindActiveByUser(ctx, *identity.UserID)
	} else {
		record, err = s.repo.FindActiveByToken(ctx, *identity.AnonToken)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if record != nil {
		if record.ExpiresAt == nil || s.nowFn().Before(*record.ExpiresAt) {
			return record, nil
		}
		if err := s.repo.UpdateStatus(ctx, record.ID, enums.CartStatusAbandoned); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon expired cart")
		}
	}

	fresh := &models.CartRecord{
		ID:       uuid.New(),
		UserID:   identity.UserID,
		Currency: s.cfg.NormalizedDefaultCurrency(),
		Status:   enums.CartStatusActive,
	}
	if identity.AnonToken != nil {
		fresh.AnonToken = identity.AnonToken
		expires := s.nowFn().Add(s.cfg.CartTokenTTL)
		fresh.ExpiresAt = &expires
	}
	if err := s.repo.Create(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return fresh, nil
}

func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	return s.loadActive(ctx, cartID)
}

// AddItem appends a line, merging the quantity into an existing line for the
// same product/variant pair instead of duplicating it.
func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*models.CartRecord, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	record, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindProduct(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if input.VariantID != nil && !hasVariant(product, *input.VariantID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	existing, err := s.repo.FindItem(ctx, record.ID, input.ProductID, input.VariantID)
	switch {
	case err == nil:
		existing.Quantity += input.Quantity
		if err := s.repo.SaveItem(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    record.ID,
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Quantity:  input.Quantity,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart item")
	}
	return s.reload(ctx, record.ID)
}

func (s *service) UpdateQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*models.CartRecord, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	record, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil || item.CartID != record.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	item.Quantity = quantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.reload(ctx, record.ID)
}

func (s *service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, record.ID, itemID); err != nil {
		return nil, err
	}
	return s.reload(ctx, record.ID)
}

// Clear empties the cart and drops any applied coupon with it.
func (s *service) Clear(ctx context.Context, cartID uuid.UUID) error {
	record, err := s.loadActive(ctx, cartID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return s.repo.SetCoupon(ctx, record.ID, nil)
}

// ApplyCoupon runs the coupon through eligibility checks against the current
// cart contents before pinning the code. The full money check happens again
// at pricing time and at checkout.
func (s *service) ApplyCoupon(ctx context.Context, cartID uuid.UUID, code string) (*models.CartRecord, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	record, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}

	lines := s.couponLines(ctx, record)
	coupon, err := s.couponEng.Validate(ctx, code, lines, record.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCoupon(ctx, record.ID, &coupon.Code); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply coupon")
	}
	return s.reload(ctx, record.ID)
}

func (s *service) RemoveCoupon(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCoupon(ctx, record.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove coupon")
	}
	return s.reload(ctx, record.ID)
}

func (s *service) loadActive(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if record.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is no longer active")
	}
	return record, nil
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return record, nil
}

// couponLines builds the coupon engine's view of the cart from the stored
// price snapshots. Lines without a product or a snapshot still count for
// scope matching but contribute nothing to the raw value.
func (s *service) couponLines(ctx context.Context, record *models.CartRecord) []coupons.Line {
	lines := make([]coupons.Line, 0, len(record.Items))
	for _, item := range record.Items {
		line := coupons.Line{
			LineID:   item.ID,
			Quantity: item.Quantity,
		}
		if product, err := s.products.FindProduct(ctx, item.ProductID); err == nil && product.IsActive {
			line.Product = product
		}
		currency := record.Currency
		if item.SnapshotCurrency != nil {
			currency = *item.SnapshotCurrency
		}
		if item.UnitPriceSnapshot != nil {
			line.UnitPrice = types.NewMoney(*item.UnitPriceSnapshot, currency)
			line.LineTotal = types.NewMoney(item.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(item.Quantity))), currency)
		} else {
			line.UnitPrice = types.Zero(currency)
			line.LineTotal = types.Zero(currency)
		}
		lines = append(lines, line)
	}
	return lines
}

func hasVariant(product *models.Product, variantID uuid.UUID) bool {
	for _, variant := range product.Variants {
		if variant.ID == variantID {
			return true
		}
	}
	return false
}
