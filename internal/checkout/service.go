package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/internal/cart"
	"github.com/zikomart/pricing-engine/internal/cartpricing"
	"github.com/zikomart/pricing-engine/internal/catalog"
	"github.com/zikomart/pricing-engine/internal/coupons"
	"github.com/zikomart/pricing-engine/internal/orders"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type totalsComputer interface {
	ComputeTotals(ctx context.Context, record *models.CartRecord) (*cartpricing.CartTotals, error)
}

// Input identifies the cart being converted and the buyer converting it.
type Input struct {
	CartID uuid.UUID
	UserID uuid.UUID
}

// Service turns a priced cart into an immutable order.
type Service interface {
	Execute(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	tx      txRunner
	carts   *cart.Repository
	catalog *catalog.Repository
	coupons *coupons.Repository
	orders  *orders.Repository
	totals  totalsComputer
	logg    *logger.Logger
}

// NewService builds a checkout service over the provided repositories.
func NewService(
	tx txRunner,
	carts *cart.Repository,
	catalogRepo *catalog.Repository,
	couponRepo *coupons.Repository,
	orderRepo *orders.Repository,
	totals totalsComputer,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if couponRepo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if totals == nil {
		return nil, fmt.Errorf("totals computer required")
	}
	return &service{
		tx:      tx,
		carts:   carts,
		catalog: catalogRepo,
		coupons: couponRepo,
		orders:  orderRepo,
		totals:  totals,
		logg:    logg,
	}, nil
}

// Execute prices the cart one final time, then freezes it into an order in a
// single transaction: stock decrement, order + item creation, coupon usage
// recording and cart conversion commit or roll back together. After the
// commit, catalog or rate changes never touch the order.
func (s *service) Execute(ctx context.Context, input Input) (*models.Order, error) {
	if input.CartID == uuid.Nil || input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id and user id are required")
	}

	record, err := s.carts.FindByID(ctx, input.CartID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if record.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart has already been checked out")
	}
	if record.UserID != nil && *record.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another user")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	// Anonymous carts are adopted by the checking-out user so coupon
	// per-user limits apply from here on.
	if record.UserID == nil {
		record.UserID = &input.UserID
	}

	totals, err := s.totals.ComputeTotals(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := s.rejectIfUnfreezable(totals); err != nil {
		return nil, err
	}

	order := buildOrder(input, totals)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogTx := s.catalog.WithTx(tx)
		for _, line := range totals.Lines {
			if line.VariantID != nil {
				if err := catalogTx.DecrementVariantStock(ctx, *line.VariantID, line.Quantity); err != nil {
					return err
				}
			} else if err := catalogTx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if totals.Coupon != nil {
			couponTx := s.coupons.WithTx(tx)
			if err := couponTx.IncrementUsage(ctx, totals.Coupon.ID); err != nil {
				return err
			}
			usage := &models.CouponUsage{
				ID:             uuid.New(),
				CouponID:       totals.Coupon.ID,
				UserID:         input.UserID,
				OrderID:        order.ID,
				DiscountAmount: totals.CouponDiscount.Amount,
				Currency:       totals.Currency,
			}
			if err := couponTx.RecordUsage(ctx, usage); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon usage")
			}
		}

		return s.carts.WithTx(tx).UpdateStatus(ctx, record.ID, enums.CartStatusConverted)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithCartID(ctx, record.ID.String()), fmt.Sprintf("order %s placed for %s %s", order.ID, order.TotalAmount, order.Currency))
	}
	return order, nil
}

// rejectIfUnfreezable applies the hard rules that distinguish checkout from
// cart rendering: rendering degrades, checkout refuses.
func (s *service) rejectIfUnfreezable(totals *cartpricing.CartTotals) error {
	var unavailable []string
	for _, line := range totals.Lines {
		if line.Unavailable {
			unavailable = append(unavailable, line.LineID.String())
		}
	}
	if len(unavailable) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart contains unavailable items").
			WithDetails(map[string][]string{"line_ids": unavailable})
	}
	if totals.CouponRejection != "" {
		return pkgerrors.New(pkgerrors.CodeCouponInvalid, totals.CouponRejection)
	}
	return nil
}

func buildOrder(input Input, totals *cartpricing.CartTotals) *models.Order {
	order := &models.Order{
		ID:                uuid.New(),
		UserID:            input.UserID,
		CartID:            totals.CartID,
		Currency:          totals.Currency,
		SubtotalAmount:    totals.Subtotal.Amount,
		PromotionDiscount: totals.PromotionDiscount.Amount,
		CouponDiscount:    totals.CouponDiscount.Amount,
		ShippingAmount:    totals.Shipping.Amount,
		TaxAmount:         totals.Tax.Amount,
		TotalAmount:       totals.Total.Amount,
		Status:            enums.OrderStatusPending,
	}
	if totals.Coupon != nil {
		couponID := totals.Coupon.ID
		order.CouponID = &couponID
	}
	for _, line := range totals.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:                uuid.New(),
			OrderID:           order.ID,
			ProductID:         line.ProductID,
			VariantID:         line.VariantID,
			SellerID:          line.SellerID,
			Title:             line.Title,
			Quantity:          line.Quantity,
			BasePrice:         line.BasePrice.Amount,
			MarkupAmount:      line.MarkupAmount.Amount,
			DisplayPrice:      line.UnitPrice.Amount,
			PromotionDiscount: line.PromotionDiscount.Amount,
			CouponDiscount:    line.CouponDiscount.Amount,
			LineTotal:         line.LineTotal.Amount,
			Currency:          totals.Currency,
		})
	}
	return order
}
