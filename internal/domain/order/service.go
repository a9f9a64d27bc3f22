// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/supplement-store-backend/internal/config"
	"github.com/your-org/supplement-store-backend/internal/domain/checkout"
	"github.com/your-org/supplement-store-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound = apperrors.NotFound("Order not found")
	ErrAlreadyPaid   = apperrors.BadRequest("Order is already paid")
)

// SummaryBuilder prices the cart into the summary an order snapshots
type SummaryBuilder interface {
	BuildSummary(ctx context.Context, userID uint, req *checkout.PlanSelectionRequest) (*checkout.Summary, error)
}

// UsageTracker records coupon redemptions after payment confirmation
type UsageTracker interface {
	TrackUsage(ctx context.Context, couponID, orderID, userID uint) error
}

// CartClearer empties the cart once its lines became an order
type CartClearer interface {
	ClearCart(ctx context.Context, userID uint) error
}

// Service places orders from checkout summaries and confirms payments
type Service struct {
	db      *gorm.DB
	summary SummaryBuilder
	coupons UsageTracker
	carts   CartClearer
	config  *config.Config
	logger  *logrus.Logger
}

// NewService creates an order service
func NewService(db *gorm.DB, summary SummaryBuilder, coupons UsageTracker, carts CartClearer, cfg *config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		db:      db,
		summary: summary,
		coupons: coupons,
		carts:   carts,
		config:  cfg,
		logger:  logger,
	}
}

// PlaceOrder builds the summary for the selection and snapshots it into a
// pending order. The cart is cleared after the snapshot is persisted.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, req *checkout.PlanSelectionRequest) (*Order, error) {
	summary, err := s.summary.BuildSummary(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if len(summary.Lines) == 0 {
		return nil, checkout.ErrNoValidProducts
	}

	o := &Order{
		OrderNumber:   generateOrderNumber(),
		UserID:        userID,
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,

		Currency:                summary.Pricing.Currency,
		Subtotal:                summary.Pricing.Subtotal,
		PlanDiscountTotal:       summary.Pricing.PlanDiscountTotal,
		MembershipDiscountTotal: summary.Pricing.MembershipDiscountTotal,
		CouponDiscountTotal:     summary.Pricing.CouponDiscountTotal,
		Tax:                     summary.Pricing.Tax,
		Shipping:                summary.Pricing.Shipping,
		GrandTotal:              summary.Pricing.GrandTotal,

		PlanType:     string(req.PlanType),
		DurationDays: req.DurationDays,
		Variant:      string(req.Variant),
	}
	if summary.Coupon != nil {
		o.CouponID = &summary.Coupon.CouponID
		o.CouponCode = summary.Coupon.Code
	}

	for _, line := range summary.Lines {
		o.Items = append(o.Items, Item{
			ProductID:          line.ProductID,
			Name:               line.Name,
			PlanKey:            line.PlanKey,
			Quantity:           line.Quantity,
			UnitPrice:          line.FinalPrice,
			PlanDiscount:       line.PlanDiscount,
			MembershipDiscount: line.MembershipDiscount,
			LineTotal:          line.LineTotal,
		})
	}

	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, apperrors.Internal("Failed to create order", err)
	}

	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("order_id", o.ID).
			Warn("Failed to clear cart after order placement")
	}

	return o, nil
}

// ConfirmPayment marks an order paid and records the coupon redemption.
// Confirming an already paid order is rejected; the coupon tracker itself
// is idempotent per order, so a retried confirmation cannot double-count.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uint) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).Preload("Items").First(&o, orderID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}

	if o.PaymentStatus == PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}

	now := time.Now().UTC()
	o.PaymentStatus = PaymentStatusPaid
	o.Status = StatusConfirmed
	o.ConfirmedAt = &now
	if err := s.db.WithContext(ctx).Save(&o).Error; err != nil {
		return nil, apperrors.Internal("Failed to confirm order", err)
	}

	if o.CouponID != nil {
		if err := s.coupons.TrackUsage(ctx, *o.CouponID, o.ID, o.UserID); err != nil {
			// The order is paid; a tracking failure is surfaced in logs
			// and reconciled out of band, not bounced to the customer.
			s.logger.WithError(err).WithFields(logrus.Fields{
				"order_id":  o.ID,
				"coupon_id": *o.CouponID,
			}).Error("Failed to track coupon usage")
		}
	}

	return &o, nil
}

// GetOrder returns one of the user's orders
func (s *Service) GetOrder(ctx context.Context, userID, orderID uint) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &o, nil
}

// GetUserOrders lists the user's orders, newest first
func (s *Service) GetUserOrders(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s", strings.ToUpper(uuid.New().String()[:8]))
}
