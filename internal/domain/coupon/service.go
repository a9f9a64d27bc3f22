// internal/domain/coupon/service.go
package coupon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/supplement-store-backend/internal/pkg/apperrors"
	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

// Validation failures. Each carries the HTTP status handlers map it to.
var (
	ErrNotFound                = apperrors.NotFound("Coupon not found")
	ErrInactive                = apperrors.BadRequest("Coupon is not active")
	ErrNotYetValid             = apperrors.BadRequest("Coupon is not valid yet")
	ErrExpired                 = apperrors.BadRequest("Coupon has expired")
	ErrInvalidRange            = apperrors.BadRequest("Coupon validity range is invalid")
	ErrUsageLimitReached       = apperrors.BadRequest("Coupon usage limit reached")
	ErrUserUsageLimitReached   = apperrors.BadRequest("You have already used this coupon the maximum number of times")
	ErrBelowMinimum            = apperrors.BadRequest("Order amount is below the coupon minimum")
	ErrNotApplicableProducts   = apperrors.BadRequest("Coupon does not apply to any product in the cart")
	ErrNotApplicableCategories = apperrors.BadRequest("Coupon does not apply to any category in the cart")
	ErrExcludedProduct         = apperrors.BadRequest("Coupon cannot be used with a product in the cart")
	ErrInvalidPercentage       = apperrors.BadRequest("Coupon percentage must be between 0 and 100")
)

// Store is the data access the validator needs. The GORM implementation
// lives in store.go; tests substitute an in-memory fake.
type Store interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error) // nil, nil when absent
	CountUserUsage(ctx context.Context, couponID, userID uint) (int64, error)
	HasUsage(ctx context.Context, couponID, orderID uint) (bool, error)
	CreateUsage(ctx context.Context, usage *UsageHistory) error
	// IncrementUsage bumps usage_count by one only while the global limit
	// has headroom, in a single conditional update. Returns false when the
	// limit was already exhausted.
	IncrementUsage(ctx context.Context, couponID uint) (bool, error)
}

// Service validates coupons and tracks their usage
type Service struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a coupon service over the given store
func NewService(store Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ValidationInput carries the order context a coupon is validated against.
// OrderAmount is the post-membership merchandise subtotal.
type ValidationInput struct {
	UserID      uint
	OrderAmount float64
	ProductIDs  []uint
	CategoryIDs []uint
}

// Application is a successfully validated coupon with its computed discount
type Application struct {
	CouponID       uint    `json:"coupon_id"`
	Code           string  `json:"code"`
	Type           Type    `json:"type"`
	Value          float64 `json:"value"`
	DiscountAmount float64 `json:"discount_amount"`
	FreeShipping   bool    `json:"free_shipping"`
}

// Validate checks a coupon code against the order context and computes
// the discount. Checks run in a fixed order and the first failure wins.
func (s *Service) Validate(ctx context.Context, code string, in ValidationInput) (*Application, error) {
	c, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up coupon", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}

	if !c.IsActive {
		return nil, ErrInactive
	}

	now := s.now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return nil, ErrNotYetValid
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return nil, ErrExpired
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && !c.ValidFrom.Before(*c.ValidUntil) {
		return nil, ErrInvalidRange
	}

	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	if c.UserUsageLimit != nil {
		used, err := s.store.CountUserUsage(ctx, c.ID, in.UserID)
		if err != nil {
			return nil, apperrors.Internal("Failed to count coupon usage", err)
		}
		if used >= int64(*c.UserUsageLimit) {
			return nil, ErrUserUsageLimitReached
		}
	}

	if c.MinOrderAmount != nil && in.OrderAmount < *c.MinOrderAmount {
		return nil, ErrBelowMinimum
	}

	if applicable := c.ApplicableProducts(); len(applicable) > 0 {
		if !intersects(applicable, in.ProductIDs) {
			return nil, ErrNotApplicableProducts
		}
	}

	if categories := c.ApplicableCategories(); len(categories) > 0 {
		if !intersects(categories, in.CategoryIDs) {
			return nil, ErrNotApplicableCategories
		}
	}

	if excluded := c.ExcludedProducts(); len(excluded) > 0 {
		if intersects(excluded, in.ProductIDs) {
			return nil, ErrExcludedProduct
		}
	}

	discount, err := s.calculateDiscount(c, in.OrderAmount)
	if err != nil {
		return nil, err
	}

	return &Application{
		CouponID:       c.ID,
		Code:           c.Code,
		Type:           c.Type,
		Value:          c.Value,
		DiscountAmount: discount,
		FreeShipping:   c.Type == TypeFreeShipping,
	}, nil
}

// TrackUsage records one redemption after payment confirmation. It is
// idempotent on (couponID, orderID): a second attempt for the same order
// is a logged no-op, and usage_count is bumped exactly once.
func (s *Service) TrackUsage(ctx context.Context, couponID, orderID, userID uint) error {
	exists, err := s.store.HasUsage(ctx, couponID, orderID)
	if err != nil {
		return apperrors.Internal("Failed to check coupon usage", err)
	}
	if exists {
		s.logger.WithFields(logrus.Fields{
			"coupon_id": couponID,
			"order_id":  orderID,
		}).Warn("Duplicate coupon usage tracking attempt, skipping")
		return nil
	}

	usage := &UsageHistory{
		CouponID: couponID,
		OrderID:  orderID,
		UserID:   userID,
		UsedAt:   s.now(),
	}
	if err := s.store.CreateUsage(ctx, usage); err != nil {
		return apperrors.Internal("Failed to record coupon usage", err)
	}

	incremented, err := s.store.IncrementUsage(ctx, couponID)
	if err != nil {
		return apperrors.Internal("Failed to increment coupon usage", err)
	}
	if !incremented {
		// The limit was exhausted between validation and confirmation.
		return ErrUsageLimitReached
	}

	return nil
}

func (s *Service) calculateDiscount(c *Coupon, orderAmount float64) (float64, error) {
	var discount float64

	switch c.Type {
	case TypePercentage:
		if c.Value < 0 || c.Value > 100 {
			return 0, ErrInvalidPercentage
		}
		discount = orderAmount * c.Value / 100
		if c.MaxDiscountAmount != nil && discount > *c.MaxDiscountAmount {
			discount = *c.MaxDiscountAmount
		}
	case TypeFixed:
		discount = c.Value
	case TypeFreeShipping:
		// Shipping waiver is the caller's concern; no merchandise discount.
		return 0, nil
	default:
		return 0, apperrors.BadRequest("Unknown coupon type")
	}

	// Never discount more than the order itself.
	if discount > orderAmount {
		discount = orderAmount
	}
	if discount < 0 {
		discount = 0
	}

	return money.Round(discount), nil
}

func intersects(a, b []uint) bool {
	set := make(map[uint]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
