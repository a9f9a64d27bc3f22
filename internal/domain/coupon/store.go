// internal/domain/coupon/store.go
package coupon

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/supplement-store-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// GormStore is the database-backed coupon store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed coupon store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindByCode looks a coupon up case-insensitively, skipping soft-deleted
// rows. Returns nil without error when no coupon matches.
func (s *GormStore) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	var c Coupon
	err := s.db.WithContext(ctx).
		Preload("ProductRules").
		Preload("CategoryRules").
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&c).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return &c, nil
}

// CountUserUsage derives the user's redemption count from usage history
func (s *GormStore) CountUserUsage(ctx context.Context, couponID, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&UsageHistory{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count coupon usage: %w", err)
	}
	return count, nil
}

// HasUsage reports whether the coupon was already tracked for the order
func (s *GormStore) HasUsage(ctx context.Context, couponID, orderID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&UsageHistory{}).
		Where("coupon_id = ? AND order_id = ?", couponID, orderID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check coupon usage: %w", err)
	}
	return count > 0, nil
}

// CreateUsage inserts one usage record. The unique index on
// (coupon_id, order_id) backs the idempotency guarantee.
func (s *GormStore) CreateUsage(ctx context.Context, usage *UsageHistory) error {
	if err := s.db.WithContext(ctx).Create(usage).Error; err != nil {
		return fmt.Errorf("failed to create coupon usage record: %w", err)
	}
	return nil
}

// IncrementUsage bumps usage_count in a single conditional UPDATE so the
// count can never exceed the limit, even under concurrent checkouts.
func (s *GormStore) IncrementUsage(ctx context.Context, couponID uint) (bool, error) {
	result := s.db.WithContext(ctx).Model(&Coupon{}).
		Where("id = ?", couponID).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Admin operations

// CreateCouponRequest represents coupon creation data
type CreateCouponRequest struct {
	Code                 string   `json:"code" binding:"required"`
	Type                 Type     `json:"type" binding:"required,oneof=percentage fixed free_shipping"`
	Value                float64  `json:"value" binding:"gte=0"`
	MinOrderAmount       *float64 `json:"min_order_amount"`
	MaxDiscountAmount    *float64 `json:"max_discount_amount"`
	UsageLimit           *int     `json:"usage_limit"`
	UserUsageLimit       *int     `json:"user_usage_limit"`
	ValidFrom            *string  `json:"valid_from"` // RFC3339
	ValidUntil           *string  `json:"valid_until"`
	ApplicableProducts   []uint   `json:"applicable_products"`
	ExcludedProducts     []uint   `json:"excluded_products"`
	ApplicableCategories []uint   `json:"applicable_categories"`
}

// CreateCoupon stores a new coupon with its applicability rules
func (s *GormStore) CreateCoupon(ctx context.Context, c *Coupon) error {
	if c.Type == TypePercentage && (c.Value < 0 || c.Value > 100) {
		return ErrInvalidPercentage
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && !c.ValidFrom.Before(*c.ValidUntil) {
		return ErrInvalidRange
	}

	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return apperrors.BadRequest("Coupon code is required")
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// ListCoupons returns all coupons for administration
func (s *GormStore) ListCoupons(ctx context.Context) ([]Coupon, error) {
	var coupons []Coupon
	err := s.db.WithContext(ctx).
		Preload("ProductRules").
		Preload("CategoryRules").
		Order("created_at DESC").
		Find(&coupons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// DeactivateCoupon switches a coupon off without deleting its history
func (s *GormStore) DeactivateCoupon(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&Coupon{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
