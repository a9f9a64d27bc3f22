// internal/domain/coupon/entity.go
package coupon

import (
	"time"

	"gorm.io/gorm"
)

// Type represents the coupon discount type
type Type string

const (
	TypePercentage   Type = "percentage"
	TypeFixed        Type = "fixed"
	TypeFreeShipping Type = "free_shipping"
)

// Coupon represents a promotional coupon. Codes are unique and matched
// case-insensitively; they are stored uppercase.
type Coupon struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Code              string     `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Type              Type       `gorm:"not null;size:20" json:"type"`
	Value             float64    `gorm:"not null" json:"value"` // Percent for percentage, amount for fixed
	MinOrderAmount    *float64   `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *float64   `json:"max_discount_amount,omitempty"`
	UsageLimit        *int       `json:"usage_limit,omitempty"`
	UserUsageLimit    *int       `json:"user_usage_limit,omitempty"`
	UsageCount        int        `gorm:"not null;default:0" json:"usage_count"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	ProductRules  []ProductRule  `gorm:"foreignKey:CouponID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product_rules,omitempty"`
	CategoryRules []CategoryRule `gorm:"foreignKey:CouponID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category_rules,omitempty"`
}

// ProductRule scopes a coupon to (or away from) a product
type ProductRule struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CouponID  uint `gorm:"not null;index" json:"coupon_id"`
	ProductID uint `gorm:"not null" json:"product_id"`
	Exclude   bool `gorm:"default:false" json:"exclude"`
}

// CategoryRule scopes a coupon to a category
type CategoryRule struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CouponID   uint `gorm:"not null;index" json:"coupon_id"`
	CategoryID uint `gorm:"not null" json:"category_id"`
}

// UsageHistory records one redemption of a coupon on an order. The
// composite unique index makes duplicate tracking attempts for the same
// order detectable, so tracking stays idempotent.
type UsageHistory struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	CouponID uint      `gorm:"not null;uniqueIndex:idx_coupon_usage_order" json:"coupon_id"`
	OrderID  uint      `gorm:"not null;uniqueIndex:idx_coupon_usage_order" json:"order_id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	UsedAt   time.Time `json:"used_at"`
}

// TableName overrides
func (Coupon) TableName() string       { return "coupons" }
func (ProductRule) TableName() string  { return "coupon_product_rules" }
func (CategoryRule) TableName() string { return "coupon_category_rules" }
func (UsageHistory) TableName() string { return "coupon_usage_history" }

// ApplicableProducts returns the product IDs the coupon is limited to
func (c *Coupon) ApplicableProducts() []uint {
	var ids []uint
	for _, rule := range c.ProductRules {
		if !rule.Exclude {
			ids = append(ids, rule.ProductID)
		}
	}
	return ids
}

// ExcludedProducts returns the product IDs the coupon must not touch
func (c *Coupon) ExcludedProducts() []uint {
	var ids []uint
	for _, rule := range c.ProductRules {
		if rule.Exclude {
			ids = append(ids, rule.ProductID)
		}
	}
	return ids
}

// ApplicableCategories returns the category IDs the coupon is limited to
func (c *Coupon) ApplicableCategories() []uint {
	var ids []uint
	for _, rule := range c.CategoryRules {
		ids = append(ids, rule.CategoryID)
	}
	return ids
}
