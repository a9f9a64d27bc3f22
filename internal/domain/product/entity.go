// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// SalesVariant identifies the packaging family of a product. The variant
// decides which pricing family is active: sachets sell one-time and by
// subscription, stand-up pouches sell one-time only.
type SalesVariant string

const (
	VariantSachet       SalesVariant = "sachet"
	VariantStandUpPouch SalesVariant = "stand_up_pouch"
)

// Product represents a supplement product
type Product struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	SKU         string       `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name        string       `gorm:"not null;size:255" json:"name"`
	Slug        string       `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	Benefits    string       `gorm:"size:500" json:"benefits"` // Comma-separated benefit tags
	CategoryID  uint         `gorm:"not null;index" json:"category_id"`
	Variant     SalesVariant `gorm:"not null;size:30;default:'sachet'" json:"variant"`
	Currency    string       `gorm:"size:3;default:'EUR'" json:"currency"`

	// Membership pricing override. When either is set it wins over the
	// platform default member discount.
	MemberPrice           *float64 `json:"member_price,omitempty"`
	MemberDiscountPercent *float64 `json:"member_discount_percent,omitempty"`

	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category          Category           `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	OneTimeTiers      []OneTimeTier      `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"one_time_tiers,omitempty"`
	SubscriptionTiers []SubscriptionTier `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"subscription_tiers,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// OneTimeTier represents a one-time purchase price entry. Sachet products
// carry up to two tiers (30 and 60 capsules); stand-up pouches carry either
// the same pair or a single flat entry with CapsuleCount 0.
type OneTimeTier struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	CapsuleCount int       `gorm:"not null;default:0" json:"capsule_count"` // 0 means flat price
	Amount       float64   `gorm:"not null" json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubscriptionTier represents a per-duration subscription price entry for
// sachet products. Absent tiers produce no purchase plan.
type SubscriptionTier struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProductID        uint      `gorm:"not null;index" json:"product_id"`
	DurationDays     int       `gorm:"not null" json:"duration_days"` // 30, 60, 90 or 180
	Amount           float64   `gorm:"not null" json:"amount"`
	DiscountedAmount *float64  `json:"discounted_amount,omitempty"`
	CapsuleCount     int       `gorm:"default:0" json:"capsule_count"`
	SavingsPercent   *float64  `json:"savings_percent,omitempty"`
	Features         string    `gorm:"size:500" json:"features"` // Comma-separated marketing bullets
	Icon             string    `gorm:"size:255" json:"icon"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string          { return "products" }
func (Category) TableName() string         { return "categories" }
func (OneTimeTier) TableName() string      { return "one_time_tiers" }
func (SubscriptionTier) TableName() string { return "subscription_tiers" }

// SupportedDurations lists the subscription durations the store sells.
var SupportedDurations = []int{30, 60, 90, 180}

// IsSupportedDuration reports whether d is a sellable subscription duration.
func IsSupportedDuration(d int) bool {
	for _, v := range SupportedDurations {
		if v == d {
			return true
		}
	}
	return false
}

// IsSubscribable reports whether the product can be sold on a subscription plan.
func (p *Product) IsSubscribable() bool {
	return p.Variant == VariantSachet
}
