// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// Status represents the order status
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Order is a snapshot of a built checkout summary at the moment the user
// placed it. Amounts are copied, never recomputed afterwards.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	Status        Status        `gorm:"not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending'" json:"payment_status"`

	Currency                string  `gorm:"size:3;default:'EUR'" json:"currency"`
	Subtotal                float64 `gorm:"not null" json:"subtotal"`
	PlanDiscountTotal       float64 `gorm:"default:0" json:"plan_discount_total"`
	MembershipDiscountTotal float64 `gorm:"default:0" json:"membership_discount_total"`
	CouponDiscountTotal     float64 `gorm:"default:0" json:"coupon_discount_total"`
	Tax                     float64 `gorm:"default:0" json:"tax"`
	Shipping                float64 `gorm:"default:0" json:"shipping"`
	GrandTotal              float64 `gorm:"not null" json:"grand_total"`

	CouponID   *uint  `gorm:"index" json:"coupon_id,omitempty"`
	CouponCode string `gorm:"size:50" json:"coupon_code,omitempty"`

	PlanType     string `gorm:"size:20" json:"plan_type"`
	DurationDays int    `json:"duration_days,omitempty"`
	Variant      string `gorm:"size:20" json:"variant"`

	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Items []Item `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// Item is one priced line of an order
type Item struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	OrderID            uint      `gorm:"not null;index" json:"order_id"`
	ProductID          uint      `gorm:"not null;index" json:"product_id"`
	Name               string    `gorm:"not null;size:255" json:"name"`
	PlanKey            string    `gorm:"size:30" json:"plan_key"`
	Quantity           int       `gorm:"not null" json:"quantity"`
	UnitPrice          float64   `gorm:"not null" json:"unit_price"`
	PlanDiscount       float64   `gorm:"default:0" json:"plan_discount"`
	MembershipDiscount float64   `gorm:"default:0" json:"membership_discount"`
	LineTotal          float64   `gorm:"not null" json:"line_total"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName overrides
func (Order) TableName() string { return "orders" }
func (Item) TableName() string  { return "order_items" }
