// internal/domain/membership/pricer.go
package membership

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

// StatusChecker resolves whether a user currently holds member pricing.
// Service satisfies it; tests substitute fakes.
type StatusChecker interface {
	IsMember(ctx context.Context, userID uint) (bool, error)
}

// PriceSource carries a product's base price and its optional
// membership-pricing override.
type PriceSource struct {
	Price                 money.Money
	MemberPrice           *float64
	MemberDiscountPercent *float64
}

// PriceResult is the outcome of a member-price computation
type PriceResult struct {
	IsMember        bool        `json:"is_member"`
	MemberPrice     money.Money `json:"member_price"`
	OriginalPrice   money.Money `json:"original_price"`
	DiscountAmount  float64     `json:"discount_amount"`
	DiscountPercent float64     `json:"discount_percent"`
	AppliedDiscount string      `json:"applied_discount,omitempty"` // member_price, member_percent or default_percent
}

// Pricer computes member prices. A product-level override (fixed member
// price or discount percent) wins over the platform default percent.
type Pricer struct {
	checker                StatusChecker
	defaultDiscountPercent float64
	logger                 *logrus.Logger
}

// NewPricer creates a membership pricer
func NewPricer(checker StatusChecker, defaultDiscountPercent float64, logger *logrus.Logger) *Pricer {
	if logger == nil {
		logger = logrus.New()
	}
	if defaultDiscountPercent < 0 {
		defaultDiscountPercent = 0
	}
	if defaultDiscountPercent > 100 {
		defaultDiscountPercent = 100
	}
	return &Pricer{
		checker:                checker,
		defaultDiscountPercent: defaultDiscountPercent,
		logger:                 logger,
	}
}

// Price computes the member price for one unit. Non-members (and lookup
// failures, which degrade to non-member with a logged warning) get the
// original price back untouched. The result never carries a negative
// discount or a member price above the original.
func (p *Pricer) Price(ctx context.Context, src PriceSource, userID uint) PriceResult {
	result := PriceResult{
		OriginalPrice: src.Price,
		MemberPrice:   src.Price,
	}

	isMember, err := p.checker.IsMember(ctx, userID)
	if err != nil {
		p.logger.WithError(err).WithField("user_id", userID).
			Warn("Membership lookup failed, pricing as non-member")
		return result
	}
	if !isMember {
		return result
	}

	result.IsMember = true
	memberAmount, applied := p.memberAmount(src)

	// Clamp: never above the original, never negative.
	if memberAmount > src.Price.Amount {
		memberAmount = src.Price.Amount
	}
	if memberAmount < 0 {
		memberAmount = 0
	}

	result.MemberPrice = money.Money{Currency: src.Price.Currency, Amount: memberAmount}
	result.DiscountAmount = src.Price.Amount - memberAmount
	result.AppliedDiscount = applied
	if src.Price.Amount > 0 {
		result.DiscountPercent = money.Round(result.DiscountAmount / src.Price.Amount * 100)
	}

	return result
}

func (p *Pricer) memberAmount(src PriceSource) (float64, string) {
	if src.MemberPrice != nil {
		return *src.MemberPrice, "member_price"
	}
	if src.MemberDiscountPercent != nil {
		percent := *src.MemberDiscountPercent
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		return src.Price.Amount * (1 - percent/100), "member_percent"
	}
	return src.Price.Amount * (1 - p.defaultDiscountPercent/100), "default_percent"
}
