// internal/domain/product/plans.go
package product

import (
	"fmt"
	"strings"

	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

// PlanType distinguishes one-time purchases from subscriptions
type PlanType string

const (
	PlanTypeOneTime      PlanType = "one_time"
	PlanTypeSubscription PlanType = "subscription"
)

// NinetyDayBonusRate is the fixed long-duration bonus applied to the
// 90-day subscription tier on top of catalog pricing.
const NinetyDayBonusRate = 0.15

// ApplyNinetyDayBonus recomputes the 90-day charge from the base amount.
// It intentionally supersedes any catalog-supplied discounted price for
// that tier instead of compounding with it; other durations use the
// catalog's own discounted price verbatim.
func ApplyNinetyDayBonus(baseAmount float64) float64 {
	return money.Round(baseAmount * (1 - NinetyDayBonusRate))
}

// PurchasePlan is the normalized, enumerable purchase option produced
// from a catalog entry. TotalAmount is always the amount actually charged
// for one unit of the plan.
type PurchasePlan struct {
	Type            PlanType    `json:"plan_type"`
	Key             string      `json:"plan_key"`
	Label           string      `json:"label"`
	DurationDays    int         `json:"duration_days,omitempty"`
	CapsuleCount    int         `json:"capsule_count,omitempty"`
	Price           money.Money `json:"price"`
	DiscountedPrice *float64    `json:"discounted_price,omitempty"`
	TotalAmount     float64     `json:"total_amount"`
	SavingsPercent  float64     `json:"savings_percent,omitempty"`
	Features        []string    `json:"features,omitempty"`
	Icon            string      `json:"icon,omitempty"`
	Selected        bool        `json:"selected,omitempty"`
}

// UnitDiscount returns the per-unit discount baked into the plan, >= 0.
func (p PurchasePlan) UnitDiscount() float64 {
	if d := p.Price.Amount - p.TotalAmount; d > 0 {
		return d
	}
	return 0
}

// EnumeratePlans converts a normalized price catalog into the list of
// purchase plans the product can be bought under. A tier absent from the
// catalog produces no plan; a product with neither family populated
// yields an empty list and the caller excludes it from priceable lines.
func EnumeratePlans(catalog PriceCatalog) []PurchasePlan {
	var plans []PurchasePlan

	if catalog.OneTime != nil {
		plans = append(plans, enumerateOneTimePlans(*catalog.OneTime)...)
	}

	for _, tier := range catalog.Subscriptions {
		plans = append(plans, buildSubscriptionPlan(catalog.Currency, tier))
	}

	return plans
}

func enumerateOneTimePlans(shape PriceShape) []PurchasePlan {
	if shape.Kind == PriceShapeFlat {
		return []PurchasePlan{{
			Type:        PlanTypeOneTime,
			Key:         "one_time",
			Label:       "One-Time",
			Price:       *shape.Flat,
			TotalAmount: money.Round(shape.Flat.Amount),
		}}
	}

	var plans []PurchasePlan
	if shape.Count30 != nil {
		plans = append(plans, oneTimeCountPlan(30, *shape.Count30))
	}
	if shape.Count60 != nil {
		plans = append(plans, oneTimeCountPlan(60, *shape.Count60))
	}
	return plans
}

func oneTimeCountPlan(count int, price money.Money) PurchasePlan {
	return PurchasePlan{
		Type:         PlanTypeOneTime,
		Key:          fmt.Sprintf("one_time_%d", count),
		Label:        fmt.Sprintf("One-Time (%d count)", count),
		CapsuleCount: count,
		Price:        price,
		TotalAmount:  money.Round(price.Amount),
	}
}

func buildSubscriptionPlan(currency string, tier SubscriptionTier) PurchasePlan {
	plan := PurchasePlan{
		Type:         PlanTypeSubscription,
		Key:          fmt.Sprintf("%d_days", tier.DurationDays),
		Label:        fmt.Sprintf("%d Days", tier.DurationDays),
		DurationDays: tier.DurationDays,
		CapsuleCount: tier.CapsuleCount,
		Price:        money.New(currency, tier.Amount),
		Icon:         tier.Icon,
		Features:     splitFeatures(tier.Features),
	}

	switch {
	case tier.DurationDays == 90:
		// Fixed bonus recomputed from the base amount, superseding any
		// catalog discounted price for this tier.
		discounted := ApplyNinetyDayBonus(tier.Amount)
		plan.DiscountedPrice = &discounted
		plan.TotalAmount = discounted
	case tier.DiscountedAmount != nil && *tier.DiscountedAmount < tier.Amount:
		discounted := money.Round(*tier.DiscountedAmount)
		plan.DiscountedPrice = &discounted
		plan.TotalAmount = discounted
	default:
		plan.TotalAmount = money.Round(tier.Amount)
	}

	if tier.SavingsPercent != nil {
		plan.SavingsPercent = *tier.SavingsPercent
	} else if plan.TotalAmount < tier.Amount && tier.Amount > 0 {
		plan.SavingsPercent = money.Round((tier.Amount - plan.TotalAmount) / tier.Amount * 100)
	}

	return plan
}

func splitFeatures(features string) []string {
	if features == "" {
		return nil
	}
	parts := strings.Split(features, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
