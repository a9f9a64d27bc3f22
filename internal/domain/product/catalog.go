// internal/domain/product/catalog.go
package product

import (
	"sort"

	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

// PriceShapeKind tags the two shapes a one-time price can take in the
// catalog: a single flat amount or a pair of capsule-count entries.
type PriceShapeKind string

const (
	PriceShapeFlat          PriceShapeKind = "flat"
	PriceShapeTieredByCount PriceShapeKind = "tiered_by_count"
)

// PriceShape is the tagged variant for a one-time price. It is resolved
// once when the catalog is read; downstream code never branches on raw
// tier rows again.
type PriceShape struct {
	Kind    PriceShapeKind `json:"kind"`
	Flat    *money.Money   `json:"flat,omitempty"`
	Count30 *money.Money   `json:"count_30,omitempty"`
	Count60 *money.Money   `json:"count_60,omitempty"`
}

// PriceCatalog is the normalized pricing document for one product.
// Exactly one family is active, selected by the product's variant:
// sachets may carry OneTime and Subscriptions, pouches OneTime only.
type PriceCatalog struct {
	ProductID             uint               `json:"product_id"`
	Name                  string             `json:"name"`
	Variant               SalesVariant       `json:"variant"`
	Currency              string             `json:"currency"`
	CategoryID            uint               `json:"category_id"`
	MemberPrice           *float64           `json:"member_price,omitempty"`
	MemberDiscountPercent *float64           `json:"member_discount_percent,omitempty"`
	OneTime               *PriceShape        `json:"one_time,omitempty"`
	Subscriptions         []SubscriptionTier `json:"subscriptions,omitempty"`
}

// BuildPriceCatalog resolves a product's raw tier rows into the normalized
// catalog. Pure transform over already-fetched data.
func BuildPriceCatalog(p *Product) PriceCatalog {
	catalog := PriceCatalog{
		ProductID:             p.ID,
		Name:                  p.Name,
		Variant:               p.Variant,
		Currency:              p.Currency,
		CategoryID:            p.CategoryID,
		MemberPrice:           p.MemberPrice,
		MemberDiscountPercent: p.MemberDiscountPercent,
	}

	catalog.OneTime = resolveOneTimeShape(p.Currency, p.OneTimeTiers)

	// Subscription tiers only exist for the sachet family. Rows left
	// behind by a variant change are ignored rather than enumerated.
	if p.Variant == VariantSachet && len(p.SubscriptionTiers) > 0 {
		tiers := make([]SubscriptionTier, len(p.SubscriptionTiers))
		copy(tiers, p.SubscriptionTiers)
		sort.Slice(tiers, func(i, j int) bool {
			return tiers[i].DurationDays < tiers[j].DurationDays
		})
		catalog.Subscriptions = tiers
	}

	return catalog
}

// IsEmpty reports whether the catalog has no priceable family at all.
// Such a product is excluded from checkout lines, never a hard failure.
func (c PriceCatalog) IsEmpty() bool {
	return c.OneTime == nil && len(c.Subscriptions) == 0
}

func resolveOneTimeShape(currency string, tiers []OneTimeTier) *PriceShape {
	if len(tiers) == 0 {
		return nil
	}

	shape := &PriceShape{Kind: PriceShapeTieredByCount}
	for i := range tiers {
		price := money.New(currency, tiers[i].Amount)
		switch tiers[i].CapsuleCount {
		case 30:
			shape.Count30 = &price
		case 60:
			shape.Count60 = &price
		case 0:
			shape.Flat = &price
		}
	}

	// A lone zero-count row is the legacy flat shape.
	if shape.Count30 == nil && shape.Count60 == nil {
		if shape.Flat == nil {
			return nil
		}
		shape.Kind = PriceShapeFlat
		return shape
	}

	shape.Flat = nil
	return shape
}
