// internal/domain/product/plans_test.go
package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

func float64Ptr(v float64) *float64 { return &v }

func sachetProduct() *Product {
	return &Product{
		ID:       1,
		Name:     "Magnesium Complex",
		Variant:  VariantSachet,
		Currency: "EUR",
		OneTimeTiers: []OneTimeTier{
			{ProductID: 1, CapsuleCount: 30, Amount: 24.99},
			{ProductID: 1, CapsuleCount: 60, Amount: 44.99},
		},
		SubscriptionTiers: []SubscriptionTier{
			{ProductID: 1, DurationDays: 90, Amount: 89.99},
			{ProductID: 1, DurationDays: 30, Amount: 29.99},
			{ProductID: 1, DurationDays: 60, Amount: 59.99, DiscountedAmount: float64Ptr(53.99)},
			{ProductID: 1, DurationDays: 180, Amount: 239.99, DiscountedAmount: float64Ptr(203.99)},
		},
	}
}

func TestApplyNinetyDayBonus(t *testing.T) {
	assert.Equal(t, 85.00, ApplyNinetyDayBonus(100))
	assert.Equal(t, 76.49, ApplyNinetyDayBonus(89.99))
	assert.Equal(t, 0.0, ApplyNinetyDayBonus(0))
}

func TestEnumeratePlansSachet(t *testing.T) {
	catalog := BuildPriceCatalog(sachetProduct())
	plans := EnumeratePlans(catalog)
	require.Len(t, plans, 6)

	byKey := make(map[string]PurchasePlan, len(plans))
	for _, p := range plans {
		byKey[p.Key] = p
	}

	ot30, ok := byKey["one_time_30"]
	require.True(t, ok)
	assert.Equal(t, PlanTypeOneTime, ot30.Type)
	assert.Equal(t, 30, ot30.CapsuleCount)
	assert.Equal(t, 24.99, ot30.TotalAmount)

	ot60, ok := byKey["one_time_60"]
	require.True(t, ok)
	assert.Equal(t, 44.99, ot60.TotalAmount)

	// 30 days has no catalog discount, so it charges the base amount.
	sub30, ok := byKey["30_days"]
	require.True(t, ok)
	assert.Equal(t, PlanTypeSubscription, sub30.Type)
	assert.Equal(t, 29.99, sub30.TotalAmount)
	assert.Nil(t, sub30.DiscountedPrice)

	// 60 days uses the catalog discounted price verbatim.
	sub60, ok := byKey["60_days"]
	require.True(t, ok)
	assert.Equal(t, 53.99, sub60.TotalAmount)
	require.NotNil(t, sub60.DiscountedPrice)
	assert.Equal(t, 53.99, *sub60.DiscountedPrice)

	// 90 days is always recomputed from the base amount.
	sub90, ok := byKey["90_days"]
	require.True(t, ok)
	assert.Equal(t, 76.49, sub90.TotalAmount)
	require.NotNil(t, sub90.DiscountedPrice)
	assert.Equal(t, 76.49, *sub90.DiscountedPrice)

	sub180, ok := byKey["180_days"]
	require.True(t, ok)
	assert.Equal(t, 203.99, sub180.TotalAmount)
}

func TestEnumeratePlansNinetyDaySupersedesCatalogDiscount(t *testing.T) {
	p := sachetProduct()
	// A catalog-supplied discounted price on the 90-day tier must not
	// compound with or replace the fixed bonus.
	p.SubscriptionTiers = []SubscriptionTier{
		{ProductID: 1, DurationDays: 90, Amount: 100, DiscountedAmount: float64Ptr(92)},
	}

	plans := EnumeratePlans(BuildPriceCatalog(p))
	require.Len(t, plans, 3)

	var sub90 *PurchasePlan
	for i := range plans {
		if plans[i].Key == "90_days" {
			sub90 = &plans[i]
		}
	}
	require.NotNil(t, sub90)
	assert.Equal(t, 85.00, sub90.TotalAmount)
}

func TestEnumeratePlansFlatPouch(t *testing.T) {
	p := &Product{
		ID:       2,
		Name:     "Omega-3",
		Variant:  VariantStandUpPouch,
		Currency: "EUR",
		OneTimeTiers: []OneTimeTier{
			{ProductID: 2, CapsuleCount: 0, Amount: 34.99},
		},
		// Leftover subscription rows from a variant change are ignored.
		SubscriptionTiers: []SubscriptionTier{
			{ProductID: 2, DurationDays: 30, Amount: 39.99},
		},
	}

	catalog := BuildPriceCatalog(p)
	require.NotNil(t, catalog.OneTime)
	assert.Equal(t, PriceShapeFlat, catalog.OneTime.Kind)
	assert.Empty(t, catalog.Subscriptions)

	plans := EnumeratePlans(catalog)
	require.Len(t, plans, 1)
	assert.Equal(t, "one_time", plans[0].Key)
	assert.Equal(t, 34.99, plans[0].TotalAmount)
	assert.Equal(t, 0, plans[0].CapsuleCount)
}

func TestEnumeratePlansEmptyCatalog(t *testing.T) {
	p := &Product{ID: 3, Variant: VariantSachet, Currency: "EUR"}
	catalog := BuildPriceCatalog(p)
	assert.True(t, catalog.IsEmpty())
	assert.Empty(t, EnumeratePlans(catalog))
}

func TestSubscriptionTiersSortedByDuration(t *testing.T) {
	catalog := BuildPriceCatalog(sachetProduct())
	require.Len(t, catalog.Subscriptions, 4)
	assert.Equal(t, 30, catalog.Subscriptions[0].DurationDays)
	assert.Equal(t, 60, catalog.Subscriptions[1].DurationDays)
	assert.Equal(t, 90, catalog.Subscriptions[2].DurationDays)
	assert.Equal(t, 180, catalog.Subscriptions[3].DurationDays)
}

func TestSavingsPercentDerived(t *testing.T) {
	p := &Product{
		ID:       4,
		Variant:  VariantSachet,
		Currency: "EUR",
		SubscriptionTiers: []SubscriptionTier{
			{ProductID: 4, DurationDays: 60, Amount: 100, DiscountedAmount: float64Ptr(80)},
		},
	}

	plans := EnumeratePlans(BuildPriceCatalog(p))
	require.Len(t, plans, 1)
	assert.Equal(t, 20.0, plans[0].SavingsPercent)
}

func TestSavingsPercentExplicitWins(t *testing.T) {
	p := &Product{
		ID:       5,
		Variant:  VariantSachet,
		Currency: "EUR",
		SubscriptionTiers: []SubscriptionTier{
			{ProductID: 5, DurationDays: 60, Amount: 100, DiscountedAmount: float64Ptr(80), SavingsPercent: float64Ptr(25)},
		},
	}

	plans := EnumeratePlans(BuildPriceCatalog(p))
	require.Len(t, plans, 1)
	assert.Equal(t, 25.0, plans[0].SavingsPercent)
}

func TestUnitDiscount(t *testing.T) {
	plan := PurchasePlan{Price: money.New("EUR", 100), TotalAmount: 85}
	assert.Equal(t, 15.0, plan.UnitDiscount())

	noDiscount := PurchasePlan{Price: money.New("EUR", 100), TotalAmount: 100}
	assert.Equal(t, 0.0, noDiscount.UnitDiscount())
}

func TestIsSupportedDuration(t *testing.T) {
	for _, d := range []int{30, 60, 90, 180} {
		assert.True(t, IsSupportedDuration(d))
	}
	for _, d := range []int{0, 45, 120, 365} {
		assert.False(t, IsSupportedDuration(d))
	}
}

func TestSplitFeatures(t *testing.T) {
	p := &Product{
		ID:       6,
		Variant:  VariantSachet,
		Currency: "EUR",
		SubscriptionTiers: []SubscriptionTier{
			{ProductID: 6, DurationDays: 30, Amount: 30, Features: "Free shipping, Cancel anytime , "},
		},
	}

	plans := EnumeratePlans(BuildPriceCatalog(p))
	require.Len(t, plans, 1)
	assert.Equal(t, []string{"Free shipping", "Cancel anytime"}, plans[0].Features)
}
