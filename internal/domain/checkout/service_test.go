// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/supplement-store-backend/internal/config"
	"github.com/your-org/supplement-store-backend/internal/domain/cart"
	"github.com/your-org/supplement-store-backend/internal/domain/coupon"
	"github.com/your-org/supplement-store-backend/internal/domain/membership"
	"github.com/your-org/supplement-store-backend/internal/domain/product"
	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

type fakeCarts struct {
	lines []cart.Line
	err   error
}

func (f *fakeCarts) FindActiveLines(ctx context.Context, userID uint) ([]cart.Line, error) {
	return f.lines, f.err
}

type fakeCatalog struct {
	catalogs []product.PriceCatalog
	err      error
}

func (f *fakeCatalog) GetPriceCatalogs(ctx context.Context, ids []uint) ([]product.PriceCatalog, error) {
	return f.catalogs, f.err
}

// fakePricer applies a flat member discount percent when member is true.
type fakePricer struct {
	member  bool
	percent float64
}

func (f *fakePricer) Price(ctx context.Context, src membership.PriceSource, userID uint) membership.PriceResult {
	result := membership.PriceResult{
		OriginalPrice: src.Price,
		MemberPrice:   src.Price,
	}
	if !f.member {
		return result
	}
	result.IsMember = true
	amount := src.Price.Amount * (1 - f.percent/100)
	result.MemberPrice = money.Money{Currency: src.Price.Currency, Amount: amount}
	result.DiscountAmount = src.Price.Amount - amount
	result.AppliedDiscount = "default_percent"
	return result
}

type fakeCoupons struct {
	app    *coupon.Application
	err    error
	gotIn  coupon.ValidationInput
	called int
}

func (f *fakeCoupons) Validate(ctx context.Context, code string, in coupon.ValidationInput) (*coupon.Application, error) {
	f.called++
	f.gotIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.app, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Pricing: config.PricingConfig{
			Currency: "EUR",
			TaxRate:  0.21,
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func floatPtr(v float64) *float64 { return &v }

func sachetCatalog(id uint, baseAmount float64) product.PriceCatalog {
	return product.BuildPriceCatalog(&product.Product{
		ID:         id,
		Name:       "Magnesium Complex",
		Variant:    product.VariantSachet,
		Currency:   "EUR",
		CategoryID: 1,
		OneTimeTiers: []product.OneTimeTier{
			{ProductID: id, CapsuleCount: 30, Amount: 24.99},
			{ProductID: id, CapsuleCount: 60, Amount: 44.99},
		},
		SubscriptionTiers: []product.SubscriptionTier{
			{ProductID: id, DurationDays: 30, Amount: baseAmount / 3},
			{ProductID: id, DurationDays: 90, Amount: baseAmount},
		},
	})
}

func pouchCatalog(id uint, amount float64) product.PriceCatalog {
	return product.BuildPriceCatalog(&product.Product{
		ID:         id,
		Name:       "Omega-3",
		Variant:    product.VariantStandUpPouch,
		Currency:   "EUR",
		CategoryID: 2,
		OneTimeTiers: []product.OneTimeTier{
			{ProductID: id, CapsuleCount: 0, Amount: amount},
		},
	})
}

func newTestService(carts CartReader, catalog CatalogReader, pricer MemberPricer, coupons CouponValidator) *Service {
	return NewService(carts, catalog, pricer, coupons, testConfig(), quietLogger())
}

func ninetyDaySelection() *PlanSelectionRequest {
	return &PlanSelectionRequest{
		PlanType:     product.PlanTypeSubscription,
		DurationDays: 90,
		Variant:      product.VariantSachet,
	}
}

func TestBuildSummaryNinetyDaySubscription(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	s := newTestService(carts, catalog, &fakePricer{}, &fakeCoupons{})

	summary, err := s.BuildSummary(context.Background(), 7, ninetyDaySelection())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)

	line := summary.Lines[0]
	assert.Equal(t, "90_days", line.PlanKey)
	assert.Equal(t, 100.0, line.MRP.Amount)
	assert.Equal(t, 85.00, line.PlanPrice)
	assert.Equal(t, 15.00, line.PlanDiscount)
	assert.Equal(t, 85.00, line.FinalPrice)
	assert.Equal(t, 85.00, line.LineTotal)
	assert.False(t, line.IsMember)

	pricing := summary.Pricing
	assert.Equal(t, "EUR", pricing.Currency)
	assert.Equal(t, 85.00, pricing.Subtotal)
	assert.Equal(t, 15.00, pricing.PlanDiscountTotal)
	assert.Equal(t, 0.0, pricing.CouponDiscountTotal)
	assert.Equal(t, 17.85, pricing.Tax)
	assert.Equal(t, 0.0, pricing.Shipping)
	assert.Equal(t, 102.85, pricing.GrandTotal)
}

func TestBuildSummaryAggregationIdentity(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{
		sachetCatalog(1, 89.99),
		sachetCatalog(2, 129.99),
	}}
	coupons := &fakeCoupons{app: &coupon.Application{
		CouponID: 5, Code: "SAVE10", Type: coupon.TypeFixed, Value: 10, DiscountAmount: 10,
	}}
	s := newTestService(carts, catalog, &fakePricer{member: true, percent: 10}, coupons)

	req := ninetyDaySelection()
	req.CouponCode = "SAVE10"
	summary, err := s.BuildSummary(context.Background(), 7, req)
	require.NoError(t, err)

	p := summary.Pricing
	assert.Equal(t, p.GrandTotal, money.Round(p.Subtotal-p.CouponDiscountTotal+p.Tax+p.Shipping))
	assert.Equal(t, 10.00, p.CouponDiscountTotal)
	require.NotNil(t, summary.Coupon)
	assert.Equal(t, "SAVE10", summary.Coupon.Code)
}

func TestBuildSummaryMembershipDiscount(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	s := newTestService(carts, catalog, &fakePricer{member: true, percent: 10}, &fakeCoupons{})

	summary, err := s.BuildSummary(context.Background(), 7, ninetyDaySelection())
	require.NoError(t, err)

	line := summary.Lines[0]
	assert.True(t, line.IsMember)
	assert.Equal(t, 8.50, line.MembershipDiscount)
	assert.Equal(t, 76.50, line.FinalPrice)
	assert.Equal(t, 76.50, summary.Pricing.Subtotal)
	assert.Equal(t, 8.50, summary.Pricing.MembershipDiscountTotal)
}

func TestBuildSummaryCouponValidatedAgainstPostMembershipSubtotal(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	coupons := &fakeCoupons{app: &coupon.Application{Code: "TEN", DiscountAmount: 5}}
	s := newTestService(carts, catalog, &fakePricer{member: true, percent: 10}, coupons)

	req := ninetyDaySelection()
	req.CouponCode = "TEN"
	_, err := s.BuildSummary(context.Background(), 7, req)
	require.NoError(t, err)

	assert.Equal(t, 1, coupons.called)
	assert.Equal(t, 76.50, coupons.gotIn.OrderAmount)
	assert.Equal(t, []uint{1}, coupons.gotIn.ProductIDs)
	assert.Equal(t, []uint{1}, coupons.gotIn.CategoryIDs)
}

func TestBuildSummaryCouponFailurePropagates(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	coupons := &fakeCoupons{err: coupon.ErrExpired}
	s := newTestService(carts, catalog, &fakePricer{}, coupons)

	req := ninetyDaySelection()
	req.CouponCode = "LATE"
	_, err := s.BuildSummary(context.Background(), 7, req)
	assert.ErrorIs(t, err, coupon.ErrExpired)
}

func TestBuildSummaryFreeShippingCoupon(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	coupons := &fakeCoupons{app: &coupon.Application{Code: "FREESHIP", FreeShipping: true}}
	s := newTestService(carts, catalog, &fakePricer{}, coupons)

	req := ninetyDaySelection()
	req.CouponCode = "FREESHIP"
	summary, err := s.BuildSummary(context.Background(), 7, req)
	require.NoError(t, err)

	assert.True(t, summary.Pricing.FreeShipping)
	assert.Equal(t, 0.0, summary.Pricing.CouponDiscountTotal)
	assert.Equal(t, 0.0, summary.Pricing.Shipping)
}

func TestBuildSummaryEmptyCart(t *testing.T) {
	s := newTestService(&fakeCarts{}, &fakeCatalog{}, &fakePricer{}, &fakeCoupons{})

	_, err := s.BuildSummary(context.Background(), 7, ninetyDaySelection())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestBuildSummaryUnsupportedDuration(t *testing.T) {
	s := newTestService(&fakeCarts{}, &fakeCatalog{}, &fakePricer{}, &fakeCoupons{})

	req := ninetyDaySelection()
	req.DurationDays = 45
	_, err := s.BuildSummary(context.Background(), 7, req)
	assert.ErrorIs(t, err, ErrUnsupportedDuration)
}

func TestBuildSummaryNoValidProducts(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 99, Quantity: 1}}}
	s := newTestService(carts, &fakeCatalog{}, &fakePricer{}, &fakeCoupons{})

	_, err := s.BuildSummary(context.Background(), 7, ninetyDaySelection())
	assert.ErrorIs(t, err, ErrNoValidProducts)
}

func TestBuildSummaryCatalogReadFailureIsHard(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{err: errors.New("db down")}
	s := newTestService(carts, catalog, &fakePricer{}, &fakeCoupons{})

	_, err := s.BuildSummary(context.Background(), 7, ninetyDaySelection())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoValidProducts)
}

func TestBuildSummaryVariantMismatchSkipsLine(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{
		sachetCatalog(1, 100),
		pouchCatalog(2, 34.99),
	}}
	coupons := &fakeCoupons{}
	s := newTestService(carts, catalog, &fakePricer{}, coupons)

	summary, err := s.BuildSummary(context.Background(), 7, ninetyDaySelection())
	require.NoError(t, err)

	require.Len(t, summary.Lines, 1)
	assert.Equal(t, uint(1), summary.Lines[0].ProductID)
	assert.Equal(t, []uint{2}, summary.SkippedProducts)
	assert.Equal(t, 85.00, summary.Pricing.Subtotal)
}

func TestBuildSummaryAllLinesSkippedSkipsCoupon(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 2, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{pouchCatalog(2, 34.99)}}
	coupons := &fakeCoupons{}
	s := newTestService(carts, catalog, &fakePricer{}, coupons)

	req := ninetyDaySelection()
	req.CouponCode = "SAVE10"
	summary, err := s.BuildSummary(context.Background(), 7, req)
	require.NoError(t, err)

	assert.Empty(t, summary.Lines)
	assert.Equal(t, []uint{2}, summary.SkippedProducts)
	assert.Equal(t, 0, coupons.called)
	assert.Equal(t, 0.0, summary.Pricing.GrandTotal)
}

func TestBuildSummaryMissingCapsuleCount(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	s := newTestService(carts, catalog, &fakePricer{}, &fakeCoupons{})

	req := &PlanSelectionRequest{
		PlanType: product.PlanTypeOneTime,
		Variant:  product.VariantSachet,
	}
	_, err := s.BuildSummary(context.Background(), 7, req)
	assert.ErrorIs(t, err, ErrMissingCapsuleCount)
}

func TestBuildSummaryFlatOneTimeIgnoresCapsuleCount(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 2, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{pouchCatalog(2, 34.99)}}
	s := newTestService(carts, catalog, &fakePricer{}, &fakeCoupons{})

	req := &PlanSelectionRequest{
		PlanType: product.PlanTypeOneTime,
		Variant:  product.VariantStandUpPouch,
	}
	summary, err := s.BuildSummary(context.Background(), 7, req)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, "one_time", summary.Lines[0].PlanKey)
	assert.Equal(t, 34.99, summary.Pricing.Subtotal)
}

func TestBuildSummaryUnavailableTierSkipsLine(t *testing.T) {
	// Product 1 offers no 180-day tier, so it is skipped under that
	// selection rather than failing the summary.
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	s := newTestService(carts, catalog, &fakePricer{}, &fakeCoupons{})

	req := ninetyDaySelection()
	req.DurationDays = 180
	summary, err := s.BuildSummary(context.Background(), 7, req)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	assert.Equal(t, []uint{1}, summary.SkippedProducts)
}

func TestBuildSummaryLinesKeepCartOrder(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{
		{ProductID: 3, Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{
		sachetCatalog(1, 100),
		sachetCatalog(2, 120),
		sachetCatalog(3, 90),
	}}
	s := newTestService(carts, catalog, &fakePricer{member: true, percent: 10}, &fakeCoupons{})

	summary, err := s.BuildSummary(context.Background(), 7, ninetyDaySelection())
	require.NoError(t, err)
	require.Len(t, summary.Lines, 3)
	assert.Equal(t, uint(3), summary.Lines[0].ProductID)
	assert.Equal(t, uint(1), summary.Lines[1].ProductID)
	assert.Equal(t, uint(2), summary.Lines[2].ProductID)
}

func TestBuildSummaryCouponLargerThanSubtotalClamps(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	coupons := &fakeCoupons{app: &coupon.Application{Code: "HUGE", DiscountAmount: 500}}
	s := newTestService(carts, catalog, &fakePricer{}, coupons)

	req := ninetyDaySelection()
	req.CouponCode = "HUGE"
	summary, err := s.BuildSummary(context.Background(), 7, req)
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.Pricing.Tax)
	assert.Equal(t, 0.0, summary.Pricing.GrandTotal)
}

func TestGetPurchasePlans(t *testing.T) {
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	s := newTestService(&fakeCarts{}, catalog, &fakePricer{}, &fakeCoupons{})

	plans, err := s.GetPurchasePlans(context.Background(), 1, ninetyDaySelection())
	require.NoError(t, err)
	require.Len(t, plans, 4)

	var selected []string
	for _, p := range plans {
		if p.Selected {
			selected = append(selected, p.Key)
		}
	}
	assert.Equal(t, []string{"90_days"}, selected)
}

func TestGetPurchasePlansUnknownProduct(t *testing.T) {
	s := newTestService(&fakeCarts{}, &fakeCatalog{}, &fakePricer{}, &fakeCoupons{})

	_, err := s.GetPurchasePlans(context.Background(), 99, nil)
	assert.ErrorIs(t, err, ErrNoValidProducts)
}

func TestValidateCouponStripsCodeFromRepricing(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{{ProductID: 1, Quantity: 1}}}
	catalog := &fakeCatalog{catalogs: []product.PriceCatalog{sachetCatalog(1, 100)}}
	coupons := &fakeCoupons{app: &coupon.Application{Code: "SAVE10", DiscountAmount: 10}}
	s := newTestService(carts, catalog, &fakePricer{}, coupons)

	req := ninetyDaySelection()
	req.CouponCode = "SAVE10"
	app, err := s.ValidateCoupon(context.Background(), 7, "SAVE10", req)
	require.NoError(t, err)

	// One call: the re-priced summary must not consume the coupon itself.
	assert.Equal(t, 1, coupons.called)
	assert.Equal(t, 85.00, coupons.gotIn.OrderAmount)
	assert.Equal(t, "SAVE10", app.Code)
}
