// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/supplement-store-backend/internal/config"
	"github.com/your-org/supplement-store-backend/internal/domain/cart"
	"github.com/your-org/supplement-store-backend/internal/domain/coupon"
	"github.com/your-org/supplement-store-backend/internal/domain/membership"
	"github.com/your-org/supplement-store-backend/internal/domain/product"
	"github.com/your-org/supplement-store-backend/internal/pkg/apperrors"
	"github.com/your-org/supplement-store-backend/internal/pkg/money"
)

var (
	ErrEmptyCart           = apperrors.BadRequest("Cart is empty")
	ErrNoValidProducts     = apperrors.NotFound("No valid products in cart")
	ErrUnsupportedDuration = apperrors.BadRequest("Unsupported subscription duration")
	ErrMissingCapsuleCount = apperrors.BadRequest("Capsule count is required for one-time plans")
)

// CartReader provides the cart lines to price, in insertion order
type CartReader interface {
	FindActiveLines(ctx context.Context, userID uint) ([]cart.Line, error)
}

// CatalogReader resolves products into normalized price catalogs.
// Inactive and deleted products are never returned.
type CatalogReader interface {
	GetPriceCatalogs(ctx context.Context, ids []uint) ([]product.PriceCatalog, error)
}

// MemberPricer computes the member price for one unit
type MemberPricer interface {
	Price(ctx context.Context, src membership.PriceSource, userID uint) membership.PriceResult
}

// CouponValidator validates a coupon code against an order context
type CouponValidator interface {
	Validate(ctx context.Context, code string, in coupon.ValidationInput) (*coupon.Application, error)
}

// Service builds checkout summaries. It composes plan enumeration,
// membership pricing and coupon validation over the cart and folds the
// results into a single pricing block.
type Service struct {
	carts   CartReader
	catalog CatalogReader
	pricer  MemberPricer
	coupons CouponValidator
	config  *config.Config
	logger  *logrus.Logger
}

// NewService creates a checkout service
func NewService(carts CartReader, catalog CatalogReader, pricer MemberPricer, coupons CouponValidator, cfg *config.Config, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		carts:   carts,
		catalog: catalog,
		pricer:  pricer,
		coupons: coupons,
		config:  cfg,
		logger:  logger,
	}
}

// PlanSelectionRequest is the single global plan choice the summary is
// built for. Every cart line of the matching variant is priced under it.
type PlanSelectionRequest struct {
	PlanType     product.PlanType     `json:"plan_type" form:"plan_type" binding:"required,oneof=one_time subscription"`
	DurationDays int                  `json:"duration_days" form:"duration_days"`
	CapsuleCount int                  `json:"capsule_count" form:"capsule_count"`
	Variant      product.SalesVariant `json:"variant" form:"variant" binding:"required,oneof=sachet stand_up_pouch"`
	CouponCode   string               `json:"coupon_code" form:"coupon_code"`
}

// LineBreakdown is the per-product pricing detail of one cart line. Unit
// amounts are per single quantity; LineTotal covers the full quantity.
type LineBreakdown struct {
	ProductID          uint                   `json:"product_id"`
	CategoryID         uint                   `json:"category_id,omitempty"`
	Name               string                 `json:"name"`
	Quantity           int                    `json:"quantity"`
	PlanKey            string                 `json:"plan_key"`
	MRP                money.Money            `json:"mrp"`
	PlanPrice          float64                `json:"plan_price"`
	PlanDiscount       float64                `json:"plan_discount"`
	IsMember           bool                   `json:"is_member"`
	MembershipDiscount float64                `json:"membership_discount"`
	FinalPrice         float64                `json:"final_price"`
	LineTotal          float64                `json:"line_total"`
	Plans              []product.PurchasePlan `json:"plans,omitempty"`
}

// Pricing is the aggregated payment block of a summary
type Pricing struct {
	Currency                string  `json:"currency"`
	Subtotal                float64 `json:"subtotal"`
	PlanDiscountTotal       float64 `json:"plan_discount_total"`
	MembershipDiscountTotal float64 `json:"membership_discount_total"`
	CouponDiscountTotal     float64 `json:"coupon_discount_total"`
	TaxRate                 float64 `json:"tax_rate"`
	Tax                     float64 `json:"tax"`
	Shipping                float64 `json:"shipping"`
	FreeShipping            bool    `json:"free_shipping,omitempty"`
	GrandTotal              float64 `json:"grand_total"`
}

// Summary is the full checkout response: per-line breakdowns in cart
// order, products excluded by the plan selection, the applied coupon and
// the payment totals.
type Summary struct {
	Lines           []LineBreakdown     `json:"lines"`
	SkippedProducts []uint              `json:"skipped_products,omitempty"`
	Coupon          *coupon.Application `json:"coupon,omitempty"`
	Pricing         Pricing             `json:"pricing"`
}

// pricedLine is the unrounded working result for one cart line. Totals
// are summed from these and rounded only at aggregation.
type pricedLine struct {
	catalog  product.PriceCatalog
	quantity int
	plan     product.PurchasePlan
	member   membership.PriceResult
	skipped  bool
	err      error
}

// BuildSummary prices the user's cart under the selected plan
func (s *Service) BuildSummary(ctx context.Context, userID uint, req *PlanSelectionRequest) (*Summary, error) {
	if err := validateSelection(req); err != nil {
		return nil, err
	}

	lines, err := s.carts.FindActiveLines(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	catalogs, err := s.loadCatalogs(ctx, lines)
	if err != nil {
		return nil, err
	}

	priced, err := s.priceLines(ctx, userID, lines, catalogs, req)
	if err != nil {
		return nil, err
	}

	return s.aggregate(ctx, userID, req, priced)
}

// GetPurchasePlans enumerates the purchase plans of one product, marking
// the plan matching the selection when one is given
func (s *Service) GetPurchasePlans(ctx context.Context, productID uint, selected *PlanSelectionRequest) ([]product.PurchasePlan, error) {
	catalogs, err := s.catalog.GetPriceCatalogs(ctx, []uint{productID})
	if err != nil {
		return nil, apperrors.Internal("Failed to load product pricing", err)
	}
	if len(catalogs) == 0 || catalogs[0].IsEmpty() {
		return nil, ErrNoValidProducts
	}

	plans := product.EnumeratePlans(catalogs[0])
	if selected != nil {
		key := selectionKey(catalogs[0], selected)
		for i := range plans {
			plans[i].Selected = plans[i].Key == key
		}
	}
	return plans, nil
}

// ValidateCoupon checks a coupon code against the user's current cart,
// priced under the given selection without any coupon applied
func (s *Service) ValidateCoupon(ctx context.Context, userID uint, code string, req *PlanSelectionRequest) (*coupon.Application, error) {
	bare := *req
	bare.CouponCode = ""

	summary, err := s.BuildSummary(ctx, userID, &bare)
	if err != nil {
		return nil, err
	}

	return s.coupons.Validate(ctx, code, coupon.ValidationInput{
		UserID:      userID,
		OrderAmount: summary.Pricing.Subtotal,
		ProductIDs:  lineProductIDs(summary.Lines),
		CategoryIDs: lineCategoryIDs(summary.Lines),
	})
}

func validateSelection(req *PlanSelectionRequest) error {
	if req.PlanType == product.PlanTypeSubscription && !product.IsSupportedDuration(req.DurationDays) {
		return ErrUnsupportedDuration
	}
	return nil
}

func (s *Service) loadCatalogs(ctx context.Context, lines []cart.Line) (map[uint]product.PriceCatalog, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; !ok {
			seen[l.ProductID] = struct{}{}
			ids = append(ids, l.ProductID)
		}
	}

	// Price data is essential; a read failure aborts the summary.
	catalogs, err := s.catalog.GetPriceCatalogs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load product pricing", err)
	}

	byID := make(map[uint]product.PriceCatalog, len(catalogs))
	for _, c := range catalogs {
		if !c.IsEmpty() {
			byID[c.ProductID] = c
		}
	}
	if len(byID) == 0 {
		return nil, ErrNoValidProducts
	}
	return byID, nil
}

// priceLines resolves the plan and member price for every cart line.
// Lines are independent, so membership lookups fan out; results are
// written by index to keep the cart's order.
func (s *Service) priceLines(ctx context.Context, userID uint, lines []cart.Line, catalogs map[uint]product.PriceCatalog, req *PlanSelectionRequest) ([]pricedLine, error) {
	priced := make([]pricedLine, len(lines))

	var wg sync.WaitGroup
	for i, line := range lines {
		cat, ok := catalogs[line.ProductID]
		if !ok {
			priced[i] = pricedLine{skipped: true, catalog: product.PriceCatalog{ProductID: line.ProductID}}
			continue
		}
		if cat.Variant != req.Variant {
			priced[i] = pricedLine{skipped: true, catalog: cat}
			continue
		}

		plan, err := selectPlan(cat, req)
		if err != nil {
			priced[i] = pricedLine{err: err}
			continue
		}
		if plan == nil {
			// The product does not offer the selected tier.
			priced[i] = pricedLine{skipped: true, catalog: cat}
			continue
		}

		wg.Add(1)
		go func(i int, cat product.PriceCatalog, quantity int, plan product.PurchasePlan) {
			defer wg.Done()
			src := membership.PriceSource{
				Price:                 money.New(cat.Currency, plan.TotalAmount),
				MemberPrice:           cat.MemberPrice,
				MemberDiscountPercent: cat.MemberDiscountPercent,
			}
			priced[i] = pricedLine{
				catalog:  cat,
				quantity: quantity,
				plan:     plan,
				member:   s.pricer.Price(ctx, src, userID),
			}
		}(i, cat, line.Quantity, *plan)
	}
	wg.Wait()

	for i := range priced {
		if priced[i].err != nil {
			return nil, priced[i].err
		}
	}
	return priced, nil
}

// selectPlan picks the enumerated plan matching the selection, or nil
// when the product does not offer it
func selectPlan(cat product.PriceCatalog, req *PlanSelectionRequest) (*product.PurchasePlan, error) {
	if req.PlanType == product.PlanTypeOneTime && cat.OneTime != nil &&
		cat.OneTime.Kind == product.PriceShapeTieredByCount && req.CapsuleCount == 0 {
		return nil, ErrMissingCapsuleCount
	}

	key := selectionKey(cat, req)
	for _, plan := range product.EnumeratePlans(cat) {
		if plan.Key == key {
			p := plan
			p.Selected = true
			return &p, nil
		}
	}
	return nil, nil
}

func selectionKey(cat product.PriceCatalog, req *PlanSelectionRequest) string {
	if req.PlanType == product.PlanTypeSubscription {
		return fmt.Sprintf("%d_days", req.DurationDays)
	}
	if cat.OneTime != nil && cat.OneTime.Kind == product.PriceShapeFlat {
		return "one_time"
	}
	return fmt.Sprintf("one_time_%d", req.CapsuleCount)
}

// aggregate folds the priced lines into the summary. Per-line totals are
// summed unrounded; every monetary output is rounded here and nowhere
// earlier.
func (s *Service) aggregate(ctx context.Context, userID uint, req *PlanSelectionRequest, priced []pricedLine) (*Summary, error) {
	summary := &Summary{Lines: make([]LineBreakdown, 0, len(priced))}

	var subtotal, planDiscountTotal, membershipDiscountTotal float64
	for _, pl := range priced {
		if pl.skipped {
			summary.SkippedProducts = append(summary.SkippedProducts, pl.catalog.ProductID)
			continue
		}

		finalPrice := pl.member.MemberPrice.Amount
		lineTotal := finalPrice * float64(pl.quantity)
		planDiscount := pl.plan.UnitDiscount()

		subtotal += lineTotal
		planDiscountTotal += planDiscount * float64(pl.quantity)
		membershipDiscountTotal += pl.member.DiscountAmount * float64(pl.quantity)

		summary.Lines = append(summary.Lines, LineBreakdown{
			ProductID:          pl.catalog.ProductID,
			CategoryID:         pl.catalog.CategoryID,
			Name:               pl.catalog.Name,
			Quantity:           pl.quantity,
			PlanKey:            pl.plan.Key,
			MRP:                pl.plan.Price,
			PlanPrice:          money.Round(pl.plan.TotalAmount),
			PlanDiscount:       money.Round(planDiscount),
			IsMember:           pl.member.IsMember,
			MembershipDiscount: money.Round(pl.member.DiscountAmount),
			FinalPrice:         money.Round(finalPrice),
			LineTotal:          money.Round(lineTotal),
			Plans:              product.EnumeratePlans(pl.catalog),
		})
	}

	pricing := Pricing{
		Currency: s.config.Pricing.Currency,
		TaxRate:  s.config.Pricing.TaxRate,
	}

	var couponDiscount float64
	if req.CouponCode != "" && len(summary.Lines) > 0 {
		app, err := s.coupons.Validate(ctx, req.CouponCode, coupon.ValidationInput{
			UserID:      userID,
			OrderAmount: money.Round(subtotal),
			ProductIDs:  lineProductIDs(summary.Lines),
			CategoryIDs: lineCategoryIDs(summary.Lines),
		})
		if err != nil {
			return nil, err
		}
		summary.Coupon = app
		couponDiscount = app.DiscountAmount
		pricing.FreeShipping = app.FreeShipping
	}

	subtotalAfterCoupon := subtotal - couponDiscount
	if subtotalAfterCoupon < 0 {
		subtotalAfterCoupon = 0
	}

	pricing.Subtotal = money.Round(subtotal)
	pricing.PlanDiscountTotal = money.Round(planDiscountTotal)
	pricing.MembershipDiscountTotal = money.Round(membershipDiscountTotal)
	pricing.CouponDiscountTotal = money.Round(couponDiscount)
	pricing.Tax = money.Round(subtotalAfterCoupon * pricing.TaxRate)
	pricing.Shipping = 0
	pricing.GrandTotal = money.Round(subtotalAfterCoupon + pricing.Tax + pricing.Shipping)

	summary.Pricing = pricing
	return summary, nil
}

func lineProductIDs(lines []LineBreakdown) []uint {
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}

func lineCategoryIDs(lines []LineBreakdown) []uint {
	seen := make(map[uint]struct{})
	var ids []uint
	for _, l := range lines {
		if l.CategoryID == 0 {
			continue
		}
		if _, ok := seen[l.CategoryID]; !ok {
			seen[l.CategoryID] = struct{}{}
			ids = append(ids, l.CategoryID)
		}
	}
	return ids
}
