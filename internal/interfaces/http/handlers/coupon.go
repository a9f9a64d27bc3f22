// internal/interfaces/http/handlers/coupon.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/supplement-store-backend/internal/domain/coupon"
)

// CouponHandler handles coupon administration endpoints
type CouponHandler struct {
	store *coupon.GormStore
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(store *coupon.GormStore) *CouponHandler {
	return &CouponHandler{store: store}
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req coupon.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	cp, err := buildCoupon(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.CreateCoupon(c.Request.Context(), cp); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Coupon created successfully",
		"data":    cp,
	})
}

// ListCoupons handles GET /admin/coupons
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.store.ListCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": coupons})
}

// DeactivateCoupon handles DELETE /admin/coupons/:id
func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	couponID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coupon ID"})
		return
	}

	if err := h.store.DeactivateCoupon(c.Request.Context(), couponID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon deactivated successfully"})
}

func buildCoupon(req *coupon.CreateCouponRequest) (*coupon.Coupon, error) {
	cp := &coupon.Coupon{
		Code:              req.Code,
		Type:              req.Type,
		Value:             req.Value,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		UserUsageLimit:    req.UserUsageLimit,
		IsActive:          true,
	}

	var err error
	if cp.ValidFrom, err = parseTimePtr(req.ValidFrom); err != nil {
		return nil, err
	}
	if cp.ValidUntil, err = parseTimePtr(req.ValidUntil); err != nil {
		return nil, err
	}

	for _, id := range req.ApplicableProducts {
		cp.ProductRules = append(cp.ProductRules, coupon.ProductRule{ProductID: id})
	}
	for _, id := range req.ExcludedProducts {
		cp.ProductRules = append(cp.ProductRules, coupon.ProductRule{ProductID: id, Exclude: true})
	}
	for _, id := range req.ApplicableCategories {
		cp.CategoryRules = append(cp.CategoryRules, coupon.CategoryRule{CategoryID: id})
	}

	return cp, nil
}

func parseTimePtr(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, coupon.ErrInvalidRange
	}
	return &t, nil
}
