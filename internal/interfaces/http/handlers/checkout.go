// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/supplement-store-backend/internal/domain/checkout"
	"github.com/your-org/supplement-store-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler handles checkout summary and plan endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// BuildSummary handles POST /checkout/summary
func (h *CheckoutHandler) BuildSummary(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req checkout.PlanSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	summary, err := h.checkoutService.BuildSummary(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// GetPurchasePlans handles GET /checkout/plans/:id
func (h *CheckoutHandler) GetPurchasePlans(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var selected *checkout.PlanSelectionRequest
	var query checkout.PlanSelectionRequest
	if err := c.ShouldBindQuery(&query); err == nil && query.PlanType != "" {
		selected = &query
	}

	plans, err := h.checkoutService.GetPurchasePlans(c.Request.Context(), productID, selected)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plans})
}

// ValidateCoupon handles POST /checkout/coupon/validate
func (h *CheckoutHandler) ValidateCoupon(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		Code      string                        `json:"code" binding:"required"`
		Selection checkout.PlanSelectionRequest `json:"selection" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	app, err := h.checkoutService.ValidateCoupon(c.Request.Context(), userID, req.Code, &req.Selection)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon is valid",
		"data":    app,
	})
}
